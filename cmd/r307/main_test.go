package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moffa90/go-r307/fpimage"
	"github.com/moffa90/go-r307/protocol"
	"github.com/moffa90/go-r307/sensor"
	"github.com/moffa90/go-r307/sensortest"
)

func newTestApp(t *testing.T) (*app, *sensortest.Simulator, *bytes.Buffer) {
	t.Helper()
	device, sim := sensortest.NewSimulator(protocol.DefaultAddress, protocol.DefaultPassword)
	out := &bytes.Buffer{}
	return &app{
		sensor: sensor.New(device, sensor.WithSettleDelay(0)),
		logger: zap.NewNop(),
		out:    out,
		wait:   time.Second,
	}, sim, out
}

func TestRunSimulated(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"--simulate", "--log-level", "error", "params"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "library size:    1000")
	assert.Contains(t, out.String(), "baud rate:       57600")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", []string{"--simulate"}, "no command given"},
		{"unknown command", []string{"--simulate", "--log-level", "error", "fly"}, `unknown command "fly"`},
		{"missing argument", []string{"--simulate", "--log-level", "error", "enroll"}, "usage: r307 enroll"},
		{"no port", []string{"--log-level", "error", "verify"}, "no serial port configured"},
		{"wrong password", []string{"--simulate", "--log-level", "error", "--password", "01020304", "verify"}, "rejected the password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("R307_SERIAL_PORT", "")
			err := run(context.Background(), tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnrollSearchDelete(t *testing.T) {
	a, sim, out := newTestApp(t)
	ctx := context.Background()
	sim.Finger = 4

	require.NoError(t, a.dispatch(ctx, "enroll", []string{"17"}))
	assert.Contains(t, out.String(), "enrolled at page 17")
	_, ok := sim.Stored(17)
	assert.True(t, ok)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "search", nil))
	assert.Contains(t, out.String(), "match: page 17")

	out.Reset()
	sim.Finger = 5
	assert.ErrorIs(t, a.dispatch(ctx, "search", []string{"0", "100"}), errNoMatch)

	require.NoError(t, a.dispatch(ctx, "delete", []string{"17"}))
	_, ok = sim.Stored(17)
	assert.False(t, ok)
}

func TestMatch(t *testing.T) {
	a, sim, out := newTestApp(t)
	sim.Finger = 2

	require.NoError(t, a.dispatch(context.Background(), "match", nil))
	assert.Contains(t, out.String(), "match: score 200")
}

func TestWaitForFingerTimeout(t *testing.T) {
	a, sim, _ := newTestApp(t)
	sim.Finger = 0
	a.wait = 50 * time.Millisecond

	err := a.dispatch(context.Background(), "capture", []string{filepath.Join(t.TempDir(), "x.png")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no finger detected")
}

func TestCaptureAndUpload(t *testing.T) {
	a, sim, _ := newTestApp(t)
	ctx := context.Background()
	dir := t.TempDir()
	sim.Finger = 6

	pngPath := filepath.Join(dir, "finger.png")
	require.NoError(t, a.dispatch(ctx, "capture", []string{pngPath}))
	captured := append([]byte(nil), sim.Image()...)

	rawPath := filepath.Join(dir, "finger.raw")
	require.NoError(t, a.dispatch(ctx, "capture", []string{rawPath}))
	raw, err := os.ReadFile(rawPath)
	require.NoError(t, err)
	assert.Len(t, raw, fpimage.RawSize)

	sim.Finger = 9
	require.NoError(t, a.dispatch(ctx, "capture", []string{rawPath}))
	require.NotEqual(t, captured, sim.Image())

	require.NoError(t, a.dispatch(ctx, "upload", []string{pngPath}))
	assert.Equal(t, captured, sim.Image())
}

func TestSetParamAndPassword(t *testing.T) {
	a, _, out := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "set-param", []string{"packet", "64"}))
	require.NoError(t, a.dispatch(ctx, "set-param", []string{"security", "5"}))
	require.NoError(t, a.dispatch(ctx, "set-param", []string{"baud", "115200"}))
	assert.Contains(t, out.String(), "applies after the module restarts")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "params", nil))
	assert.Contains(t, out.String(), "packet size:     64")
	assert.Contains(t, out.String(), "security level:  5")
	assert.Contains(t, out.String(), "baud rate:       115200")

	assert.Error(t, a.dispatch(ctx, "set-param", []string{"packet", "100"}))
	assert.True(t, protocol.IsValidationError(a.dispatch(ctx, "set-param", []string{"security", "9"})))
	assert.Error(t, a.dispatch(ctx, "set-param", []string{"color", "1"}))

	require.NoError(t, a.dispatch(ctx, "set-password", []string{"0xCAFEBABE"}))
	assert.Contains(t, out.String(), "password changed")
}

func TestCharBuffer(t *testing.T) {
	a, sim, _ := newTestApp(t)
	ctx := context.Background()
	sim.Finger = 3

	require.NoError(t, a.sensor.GenerateImage(ctx))
	require.NoError(t, a.sensor.GenerateCharacteristics(ctx, protocol.CharBuffer2))

	path := filepath.Join(t.TempDir(), "char.bin")
	require.NoError(t, a.dispatch(ctx, "char", []string{"2", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, data, sensortest.CharFileSize)
}
