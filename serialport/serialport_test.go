package serialport

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-r307/protocol"
)

func TestValidateBaudRate(t *testing.T) {
	tests := []struct {
		baud    int
		wantErr bool
	}{
		{9600, false},
		{57600, false},
		{115200, false},
		{0, true},
		{-9600, true},
		{4800, true},
		{19200 + 1, true},
		{124800, true},
	}

	for _, tt := range tests {
		err := ValidateBaudRate(tt.baud)
		if tt.wantErr {
			assert.True(t, protocol.IsValidationError(err), "baud %d", tt.baud)
		} else {
			assert.NoError(t, err, "baud %d", tt.baud)
		}
	}
}

func TestBaudMultiplier(t *testing.T) {
	m, err := BaudMultiplier(57600)
	require.NoError(t, err)
	assert.Equal(t, byte(6), m)

	_, err = BaudMultiplier(1000)
	assert.Error(t, err)
}

func TestOpenRejectsBadBaudBeforeOpening(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "tty"), 1000, time.Second)
	assert.True(t, protocol.IsValidationError(err))
}

func TestOpenMissingPort(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no-such-tty"), DefaultBaudRate, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
