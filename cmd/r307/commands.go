package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moffa90/go-r307/fpimage"
	"github.com/moffa90/go-r307/internal/config"
	"github.com/moffa90/go-r307/protocol"
	"github.com/moffa90/go-r307/sensor"
	"github.com/moffa90/go-r307/serialport"
)

const (
	// fingerPoll is the pause between capture attempts while waiting for a finger
	fingerPoll = 200 * time.Millisecond

	// captureAttempts bounds how often an unusable image is retaken
	captureAttempts = 3
)

type app struct {
	sensor *sensor.Sensor
	logger *zap.Logger
	out    io.Writer
	wait   time.Duration
}

type command struct {
	name  string
	args  string
	help  string
	nargs [2]int
	run   func(a *app, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"verify", "", "check the module password", [2]int{0, 0}, (*app).verify},
		{"params", "", "print the system parameters", [2]int{0, 0}, (*app).params},
		{"set-param", "<baud|security|packet> <value>", "write a system parameter", [2]int{2, 2}, (*app).setParam},
		{"set-password", "<hex>", "change the module password", [2]int{1, 1}, (*app).setPassword},
		{"capture", "<file.png|file.raw>", "capture a finger image", [2]int{1, 1}, (*app).capture},
		{"upload", "<file.png|file.raw>", "load an image into the module", [2]int{1, 1}, (*app).upload},
		{"enroll", "<page>", "capture a finger twice and store it", [2]int{1, 1}, (*app).enroll},
		{"search", "[start] [count]", "identify a finger in the library", [2]int{0, 2}, (*app).search},
		{"match", "", "capture two fingers and compare them", [2]int{0, 0}, (*app).match},
		{"char", "<1|2> <file>", "save a char buffer", [2]int{2, 2}, (*app).char},
		{"delete", "<page> [count]", "delete library pages", [2]int{1, 2}, (*app).delete},
		{"ports", "", "list serial ports", [2]int{0, 0}, nil},
	}
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	for _, c := range commands {
		if c.name != name || c.run == nil {
			continue
		}
		if len(args) < c.nargs[0] || len(args) > c.nargs[1] {
			return fmt.Errorf("usage: r307 %s %s", c.name, c.args)
		}
		if err := a.handshake(ctx); err != nil {
			return err
		}
		return c.run(a, ctx, args)
	}
	return fmt.Errorf("unknown command %q", name)
}

func (a *app) handshake(ctx context.Context) error {
	if a.sensor.State() == sensor.StatePasswordVerified {
		return nil
	}
	if err := a.sensor.Handshake(ctx); err != nil {
		if errors.Is(err, protocol.WrongPassword) {
			return fmt.Errorf("handshake: module rejected the password, set --password")
		}
		return fmt.Errorf("handshake: %w", err)
	}
	return nil
}

func (a *app) verify(ctx context.Context, _ []string) error {
	fmt.Fprintf(a.out, "module %X: %s\n", a.sensor.Config().Address, a.sensor.State())
	return nil
}

func (a *app) params(ctx context.Context, _ []string) error {
	p, err := a.sensor.ReadParameters(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "status register: 0x%04X\n", p.StatusRegister)
	fmt.Fprintf(a.out, "system id:       0x%04X\n", p.SystemID)
	fmt.Fprintf(a.out, "library size:    %d\n", p.LibrarySize)
	fmt.Fprintf(a.out, "security level:  %d\n", p.SecurityLevel)
	fmt.Fprintf(a.out, "address:         %X\n", p.DeviceAddress)
	fmt.Fprintf(a.out, "packet size:     %d\n", p.PacketSize())
	fmt.Fprintf(a.out, "baud rate:       %d\n", p.BaudRate())
	return nil
}

func (a *app) setParam(ctx context.Context, args []string) error {
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}

	var param protocol.Parameter
	var value byte
	switch strings.ToLower(args[0]) {
	case "baud":
		param = protocol.ParamBaudRate
		if value, err = serialport.BaudMultiplier(n); err != nil {
			return err
		}
	case "security":
		param = protocol.ParamSecurityLevel
		if n < 0 || n > 0xFF {
			return fmt.Errorf("security level %d out of range", n)
		}
		value = byte(n)
	case "packet":
		param = protocol.ParamPacketLength
		code := -1
		for i, size := range protocol.PacketSizes {
			if size == n {
				code = i
			}
		}
		if code < 0 {
			return fmt.Errorf("packet size must be one of %v", protocol.PacketSizes)
		}
		value = byte(code)
	default:
		return fmt.Errorf("unknown parameter %q, want baud, security or packet", args[0])
	}

	if err := a.sensor.SetParameter(ctx, param, value); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s set to %d\n", param, n)
	if param == protocol.ParamBaudRate {
		fmt.Fprintln(a.out, "the new bit rate applies after the module restarts")
	}
	return nil
}

func (a *app) setPassword(ctx context.Context, args []string) error {
	pw, err := config.ParseWord(args[0])
	if err != nil {
		return err
	}
	if err := a.sensor.SetPassword(ctx, pw[:]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "password changed")
	return nil
}

func (a *app) capture(ctx context.Context, args []string) error {
	if err := a.waitForFinger(ctx); err != nil {
		return err
	}

	raw, err := a.sensor.DownloadImage(ctx)
	if err != nil {
		return err
	}

	path := args[0]
	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = fpimage.SavePNG(path, raw)
	} else {
		err = os.WriteFile(path, raw, 0o644)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "image saved to %s (%d bytes raw)\n", path, len(raw))
	return nil
}

func (a *app) upload(ctx context.Context, args []string) error {
	raw, err := fpimage.Load(args[0])
	if err != nil {
		return err
	}
	if err := a.sensor.UploadImage(ctx, raw); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "uploaded %d bytes\n", len(raw))
	return nil
}

func (a *app) enroll(ctx context.Context, args []string) error {
	page, err := parseUint16("page", args[0])
	if err != nil {
		return err
	}

	for i, buf := range []byte{protocol.CharBuffer1, protocol.CharBuffer2} {
		if i > 0 {
			fmt.Fprintln(a.out, "place the same finger again")
		}
		if err := a.captureCharacteristics(ctx, buf); err != nil {
			return err
		}
	}

	if err := a.sensor.GenerateTemplate(ctx); err != nil {
		if errors.Is(err, protocol.CharacteristicsMismatch) {
			return fmt.Errorf("the two captures are not the same finger")
		}
		return err
	}
	if err := a.sensor.StoreTemplate(ctx, protocol.CharBuffer1, page); err != nil {
		return err
	}

	a.logger.Info("template enrolled", zap.Uint16("page", page))
	fmt.Fprintf(a.out, "enrolled at page %d\n", page)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	start, count := uint16(0), uint16(0)
	var err error
	if len(args) > 0 {
		if start, err = parseUint16("start", args[0]); err != nil {
			return err
		}
	}
	if len(args) > 1 {
		if count, err = parseUint16("count", args[1]); err != nil {
			return err
		}
	} else {
		p, err := a.sensor.ReadParameters(ctx)
		if err != nil {
			return err
		}
		count = p.LibrarySize
	}

	fmt.Fprintln(a.out, "place a finger on the sensor")
	match, err := a.sensor.FingerprintVerification(ctx, 1, start, count)
	switch {
	case errors.Is(err, protocol.NoMatch):
		fmt.Fprintln(a.out, "no match")
		return errNoMatch
	case err != nil:
		return err
	}

	fmt.Fprintf(a.out, "match: page %d, score %d\n", match.PageID, match.Score)
	return nil
}

func (a *app) match(ctx context.Context, _ []string) error {
	for i, buf := range []byte{protocol.CharBuffer1, protocol.CharBuffer2} {
		if i > 0 {
			fmt.Fprintln(a.out, "place the second finger")
		}
		if err := a.captureCharacteristics(ctx, buf); err != nil {
			return err
		}
	}

	score, err := a.sensor.MatchTemplate(ctx)
	switch {
	case errors.Is(err, protocol.UnmatchedTemplates):
		fmt.Fprintln(a.out, "no match")
		return errNoMatch
	case err != nil:
		return err
	}

	fmt.Fprintf(a.out, "match: score %d\n", score)
	return nil
}

func (a *app) char(ctx context.Context, args []string) error {
	buf, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return fmt.Errorf("invalid buffer %q", args[0])
	}
	data, err := a.sensor.DownloadCharBuffer(ctx, byte(buf))
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "char buffer %d saved to %s (%d bytes)\n", buf, args[1], len(data))
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	page, err := parseUint16("page", args[0])
	if err != nil {
		return err
	}
	count := uint16(1)
	if len(args) > 1 {
		if count, err = parseUint16("count", args[1]); err != nil {
			return err
		}
	}

	if err := a.sensor.DeleteTemplate(ctx, page, count); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %d page(s) from %d\n", count, page)
	return nil
}

// captureCharacteristics waits for a finger and extracts it into buf,
// asking again when the image is unusable.
func (a *app) captureCharacteristics(ctx context.Context, buf byte) error {
	var err error
	for attempt := 0; attempt < captureAttempts; attempt++ {
		if err = a.waitForFinger(ctx); err != nil {
			return err
		}
		err = a.sensor.GenerateCharacteristics(ctx, buf)
		if !errors.Is(err, protocol.DisorderedFingerprint) && !errors.Is(err, protocol.VerySmallFingerprint) {
			return err
		}
		fmt.Fprintln(a.out, "image unusable, place the finger again")
	}
	return err
}

// waitForFinger captures an image, polling until a finger is present or
// the wait expires.
func (a *app) waitForFinger(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.wait)
	defer cancel()

	fmt.Fprintln(a.out, "waiting for finger")
	for {
		err := a.sensor.GenerateImage(ctx)
		if !errors.Is(err, protocol.FingerNotDetected) {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("no finger detected within %s", a.wait)
			}
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("no finger detected within %s", a.wait)
		case <-time.After(fingerPoll):
		}
	}
}

func parseUint16(name, s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return uint16(n), nil
}
