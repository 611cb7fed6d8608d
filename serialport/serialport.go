// Package serialport opens the serial line a fingerprint module is wired to.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/moffa90/go-r307/protocol"
)

const (
	// DefaultBaudRate is the module's factory bit rate
	DefaultBaudRate = 57600

	// DefaultReadTimeout bounds a single read; a read that times out ends
	// the current frame as truncated
	DefaultReadTimeout = 2 * time.Second

	// maxBaudMultiplier is the highest value of the baud rate register
	maxBaudMultiplier = 12
)

// Open opens path at baud with 8 data bits, no parity and one stop bit,
// and discards anything already buffered on the line.
//
// Example:
//
//	port, err := serialport.Open("/dev/ttyUSB0", 57600, 2*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//	s := sensor.New(port)
func Open(path string, baud int, readTimeout time.Duration) (serial.Port, error) {
	if err := ValidateBaudRate(baud); err != nil {
		return nil, err
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to flush input: %w", err)
	}

	return port, nil
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	return ports, nil
}

// ValidateBaudRate checks that baud is a rate the module supports: a
// multiple of 9600 from 9600 to 115200.
func ValidateBaudRate(baud int) error {
	if baud <= 0 || baud%protocol.BaudUnit != 0 || baud/protocol.BaudUnit > maxBaudMultiplier {
		return &protocol.ValidationError{
			Field:  "baud rate",
			Reason: fmt.Sprintf("%d is not a multiple of %d between %d and %d", baud, protocol.BaudUnit, protocol.BaudUnit, protocol.BaudUnit*maxBaudMultiplier),
		}
	}
	return nil
}

// BaudMultiplier returns the baud rate register value for baud.
func BaudMultiplier(baud int) (byte, error) {
	if err := ValidateBaudRate(baud); err != nil {
		return 0, err
	}
	return byte(baud / protocol.BaudUnit), nil
}
