package protocol

import (
	"errors"
	"fmt"
)

// Frame validation failures. Decode wraps them in a *FrameError.
var (
	ErrInvalidHeader    = errors.New("invalid header")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrTruncatedFrame   = errors.New("truncated frame")
)

// ErrUnexpectedPacketType is wrapped by *PacketTypeError.
var ErrUnexpectedPacketType = errors.New("unexpected packet type")

// FrameError reports a frame that failed validation while being decoded.
// Kind is one of the Err* frame sentinels and is matched by errors.Is.
type FrameError struct {
	// Kind is the failure class
	Kind error

	// Field names the frame field being read when the failure occurred
	Field string

	// Detail carries expected/actual values, if any
	Detail string
}

func (e *FrameError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Detail)
}

func (e *FrameError) Unwrap() error {
	return e.Kind
}

// PacketTypeError reports a response frame whose packet identifier was
// not the one the exchange expected.
type PacketTypeError struct {
	Want PacketID
	Got  PacketID
}

func (e *PacketTypeError) Error() string {
	return fmt.Sprintf("%s: got %s (0x%02X), expected %s (0x%02X)",
		ErrUnexpectedPacketType, e.Got, byte(e.Got), e.Want, byte(e.Want))
}

func (e *PacketTypeError) Unwrap() error {
	return ErrUnexpectedPacketType
}

// DeviceError represents a failure confirmation code returned by the module.
//
// The Outcome is reachable with errors.Is:
//
//	if errors.Is(err, protocol.WrongPassword) {
//	    // ...
//	}
type DeviceError struct {
	// Operation is the command that failed
	Operation Operation

	// Code is the raw confirmation code
	Code byte

	// Outcome is the classified failure
	Outcome Outcome
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, e.Outcome, e.Code)
}

func (e *DeviceError) Unwrap() error {
	return e.Outcome
}

// IsDeviceError returns true if err is or wraps a *DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

// IsFrameError returns true if err is or wraps a *FrameError.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// ValidationError reports an argument rejected before any I/O took place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError returns true if err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
