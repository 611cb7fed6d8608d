package protocol

import (
	"encoding/binary"
	"fmt"
)

// Arg is one fixed-width command argument.
type Arg interface {
	// Size is the encoded width in bytes
	Size() int

	// AppendTo appends the big-endian encoding to b
	AppendTo(b []byte) []byte
}

// U8 is a one-byte argument.
type U8 byte

func (U8) Size() int                  { return 1 }
func (a U8) AppendTo(b []byte) []byte { return append(b, byte(a)) }

// U16 is a two-byte big-endian argument.
type U16 uint16

func (U16) Size() int                  { return 2 }
func (a U16) AppendTo(b []byte) []byte { return binary.BigEndian.AppendUint16(b, uint16(a)) }

// Word is a four-byte argument sent as-is, such as a password.
type Word [4]byte

func (Word) Size() int                  { return 4 }
func (a Word) AppendTo(b []byte) []byte { return append(b, a[:]...) }

// Command describes an instruction: its code and ordered arguments.
type Command struct {
	// Code is the instruction code
	Code byte

	// Args are encoded in order after the code
	Args []Arg
}

// Payload returns the command frame payload: the code followed by the arguments.
func (c Command) Payload() []byte {
	size := 1
	for _, a := range c.Args {
		size += a.Size()
	}
	payload := make([]byte, 0, size)
	payload = append(payload, c.Code)
	for _, a := range c.Args {
		payload = a.AppendTo(payload)
	}
	return payload
}

// Operation returns the catalog operation the instruction code belongs to.
func (c Command) Operation() Operation {
	return operationForCode(c.Code)
}

// Parameter selects a writable system parameter register.
type Parameter byte

// System parameter registers.
const (
	// ParamBaudRate is the baud multiplier N; bit rate = N x BaudUnit
	ParamBaudRate Parameter = 4

	// ParamSecurityLevel is the matching threshold level
	ParamSecurityLevel Parameter = 5

	// ParamPacketLength is the data packet size code, see PacketSizes
	ParamPacketLength Parameter = 6
)

// Range returns the inclusive bounds accepted for the parameter.
func (p Parameter) Range() (min, max byte, ok bool) {
	switch p {
	case ParamBaudRate:
		return 1, 12, true
	case ParamSecurityLevel:
		return 1, 5, true
	case ParamPacketLength:
		return 0, 3, true
	default:
		return 0, 0, false
	}
}

func (p Parameter) String() string {
	switch p {
	case ParamBaudRate:
		return "baud rate"
	case ParamSecurityLevel:
		return "security level"
	case ParamPacketLength:
		return "packet length"
	default:
		return fmt.Sprintf("register %d", byte(p))
	}
}

// VerifyPasswordCmd builds the handshake command.
func VerifyPasswordCmd(password [PasswordSize]byte) Command {
	return Command{Code: CmdVerifyPassword, Args: []Arg{Word(password)}}
}

// SetPasswordCmd builds the Set Password command.
// The password must be exactly PasswordSize bytes.
func SetPasswordCmd(password []byte) (Command, error) {
	if len(password) != PasswordSize {
		return Command{}, &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be exactly %d bytes, got %d", PasswordSize, len(password)),
		}
	}
	var w Word
	copy(w[:], password)
	return Command{Code: CmdSetPassword, Args: []Arg{w}}, nil
}

// SetParameterCmd builds the Set Parameter command after range checking value.
func SetParameterCmd(param Parameter, value byte) (Command, error) {
	min, max, ok := param.Range()
	if !ok {
		return Command{}, &ValidationError{
			Field:  "parameter",
			Reason: fmt.Sprintf("unknown register %d", byte(param)),
		}
	}
	if value < min || value > max {
		return Command{}, &ValidationError{
			Field:  param.String(),
			Reason: fmt.Sprintf("value %d outside range %d-%d", value, min, max),
		}
	}
	return Command{Code: CmdSetParameter, Args: []Arg{U8(param), U8(value)}}, nil
}

// ReadParametersCmd builds the Read Parameters command.
func ReadParametersCmd() Command {
	return Command{Code: CmdReadParameters}
}

// GenerateImageCmd builds the image capture command.
func GenerateImageCmd() Command {
	return Command{Code: CmdGenerateImage}
}

// DownloadImageCmd builds the command that streams the image buffer to the host.
func DownloadImageCmd() Command {
	return Command{Code: CmdDownloadImage}
}

// UploadImageCmd builds the command that prepares the module to receive an image.
func UploadImageCmd() Command {
	return Command{Code: CmdUploadImage}
}

// GenerateCharacteristicsCmd builds the feature extraction command.
// bufferID must be CharBuffer1 or CharBuffer2.
func GenerateCharacteristicsCmd(bufferID byte) (Command, error) {
	if err := validateBuffer(bufferID); err != nil {
		return Command{}, err
	}
	return Command{Code: CmdGenerateCharacteristics, Args: []Arg{U8(bufferID)}}, nil
}

// GenerateTemplateCmd builds the command merging char buffers 1 and 2.
func GenerateTemplateCmd() Command {
	return Command{Code: CmdGenerateTemplate}
}

// MatchTemplateCmd builds the command comparing char buffers 1 and 2.
func MatchTemplateCmd() Command {
	return Command{Code: CmdMatchTemplate}
}

// DownloadCharBufferCmd builds the command streaming a char buffer to the host.
func DownloadCharBufferCmd(bufferID byte) (Command, error) {
	if err := validateBuffer(bufferID); err != nil {
		return Command{}, err
	}
	return Command{Code: CmdDownloadCharBuffer, Args: []Arg{U8(bufferID)}}, nil
}

// StoreTemplateCmd builds the command writing a char buffer to a library page.
func StoreTemplateCmd(bufferID byte, pageID uint16) (Command, error) {
	if err := validateBuffer(bufferID); err != nil {
		return Command{}, err
	}
	return Command{Code: CmdStoreTemplate, Args: []Arg{U8(bufferID), U16(pageID)}}, nil
}

// DeleteTemplateCmd builds the command deleting count pages from startPage.
func DeleteTemplateCmd(startPage, count uint16) (Command, error) {
	if count == 0 {
		return Command{}, &ValidationError{Field: "count", Reason: "must be at least 1"}
	}
	return Command{Code: CmdDeleteTemplate, Args: []Arg{U16(startPage), U16(count)}}, nil
}

// FingerprintVerificationCmd builds the capture-and-search command.
func FingerprintVerificationCmd(captureTime byte, startPage, quantity uint16) Command {
	return Command{
		Code: CmdFingerprintVerification,
		Args: []Arg{U8(captureTime), U16(startPage), U16(quantity)},
	}
}

func validateBuffer(bufferID byte) error {
	if bufferID != CharBuffer1 && bufferID != CharBuffer2 {
		return &ValidationError{
			Field:  "buffer id",
			Reason: fmt.Sprintf("must be %d or %d, got %d", CharBuffer1, CharBuffer2, bufferID),
		}
	}
	return nil
}
