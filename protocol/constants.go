package protocol

// Frame structure constants for the R30x packet protocol.
const (
	// Header is the fixed 2-byte marker that starts every frame (0xEF01)
	Header = 0xEF01

	// HeaderSize is the size of the header field in bytes
	HeaderSize = 2

	// AddressSize is the size of the module address field in bytes
	AddressSize = 4

	// LengthSize is the size of the length field in bytes
	LengthSize = 2

	// ChecksumSize is the size of the trailing checksum in bytes
	ChecksumSize = 2

	// MinFrameSize is the size of a frame with an empty payload:
	// HEADER(2) + ADDR(4) + PID(1) + LEN(2) + CHECKSUM(2)
	MinFrameSize = HeaderSize + AddressSize + 1 + LengthSize + ChecksumSize

	// MaxPayloadSize is the largest payload the 16-bit length field can describe.
	MaxPayloadSize = 0xFFFF - ChecksumSize
)

// PacketID tags a frame as a command, a data packet, an acknowledgement
// or the last packet of a data transfer.
type PacketID byte

// Packet identifiers.
const (
	// PacketCommand carries an instruction from host to module
	PacketCommand PacketID = 0x01

	// PacketData carries one chunk of a multi-packet transfer
	PacketData PacketID = 0x02

	// PacketAck carries a confirmation code and optional result data
	PacketAck PacketID = 0x07

	// PacketEndOfData carries the last chunk of a multi-packet transfer
	PacketEndOfData PacketID = 0x08
)

func (p PacketID) String() string {
	switch p {
	case PacketCommand:
		return "command"
	case PacketData:
		return "data"
	case PacketAck:
		return "ack"
	case PacketEndOfData:
		return "end-of-data"
	default:
		return "unknown"
	}
}

// Instruction codes.
const (
	// CmdGenerateImage captures a finger image into the image buffer
	CmdGenerateImage = 0x01

	// CmdGenerateCharacteristics extracts a feature file into a char buffer
	CmdGenerateCharacteristics = 0x02

	// CmdMatchTemplate compares char buffers 1 and 2
	CmdMatchTemplate = 0x03

	// CmdGenerateTemplate merges char buffers 1 and 2 into a template
	CmdGenerateTemplate = 0x05

	// CmdStoreTemplate writes a char buffer into the flash library
	CmdStoreTemplate = 0x06

	// CmdDownloadCharBuffer streams a char buffer to the host
	CmdDownloadCharBuffer = 0x08

	// CmdDownloadImage streams the image buffer to the host
	CmdDownloadImage = 0x0A

	// CmdUploadImage streams an image from the host into the image buffer
	CmdUploadImage = 0x0B

	// CmdDeleteTemplate removes a range of pages from the flash library
	CmdDeleteTemplate = 0x0C

	// CmdSetParameter writes one system parameter register
	CmdSetParameter = 0x0E

	// CmdReadParameters reads the system parameter block
	CmdReadParameters = 0x0F

	// CmdSetPassword changes the module handshake password
	CmdSetPassword = 0x12

	// CmdVerifyPassword performs the handshake with the module password
	CmdVerifyPassword = 0x13

	// CmdFingerprintVerification captures, extracts and searches in one step
	CmdFingerprintVerification = 0x32
)

// Confirmation codes.
const (
	CodeSuccess                 = 0x00
	CodeGenericError            = 0x01
	CodeFingerNotDetected       = 0x02
	CodeFailedToCollectFinger   = 0x03
	CodeDisorderedFingerprint   = 0x06
	CodeVerySmallFingerprint    = 0x07
	CodeUnmatchedTemplates      = 0x08
	CodeNoMatch                 = 0x09
	CodeCharacteristicsMismatch = 0x0A
	CodeWrongPageID             = 0x0B
	CodeTemplateDownloadError   = 0x0D

	// CodeFailedDownloadImage is shared with failed data packet transfers
	CodeFailedDownloadImage = 0x0E
	CodeFailedDelete        = 0x10
	CodeWrongPassword       = 0x13
	CodeInvalidPrimaryImage = 0x15
	CodeFlashWriteError     = 0x18
	CodeWrongRegisterNumber = 0x1A
)

// Argument and response sizes.
const (
	// PasswordSize is the size of the module password
	PasswordSize = 4

	// ReadParametersResponseSize is the data size of a Read Parameters response
	ReadParametersResponseSize = 16

	// SearchResponseSize is the data size of a Fingerprint Verification response
	SearchResponseSize = 4

	// MatchResponseSize is the data size of a Match Template response
	MatchResponseSize = 2

	// BaudUnit is the bit rate step of the baud multiplier register
	BaudUnit = 9600
)

// Char buffer identifiers.
const (
	CharBuffer1 = 0x01
	CharBuffer2 = 0x02
)

// DefaultAddress is the factory module address.
var DefaultAddress = [AddressSize]byte{0xFF, 0xFF, 0xFF, 0xFF}

// DefaultPassword is the factory module password.
var DefaultPassword = [PasswordSize]byte{0x00, 0x00, 0x00, 0x00}

// PacketSizes maps the packet length code to the data packet size in bytes.
var PacketSizes = [...]int{32, 64, 128, 256}
