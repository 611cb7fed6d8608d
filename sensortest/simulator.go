package sensortest

import (
	"bytes"
	"encoding/binary"

	"github.com/moffa90/go-r307/protocol"
)

// Image geometry of the simulated module.
const (
	ImageWidth  = 256
	ImageHeight = 288

	// ImageSize is the raw image size: two 4-bit pixels per byte
	ImageSize = ImageWidth * ImageHeight / 2

	// CharFileSize is the size of one char buffer
	CharFileSize = 512

	// LibrarySize is the number of template pages
	LibrarySize = 1000
)

// Simulator is a behavioral model of an R30x module. It keeps an image
// buffer, two char buffers and a template library in memory and answers
// commands the way the hardware does.
type Simulator struct {
	// Finger is the finger currently on the sensor; 0 means none
	Finger byte

	password [protocol.PasswordSize]byte
	params   protocol.Parameters
	image    []byte
	buffers  [3][]byte
	library  map[uint16][]byte

	uploading bool
	upload    bytes.Buffer
}

// NewSimulator returns a Device answering as a factory-fresh module with
// the given address and password, and the simulator behind it.
func NewSimulator(address [protocol.AddressSize]byte, password [protocol.PasswordSize]byte) (*Device, *Simulator) {
	sim := &Simulator{
		password: password,
		params: protocol.Parameters{
			SystemID:       0x0009,
			LibrarySize:    LibrarySize,
			SecurityLevel:  3,
			DeviceAddress:  address,
			PacketSizeCode: 2,
			BaudSetting:    6,
		},
		library: make(map[uint16][]byte),
	}
	dev := New(address)
	dev.Handle(sim.handle(dev))
	return dev, sim
}

// Stored returns the template stored at page, if any.
func (s *Simulator) Stored(page uint16) ([]byte, bool) {
	t, ok := s.library[page]
	return t, ok
}

// Image returns the current image buffer.
func (s *Simulator) Image() []byte {
	return s.image
}

func (s *Simulator) handle(dev *Device) Handler {
	ack := func(code byte, data ...byte) [][]byte {
		return [][]byte{dev.mustEncode(protocol.PacketAck, append([]byte{code}, data...))}
	}

	return func(f *protocol.Frame) [][]byte {
		switch f.PacketID {
		case protocol.PacketData, protocol.PacketEndOfData:
			return s.receive(f)
		case protocol.PacketCommand:
		default:
			return ack(protocol.CodeGenericError)
		}
		if len(f.Payload) == 0 {
			return ack(protocol.CodeGenericError)
		}

		args := f.Payload[1:]
		switch f.Payload[0] {
		case protocol.CmdVerifyPassword:
			if len(args) != protocol.PasswordSize {
				return ack(protocol.CodeGenericError)
			}
			if !bytes.Equal(args, s.password[:]) {
				return ack(protocol.CodeWrongPassword)
			}
			return ack(protocol.CodeSuccess)

		case protocol.CmdSetPassword:
			if len(args) != protocol.PasswordSize {
				return ack(protocol.CodeGenericError)
			}
			copy(s.password[:], args)
			return ack(protocol.CodeSuccess)

		case protocol.CmdSetParameter:
			if len(args) != 2 {
				return ack(protocol.CodeGenericError)
			}
			switch protocol.Parameter(args[0]) {
			case protocol.ParamBaudRate:
				s.params.BaudSetting = uint16(args[1])
			case protocol.ParamSecurityLevel:
				s.params.SecurityLevel = uint16(args[1])
			case protocol.ParamPacketLength:
				s.params.PacketSizeCode = uint16(args[1])
			default:
				return ack(protocol.CodeWrongRegisterNumber)
			}
			return ack(protocol.CodeSuccess)

		case protocol.CmdReadParameters:
			return ack(protocol.CodeSuccess, s.encodeParams()...)

		case protocol.CmdGenerateImage:
			if s.Finger == 0 {
				return ack(protocol.CodeFingerNotDetected)
			}
			s.image = fingerImage(s.Finger)
			return ack(protocol.CodeSuccess)

		case protocol.CmdDownloadImage:
			if s.image == nil {
				return ack(protocol.CodeFailedDownloadImage)
			}
			return append(ack(protocol.CodeSuccess), s.stream(dev, s.image)...)

		case protocol.CmdUploadImage:
			s.uploading = true
			s.upload.Reset()
			return ack(protocol.CodeSuccess)

		case protocol.CmdGenerateCharacteristics:
			if len(args) != 1 || (args[0] != protocol.CharBuffer1 && args[0] != protocol.CharBuffer2) {
				return ack(protocol.CodeGenericError)
			}
			if s.image == nil {
				return ack(protocol.CodeInvalidPrimaryImage)
			}
			s.buffers[args[0]] = charFile(s.image)
			return ack(protocol.CodeSuccess)

		case protocol.CmdGenerateTemplate:
			if s.buffers[1] == nil || !bytes.Equal(s.buffers[1], s.buffers[2]) {
				return ack(protocol.CodeCharacteristicsMismatch)
			}
			return ack(protocol.CodeSuccess)

		case protocol.CmdMatchTemplate:
			if s.buffers[1] == nil || !bytes.Equal(s.buffers[1], s.buffers[2]) {
				return ack(protocol.CodeUnmatchedTemplates)
			}
			return ack(protocol.CodeSuccess, 0x00, 0xC8)

		case protocol.CmdDownloadCharBuffer:
			if len(args) != 1 || args[0] < 1 || args[0] > 2 || s.buffers[args[0]] == nil {
				return ack(protocol.CodeTemplateDownloadError)
			}
			return append(ack(protocol.CodeSuccess), s.stream(dev, s.buffers[args[0]])...)

		case protocol.CmdStoreTemplate:
			if len(args) != 3 || args[0] < 1 || args[0] > 2 {
				return ack(protocol.CodeGenericError)
			}
			page := binary.BigEndian.Uint16(args[1:3])
			if page >= LibrarySize {
				return ack(protocol.CodeWrongPageID)
			}
			if s.buffers[args[0]] == nil {
				return ack(protocol.CodeFlashWriteError)
			}
			s.library[page] = append([]byte(nil), s.buffers[args[0]]...)
			return ack(protocol.CodeSuccess)

		case protocol.CmdDeleteTemplate:
			if len(args) != 4 {
				return ack(protocol.CodeGenericError)
			}
			start := binary.BigEndian.Uint16(args[0:2])
			count := binary.BigEndian.Uint16(args[2:4])
			if int(start)+int(count) > LibrarySize {
				return ack(protocol.CodeFailedDelete)
			}
			for p := start; p < start+count; p++ {
				delete(s.library, p)
			}
			return ack(protocol.CodeSuccess)

		case protocol.CmdFingerprintVerification:
			if len(args) != 5 {
				return ack(protocol.CodeGenericError)
			}
			if s.Finger == 0 {
				return ack(protocol.CodeVerySmallFingerprint)
			}
			s.image = fingerImage(s.Finger)
			probe := charFile(s.image)
			start := binary.BigEndian.Uint16(args[1:3])
			quantity := binary.BigEndian.Uint16(args[3:5])
			for p := int(start); p < int(start)+int(quantity) && p < LibrarySize; p++ {
				if t, ok := s.library[uint16(p)]; ok && bytes.Equal(t, probe) {
					return ack(protocol.CodeSuccess, byte(p>>8), byte(p), 0x00, 0xC8)
				}
			}
			return ack(protocol.CodeNoMatch, 0, 0, 0, 0)

		default:
			return ack(protocol.CodeGenericError)
		}
	}
}

// receive collects data packets of an image upload. The module sends no
// acknowledgement for data packets.
func (s *Simulator) receive(f *protocol.Frame) [][]byte {
	if !s.uploading {
		return nil
	}
	s.upload.Write(f.Payload)
	if f.PacketID == protocol.PacketEndOfData {
		s.uploading = false
		s.image = append([]byte(nil), s.upload.Bytes()...)
	}
	return nil
}

// stream splits data into packets of the configured packet size.
func (s *Simulator) stream(dev *Device, data []byte) [][]byte {
	size := s.params.PacketSize()
	if size == 0 {
		size = protocol.PacketSizes[len(protocol.PacketSizes)-1]
	}

	var frames [][]byte
	for len(data) > size {
		frames = append(frames, dev.mustEncode(protocol.PacketData, data[:size]))
		data = data[size:]
	}
	return append(frames, dev.mustEncode(protocol.PacketEndOfData, data))
}

func (s *Simulator) encodeParams() []byte {
	p := s.params
	b := make([]byte, 0, protocol.ReadParametersResponseSize)
	b = binary.BigEndian.AppendUint16(b, p.StatusRegister)
	b = binary.BigEndian.AppendUint16(b, p.SystemID)
	b = binary.BigEndian.AppendUint16(b, p.LibrarySize)
	b = binary.BigEndian.AppendUint16(b, p.SecurityLevel)
	b = append(b, p.DeviceAddress[:]...)
	b = binary.BigEndian.AppendUint16(b, p.PacketSizeCode)
	b = binary.BigEndian.AppendUint16(b, p.BaudSetting)
	return b
}

// fingerImage renders a deterministic ridge pattern for a finger.
func fingerImage(finger byte) []byte {
	img := make([]byte, ImageSize)
	for i := range img {
		row := i / (ImageWidth / 2)
		hi := byte((row/4+int(finger))%16) << 4
		lo := byte((row/4 + int(finger) + 8) % 16)
		img[i] = hi | lo
	}
	return img
}

// charFile derives a feature file by sampling the image.
func charFile(image []byte) []byte {
	c := make([]byte, CharFileSize)
	if len(image) == 0 {
		return c
	}
	step := len(image) / CharFileSize
	if step == 0 {
		step = 1
	}
	for i := range c {
		c[i] = image[(i*step)%len(image)]
	}
	return c
}
