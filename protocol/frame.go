package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame is one decoded packet.
type Frame struct {
	// Address is the module address carried by the frame
	Address [AddressSize]byte

	// PacketID identifies the frame type
	PacketID PacketID

	// Payload is the frame content between the length and checksum fields
	Payload []byte

	// Checksum is the checksum transmitted with the frame
	Checksum uint16
}

// Length returns the value of the frame's length field.
func (f *Frame) Length() uint16 {
	return frameLength(f.Payload)
}

// Codec encodes and decodes frames for one module address.
// The zero value is not useful; use NewCodec.
type Codec struct {
	address [AddressSize]byte
}

// NewCodec returns a Codec bound to the given module address.
func NewCodec(address [AddressSize]byte) Codec {
	return Codec{address: address}
}

// Address returns the module address the codec was created with.
func (c Codec) Address() [AddressSize]byte {
	return c.address
}

// Encode serializes a frame.
//
// Frame structure:
//
//	[HEADER(2)][ADDR(4)][PID][LEN_H][LEN_L][PAYLOAD...][SUM_H][SUM_L]
//
// LEN counts the payload plus the two checksum bytes. All multi-byte
// fields are big-endian.
func (c Codec) Encode(pid PacketID, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload length %d exceeds maximum %d bytes", len(payload), MaxPayloadSize)
	}

	length := frameLength(payload)
	frame := make([]byte, 0, MinFrameSize+len(payload))

	frame = binary.BigEndian.AppendUint16(frame, Header)
	frame = append(frame, c.address[:]...)
	frame = append(frame, byte(pid))
	frame = binary.BigEndian.AppendUint16(frame, length)
	frame = append(frame, payload...)
	frame = binary.BigEndian.AppendUint16(frame, Checksum(pid, length, payload))

	return frame, nil
}

// Decode reads exactly one frame from r and validates it.
//
// Header, address and checksum are checked in wire order; the first
// mismatch aborts the read with a *FrameError. A source that runs dry
// before the frame is complete yields ErrTruncatedFrame, never a short
// payload.
func (c Codec) Decode(r io.Reader) (*Frame, error) {
	var head [HeaderSize + AddressSize + 1 + LengthSize]byte

	if err := readExact(r, head[0:HeaderSize], "header"); err != nil {
		return nil, err
	}
	if got := binary.BigEndian.Uint16(head[0:HeaderSize]); got != Header {
		return nil, &FrameError{
			Kind:   ErrInvalidHeader,
			Field:  "header",
			Detail: fmt.Sprintf("got 0x%04X, expected 0x%04X", got, Header),
		}
	}

	addr := head[HeaderSize : HeaderSize+AddressSize]
	if err := readExact(r, addr, "address"); err != nil {
		return nil, err
	}
	f := &Frame{}
	copy(f.Address[:], addr)
	if f.Address != c.address {
		return nil, &FrameError{
			Kind:   ErrInvalidAddress,
			Field:  "address",
			Detail: fmt.Sprintf("got %X, expected %X", f.Address[:], c.address[:]),
		}
	}

	rest := head[HeaderSize+AddressSize:]
	if err := readExact(r, rest, "packet id and length"); err != nil {
		return nil, err
	}
	f.PacketID = PacketID(rest[0])
	length := binary.BigEndian.Uint16(rest[1:])
	if length < ChecksumSize {
		return nil, &FrameError{
			Kind:   ErrTruncatedFrame,
			Field:  "length",
			Detail: fmt.Sprintf("length %d leaves no room for checksum", length),
		}
	}

	f.Payload = make([]byte, int(length)-ChecksumSize)
	if err := readExact(r, f.Payload, "payload"); err != nil {
		return nil, err
	}

	var sum [ChecksumSize]byte
	if err := readExact(r, sum[:], "checksum"); err != nil {
		return nil, err
	}
	f.Checksum = binary.BigEndian.Uint16(sum[:])

	if want := Checksum(f.PacketID, length, f.Payload); f.Checksum != want {
		return nil, &FrameError{
			Kind:   ErrChecksumMismatch,
			Field:  "checksum",
			Detail: fmt.Sprintf("got 0x%04X, computed 0x%04X", f.Checksum, want),
		}
	}

	return f, nil
}

// readExact fills buf from r.
//
// Serial ports report an expired read timeout as a zero-byte read with a
// nil error, so a read that makes no progress ends the frame as truncated
// instead of spinning. EOF and other read errors also surface as truncation,
// with the underlying error kept in the detail.
func readExact(r io.Reader, buf []byte, field string) error {
	got := 0
	for got < len(buf) {
		n, err := r.Read(buf[got:])
		got += n
		if got == len(buf) {
			return nil
		}
		if err != nil {
			return &FrameError{
				Kind:   ErrTruncatedFrame,
				Field:  field,
				Detail: fmt.Sprintf("got %d of %d bytes: %v", got, len(buf), err),
			}
		}
		if n == 0 {
			return &FrameError{
				Kind:   ErrTruncatedFrame,
				Field:  field,
				Detail: fmt.Sprintf("got %d of %d bytes before read timeout", got, len(buf)),
			}
		}
	}
	return nil
}
