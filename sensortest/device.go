// Package sensortest provides an in-memory R30x module for tests and demos.
//
// A Device is an io.ReadWriter that stands in for the serial port. Replies
// can be scripted up front with the Queue* methods, or produced on demand
// by a Handler such as the one installed by NewSimulator.
package sensortest

import (
	"bytes"
	"fmt"

	"github.com/moffa90/go-r307/protocol"
)

// Handler produces the reply frames for one frame written by the host.
type Handler func(f *protocol.Frame) [][]byte

// Device is an in-memory transport. Reads drain the queued reply bytes;
// once they run out, Read returns 0 bytes and no error, as a serial port
// does when its read timeout expires.
//
// Device is not safe for concurrent use.
type Device struct {
	codec   protocol.Codec
	pending bytes.Buffer
	written [][]byte
	handler Handler

	writeErr error
	readErr  error
}

// New returns a Device that talks to the given module address.
func New(address [protocol.AddressSize]byte) *Device {
	return &Device{codec: protocol.NewCodec(address)}
}

// Codec returns the codec the device encodes replies with.
func (d *Device) Codec() protocol.Codec {
	return d.codec
}

// Handle installs a handler that answers each written frame.
func (d *Device) Handle(h Handler) {
	d.handler = h
}

func (d *Device) Read(p []byte) (int, error) {
	if d.readErr != nil {
		return 0, d.readErr
	}
	if d.pending.Len() == 0 {
		return 0, nil
	}
	return d.pending.Read(p)
}

func (d *Device) Write(p []byte) (int, error) {
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	d.written = append(d.written, append([]byte(nil), p...))

	if d.handler != nil {
		f, err := d.codec.Decode(bytes.NewReader(p))
		if err != nil {
			return 0, fmt.Errorf("sensortest: host wrote an invalid frame: %w", err)
		}
		for _, reply := range d.handler(f) {
			d.pending.Write(reply)
		}
	}

	return len(p), nil
}

// QueueFrame queues an encoded frame for the host to read.
func (d *Device) QueueFrame(pid protocol.PacketID, payload []byte) {
	d.pending.Write(d.mustEncode(pid, payload))
}

// QueueAck queues an acknowledgement carrying code and data.
func (d *Device) QueueAck(code byte, data []byte) {
	d.QueueFrame(protocol.PacketAck, append([]byte{code}, data...))
}

// QueueRaw queues raw bytes, for corrupt or truncated replies.
func (d *Device) QueueRaw(b []byte) {
	d.pending.Write(b)
}

// SetWriteError makes every following Write fail with err.
func (d *Device) SetWriteError(err error) {
	d.writeErr = err
}

// SetReadError makes every following Read fail with err.
func (d *Device) SetReadError(err error) {
	d.readErr = err
}

// Pending returns the number of queued bytes not yet read by the host.
func (d *Device) Pending() int {
	return d.pending.Len()
}

// Writes returns every buffer the host has written, in order.
func (d *Device) Writes() [][]byte {
	return d.written
}

// Frames decodes every frame the host has written.
func (d *Device) Frames() ([]*protocol.Frame, error) {
	frames := make([]*protocol.Frame, 0, len(d.written))
	for i, w := range d.written {
		f, err := d.codec.Decode(bytes.NewReader(w))
		if err != nil {
			return nil, fmt.Errorf("write %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Reset clears queued replies, recorded writes and injected errors.
func (d *Device) Reset() {
	d.pending.Reset()
	d.written = nil
	d.readErr = nil
	d.writeErr = nil
}

func (d *Device) mustEncode(pid protocol.PacketID, payload []byte) []byte {
	frame, err := d.codec.Encode(pid, payload)
	if err != nil {
		panic(err)
	}
	return frame
}
