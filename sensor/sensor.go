package sensor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-r307/protocol"
)

// State is the session state of the driver.
type State int

const (
	// StateUninitialized is the state before a successful password check
	StateUninitialized State = iota

	// StatePasswordVerified is entered by a successful VerifyPassword
	StatePasswordVerified
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePasswordVerified:
		return "password verified"
	default:
		return fmt.Sprintf("state %d", int(s))
	}
}

// Sensor drives one fingerprint module over a byte stream.
//
// Every operation writes one command and blocks until its response (and
// any data packets) have been read. The Sensor assumes exclusive ownership
// of the device and is not safe for concurrent use.
type Sensor struct {
	device io.ReadWriter
	codec  protocol.Codec
	config Config
	state  State
}

// New creates a Sensor bound to device.
// The device must implement io.ReadWriter, typically an open serial port
// whose reads return after a bounded timeout.
//
// Example:
//
//	port, _ := serialport.Open("/dev/ttyUSB0", 57600, 3*time.Second)
//	s := sensor.New(port,
//	    sensor.WithPassword([4]byte{0, 0, 0, 0}),
//	    sensor.WithLogger(myLogger),
//	)
//	if err := s.Handshake(ctx); err != nil {
//	    log.Fatal(err)
//	}
func New(device io.ReadWriter, opts ...Option) *Sensor {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Sensor{
		device: device,
		codec:  protocol.NewCodec(cfg.Address),
		config: cfg,
	}
}

// Config returns a copy of the session configuration.
func (s *Sensor) Config() Config {
	return s.config
}

// State returns the current session state.
func (s *Sensor) State() State {
	return s.state
}

// SendCommand writes cmd as a command frame and reads exactly one response.
// It returns the confirmation code and the data that follows it; the code
// is not interpreted here.
func (s *Sensor) SendCommand(ctx context.Context, cmd protocol.Command) (code byte, data []byte, err error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	if err := s.writeFrame(protocol.PacketCommand, cmd.Payload()); err != nil {
		return 0, nil, fmt.Errorf("write command: %w", err)
	}

	f, err := s.readFrame()
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	if s.config.StrictPacketID && f.PacketID != protocol.PacketAck {
		return 0, nil, &protocol.PacketTypeError{Want: protocol.PacketAck, Got: f.PacketID}
	}

	code, data, err = protocol.SplitConfirmation(f.Payload)
	if err != nil {
		return 0, nil, err
	}

	s.logDebug("command response",
		"command", fmt.Sprintf("0x%02X", cmd.Code),
		"code", fmt.Sprintf("0x%02X", code),
		"data_len", len(data),
	)

	return code, data, nil
}

// Stream returns a reader over the data packets that follow a transfer
// command. Each Stream reads fresh frames from the device; nothing is
// buffered between streams.
func (s *Sensor) Stream() *Stream {
	return &Stream{sensor: s}
}

// ReceiveStream reads data packets until the end-of-data packet and
// returns their payloads concatenated in arrival order. Any failure
// discards what was received so far.
func (s *Sensor) ReceiveStream() ([]byte, error) {
	return s.receiveStream(protocol.OpUnknown)
}

func (s *Sensor) receiveStream(op protocol.Operation) ([]byte, error) {
	startTime := time.Now()
	stream := s.Stream()

	var buf []byte
	for stream.Next() {
		buf = append(buf, stream.Chunk()...)
		s.reportProgress(Progress{
			Operation:   op,
			Packets:     stream.Packets(),
			Bytes:       len(buf),
			Done:        stream.Done(),
			ElapsedTime: time.Since(startTime),
		})
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("receive packet %d: %w", stream.Packets()+1, err)
	}

	s.logDebug("stream received",
		"packets", stream.Packets(),
		"bytes", len(buf),
		"elapsed", time.Since(startTime).String(),
	)

	return buf, nil
}

// sendData writes data as a sequence of data packets of the configured
// packet size, the last one marked end-of-data.
func (s *Sensor) sendData(op protocol.Operation, data []byte) error {
	startTime := time.Now()
	chunkSize := s.config.PacketSize
	sent := 0
	packets := 0

	for {
		pid := protocol.PacketData
		chunk := data
		if len(chunk) > chunkSize {
			chunk = chunk[:chunkSize]
		} else {
			pid = protocol.PacketEndOfData
		}

		if err := s.writeFrame(pid, chunk); err != nil {
			return fmt.Errorf("send packet %d: %w", packets+1, err)
		}

		packets++
		sent += len(chunk)
		data = data[len(chunk):]

		s.reportProgress(Progress{
			Operation:   op,
			Packets:     packets,
			Bytes:       sent,
			Done:        pid == protocol.PacketEndOfData,
			ElapsedTime: time.Since(startTime),
		})

		if pid == protocol.PacketEndOfData {
			return nil
		}
	}
}

func (s *Sensor) writeFrame(pid protocol.PacketID, payload []byte) error {
	frame, err := s.codec.Encode(pid, payload)
	if err != nil {
		return err
	}
	if _, err := s.device.Write(frame); err != nil {
		return err
	}
	if s.config.Observer != nil {
		s.config.Observer.FrameSent(pid, len(frame))
	}
	return nil
}

func (s *Sensor) readFrame() (*protocol.Frame, error) {
	f, err := s.codec.Decode(s.device)
	if err != nil {
		return nil, err
	}
	if s.config.Observer != nil {
		s.config.Observer.FrameReceived(f.PacketID, protocol.MinFrameSize+len(f.Payload))
	}
	return f, nil
}

// reportProgress calls the progress callback if configured.
func (s *Sensor) reportProgress(progress Progress) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (s *Sensor) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (s *Sensor) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (s *Sensor) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}
