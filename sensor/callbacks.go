package sensor

import (
	"time"

	"github.com/moffa90/go-r307/protocol"
)

// Progress describes a data transfer in flight.
// Passed to ProgressCallback once per packet.
type Progress struct {
	// Operation is the transfer being performed
	Operation protocol.Operation

	// Packets is the number of packets transferred so far
	Packets int

	// Bytes is the number of payload bytes transferred so far
	Bytes int

	// Done is set on the last packet
	Done bool

	// ElapsedTime is the time elapsed since the transfer started
	ElapsedTime time.Duration
}

// ProgressCallback is called for each packet of an image or char buffer
// transfer. Implementations should return quickly; the transfer is blocked
// while the callback runs.
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the sensor.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	s := sensor.New(port, sensor.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Observer receives protocol events, typically to export metrics.
type Observer interface {
	// FrameSent is called after a frame has been written
	FrameSent(pid protocol.PacketID, size int)

	// FrameReceived is called after a frame has been decoded and validated
	FrameReceived(pid protocol.PacketID, size int)

	// CommandDone is called when an operation finishes, err is nil on success
	CommandDone(op protocol.Operation, err error, elapsed time.Duration)
}
