package sensor

import (
	"time"

	"github.com/moffa90/go-r307/protocol"
)

// Config holds the sensor session configuration.
// It is fixed when the Sensor is created.
type Config struct {
	// Address is the module address every frame must carry
	Address [protocol.AddressSize]byte

	// Password is the module password used by Handshake
	Password [protocol.PasswordSize]byte

	// ProgressCallback is called for every packet of a data transfer (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Observer receives frame and command events (optional)
	Observer Observer

	// SettleDelay is the pause before an image capture command
	SettleDelay time.Duration

	// PacketSize is the data packet size used when uploading to the module.
	// It must match the module's packet length setting.
	PacketSize int

	// StrictPacketID rejects command responses that are not acknowledgements
	StrictPacketID bool
}

// DefaultSettleDelay is the pause the sensor needs before a capture is meaningful.
const DefaultSettleDelay = 500 * time.Millisecond

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Address:        protocol.DefaultAddress,
		Password:       protocol.DefaultPassword,
		SettleDelay:    DefaultSettleDelay,
		PacketSize:     protocol.PacketSizes[2], // factory packet length code 2
		StrictPacketID: true,
	}
}

// Option is a functional option for configuring the Sensor.
type Option func(*Config)

// WithAddress sets the module address.
//
// Example:
//
//	s := sensor.New(port, sensor.WithAddress([4]byte{0x00, 0x00, 0x00, 0x01}))
func WithAddress(address [protocol.AddressSize]byte) Option {
	return func(c *Config) {
		c.Address = address
	}
}

// WithPassword sets the password Handshake verifies.
func WithPassword(password [protocol.PasswordSize]byte) Option {
	return func(c *Config) {
		c.Password = password
	}
}

// WithProgressCallback sets a callback function to track data transfers.
//
// Example:
//
//	s := sensor.New(port,
//	    sensor.WithProgressCallback(func(p sensor.Progress) {
//	        fmt.Printf("%s: %d packets, %d bytes\n", p.Operation, p.Packets, p.Bytes)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the sensor operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithObserver sets an observer notified of frames and completed commands.
func WithObserver(observer Observer) Option {
	return func(c *Config) {
		c.Observer = observer
	}
}

// WithSettleDelay sets the pause before image capture.
// Negative values are ignored.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SettleDelay = d
		}
	}
}

// WithPacketSize sets the data packet size for uploads.
// Only the sizes listed in protocol.PacketSizes are accepted.
func WithPacketSize(size int) Option {
	return func(c *Config) {
		for _, s := range protocol.PacketSizes {
			if s == size {
				c.PacketSize = size
				return
			}
		}
	}
}

// WithStrictPacketID enables or disables packet identifier checks on
// command responses. Default is true. When disabled, any response frame
// is accepted as the acknowledgement of a command, and any non-terminal
// frame is accepted as data during a transfer.
func WithStrictPacketID(strict bool) Option {
	return func(c *Config) {
		c.StrictPacketID = strict
	}
}
