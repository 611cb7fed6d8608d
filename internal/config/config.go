package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moffa90/go-r307/protocol"
	"github.com/moffa90/go-r307/serialport"
)

// EnvPrefix prefixes every environment override, e.g. R307_SERIAL_PORT.
const EnvPrefix = "R307"

// SerialConfig describes the serial line.
type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

// DeviceConfig describes the module session.
type DeviceConfig struct {
	// Address and Password are 8 hex digits, optionally prefixed with 0x
	Address        string        `mapstructure:"address"`
	Password       string        `mapstructure:"password"`
	SettleDelay    time.Duration `mapstructure:"settleDelay"`
	StrictPacketID bool          `mapstructure:"strictPacketID"`
	PacketSize     int           `mapstructure:"packetSize"`
}

// LumberjackConfig configures the rotating log file.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets the log level and outputs.
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// Config is the top-level configuration.
type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Device  DeviceConfig  `mapstructure:"device"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"port":         "serial.port",
	"baud":         "serial.baud",
	"read-timeout": "serial.readTimeout",
	"address":      "device.address",
	"password":     "device.password",
	"settle-delay": "device.settleDelay",
	"strict":       "device.strictPacketID",
	"packet-size":  "device.packetSize",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"log-file":     "logging.file.filename",
	"metrics-addr": "metrics.addr",
}

// RegisterFlags defines the command line flags Load understands on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("port", "p", "", "serial port the module is connected to")
	fs.IntP("baud", "b", serialport.DefaultBaudRate, "serial bit rate")
	fs.Duration("read-timeout", serialport.DefaultReadTimeout, "timeout for a single serial read")
	fs.String("address", "FFFFFFFF", "module address in hex")
	fs.String("password", "00000000", "module password in hex")
	fs.Duration("settle-delay", 500*time.Millisecond, "wait before each image capture")
	fs.Bool("strict", true, "reject responses with an unexpected packet identifier")
	fs.Int("packet-size", 128, "data packet size used for uploads")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "console", "log format: console or json")
	fs.String("log-file", "", "also write logs to this file, rotated")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
}

// Load reads configuration from a YAML/TOML/JSON file, R307_* environment
// variables and flags, in increasing priority. If path is empty, R307_CONFIG
// is consulted, then r307.yaml in the working directory and ./configs; a
// missing default file is not an error.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("r307")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud", serialport.DefaultBaudRate)
	v.SetDefault("serial.readTimeout", serialport.DefaultReadTimeout.String())

	v.SetDefault("device.address", "FFFFFFFF")
	v.SetDefault("device.password", "00000000")
	v.SetDefault("device.settleDelay", "500ms")
	v.SetDefault("device.strictPacketID", true)
	v.SetDefault("device.packetSize", 128)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 20)
	v.SetDefault("logging.file.maxBackups", 5)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks the values that can be checked without hardware.
func (c *Config) Validate() error {
	if err := serialport.ValidateBaudRate(c.Serial.Baud); err != nil {
		return err
	}
	if _, err := c.Device.AddressBytes(); err != nil {
		return err
	}
	if _, err := c.Device.PasswordBytes(); err != nil {
		return err
	}
	for _, size := range protocol.PacketSizes {
		if c.Device.PacketSize == size {
			return nil
		}
	}
	return &protocol.ValidationError{
		Field:  "packet size",
		Reason: fmt.Sprintf("%d is not one of %v", c.Device.PacketSize, protocol.PacketSizes),
	}
}

// AddressBytes decodes the module address.
func (d DeviceConfig) AddressBytes() ([protocol.AddressSize]byte, error) {
	return parseWord("address", d.Address)
}

// PasswordBytes decodes the module password.
func (d DeviceConfig) PasswordBytes() ([protocol.PasswordSize]byte, error) {
	return parseWord("password", d.Password)
}

// ParseWord decodes 8 hex digits, optionally prefixed with 0x, into 4 bytes.
func ParseWord(s string) ([4]byte, error) {
	return parseWord("value", s)
}

func parseWord(field, s string) ([4]byte, error) {
	var w [4]byte
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(w) {
		return w, &protocol.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not 8 hex digits", s)}
	}
	copy(w[:], b)
	return w, nil
}
