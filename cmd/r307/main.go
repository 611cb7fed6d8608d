// Command r307 drives an R30x fingerprint module from the command line.
//
//	r307 --port /dev/ttyUSB0 verify
//	r307 --port /dev/ttyUSB0 enroll 5
//	r307 --port /dev/ttyUSB0 search
//	r307 --simulate capture finger.png
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/moffa90/go-r307/internal/config"
	"github.com/moffa90/go-r307/internal/logging"
	"github.com/moffa90/go-r307/internal/metrics"
	"github.com/moffa90/go-r307/protocol"
	"github.com/moffa90/go-r307/sensor"
	"github.com/moffa90/go-r307/sensortest"
	"github.com/moffa90/go-r307/serialport"
)

// errNoMatch makes the process exit non-zero without an error message.
var errNoMatch = errors.New("no match")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errNoMatch):
		os.Exit(1)
	case errors.Is(err, pflag.ErrHelp):
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "r307: %v\n", err)
		os.Exit(2)
	}
}

func usage(fs *pflag.FlagSet, w io.Writer) func() {
	return func() {
		fmt.Fprintf(w, "usage: r307 [flags] <command> [args]\n\ncommands:\n")
		for _, c := range commands {
			fmt.Fprintf(w, "  %-28s %s\n", c.name+" "+c.args, c.help)
		}
		fmt.Fprintf(w, "\nflags:\n%s", fs.FlagUsages())
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("r307", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	configPath := fs.StringP("config", "c", "", "configuration file")
	simulate := fs.Bool("simulate", false, "talk to a factory-fresh in-memory module instead of a serial port")
	simFinger := fs.Uint8("sim-finger", 1, "finger placed on the simulated module, 0 for none")
	wait := fs.Duration("wait", 10*time.Second, "how long to wait for a finger")
	fs.Usage = usage(fs, os.Stderr)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		return err
	}

	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("session", uuid.NewString()))

	name := fs.Arg(0)
	if name == "ports" {
		return listPorts(stdout)
	}

	device, closeDevice, err := openDevice(cfg, *simulate, *simFinger)
	if err != nil {
		return err
	}
	defer closeDevice()

	opts, err := sensorOptions(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		opts = append(opts, sensor.WithObserver(metrics.NewDriverMetrics(reg)))
		shutdown := serveMetrics(cfg.Metrics, reg, logger)
		defer shutdown()
	}

	a := &app{
		sensor: sensor.New(device, opts...),
		logger: logger,
		out:    stdout,
		wait:   *wait,
	}
	return a.dispatch(ctx, name, fs.Args()[1:])
}

func openDevice(cfg *config.Config, simulate bool, finger uint8) (io.ReadWriter, func(), error) {
	addr, err := cfg.Device.AddressBytes()
	if err != nil {
		return nil, nil, err
	}

	if simulate {
		device, sim := sensortest.NewSimulator(addr, protocol.DefaultPassword)
		sim.Finger = finger
		return device, func() {}, nil
	}

	if cfg.Serial.Port == "" {
		return nil, nil, errors.New("no serial port configured, use --port or R307_SERIAL_PORT")
	}
	port, err := serialport.Open(cfg.Serial.Port, cfg.Serial.Baud, cfg.Serial.ReadTimeout)
	if err != nil {
		return nil, nil, err
	}
	return port, func() { _ = port.Close() }, nil
}

func sensorOptions(cfg *config.Config, logger *zap.Logger) ([]sensor.Option, error) {
	addr, err := cfg.Device.AddressBytes()
	if err != nil {
		return nil, err
	}
	password, err := cfg.Device.PasswordBytes()
	if err != nil {
		return nil, err
	}

	return []sensor.Option{
		sensor.WithAddress(addr),
		sensor.WithPassword(password),
		sensor.WithSettleDelay(cfg.Device.SettleDelay),
		sensor.WithPacketSize(cfg.Device.PacketSize),
		sensor.WithStrictPacketID(cfg.Device.StrictPacketID),
		sensor.WithLogger(logging.Sensor(logger)),
		sensor.WithProgressCallback(func(p sensor.Progress) {
			if p.Done {
				logger.Debug("transfer complete",
					zap.String("operation", p.Operation.String()),
					zap.Int("packets", p.Packets),
					zap.Int("bytes", p.Bytes),
					zap.Duration("elapsed", p.ElapsedTime),
				)
			}
		}),
	}, nil
}

// serveMetrics exposes reg over HTTP until the returned function is called.
func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler(reg))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func listPorts(w io.Writer) error {
	ports, err := serialport.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}
