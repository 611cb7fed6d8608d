package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moffa90/go-r307/protocol"
)

// NewRegistry creates a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler exposing reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// DriverMetrics counts protocol traffic. It implements sensor.Observer.
type DriverMetrics struct {
	Frames          *prometheus.CounterVec   // labels: direction, packet
	FrameBytes      *prometheus.CounterVec   // labels: direction
	Commands        *prometheus.CounterVec   // labels: operation, outcome
	CommandDuration *prometheus.HistogramVec // labels: operation
}

// NewDriverMetrics registers and returns the driver metrics.
func NewDriverMetrics(reg prometheus.Registerer) *DriverMetrics {
	m := &DriverMetrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "r307_frames_total",
			Help: "Frames exchanged with the module.",
		}, []string{"direction", "packet"}),
		FrameBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "r307_frame_bytes_total",
			Help: "Bytes exchanged with the module, framing included.",
		}, []string{"direction"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "r307_commands_total",
			Help: "Completed operations by outcome.",
		}, []string{"operation", "outcome"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "r307_command_duration_seconds",
			Help:    "Operation latency, including data transfers.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10},
		}, []string{"operation"}),
	}
	reg.MustRegister(m.Frames, m.FrameBytes, m.Commands, m.CommandDuration)
	return m
}

func (m *DriverMetrics) FrameSent(pid protocol.PacketID, size int) {
	m.Frames.WithLabelValues("sent", pid.String()).Inc()
	m.FrameBytes.WithLabelValues("sent").Add(float64(size))
}

func (m *DriverMetrics) FrameReceived(pid protocol.PacketID, size int) {
	m.Frames.WithLabelValues("received", pid.String()).Inc()
	m.FrameBytes.WithLabelValues("received").Add(float64(size))
}

func (m *DriverMetrics) CommandDone(op protocol.Operation, err error, elapsed time.Duration) {
	m.Commands.WithLabelValues(op.String(), OutcomeLabel(err)).Inc()
	m.CommandDuration.WithLabelValues(op.String()).Observe(elapsed.Seconds())
}

// OutcomeLabel reduces an operation error to a low-cardinality label.
func OutcomeLabel(err error) string {
	if err == nil {
		return "success"
	}

	var devErr *protocol.DeviceError
	switch {
	case errors.As(err, &devErr):
		return strings.ReplaceAll(devErr.Outcome.String(), " ", "_")
	case protocol.IsValidationError(err):
		return "invalid_argument"
	case errors.Is(err, protocol.ErrTruncatedFrame):
		return "timeout"
	case protocol.IsFrameError(err):
		return "bad_frame"
	case errors.Is(err, protocol.ErrUnexpectedPacketType):
		return "unexpected_packet"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "io_error"
	}
}
