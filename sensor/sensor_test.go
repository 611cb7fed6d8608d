package sensor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-r307/protocol"
	"github.com/moffa90/go-r307/sensortest"
)

// MockLogger records messages for assertions.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

// MockObserver records observer events.
type MockObserver struct {
	mu       sync.Mutex
	sent     []protocol.PacketID
	received []protocol.PacketID
	done     map[protocol.Operation][]error
}

func (o *MockObserver) FrameSent(pid protocol.PacketID, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, pid)
}

func (o *MockObserver) FrameReceived(pid protocol.PacketID, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received = append(o.received, pid)
}

func (o *MockObserver) CommandDone(op protocol.Operation, err error, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		o.done = make(map[protocol.Operation][]error)
	}
	o.done[op] = append(o.done[op], err)
}

func newTestSensor(t *testing.T, opts ...Option) (*Sensor, *sensortest.Device) {
	t.Helper()
	device := sensortest.New(protocol.DefaultAddress)
	opts = append([]Option{WithSettleDelay(0)}, opts...)
	return New(device, opts...), device
}

func TestNew(t *testing.T) {
	device := sensortest.New(protocol.DefaultAddress)

	s := New(device)
	require.NotNil(t, s)
	assert.Equal(t, StateUninitialized, s.State())

	cfg := s.Config()
	assert.Equal(t, protocol.DefaultAddress, cfg.Address)
	assert.Equal(t, protocol.DefaultPassword, cfg.Password)
	assert.Equal(t, DefaultSettleDelay, cfg.SettleDelay)
	assert.Equal(t, 128, cfg.PacketSize)
	assert.True(t, cfg.StrictPacketID)

	s = New(device,
		WithAddress([4]byte{0, 0, 0, 1}),
		WithPassword([4]byte{1, 2, 3, 4}),
		WithLogger(&MockLogger{}),
		WithObserver(&MockObserver{}),
		WithSettleDelay(time.Second),
		WithPacketSize(64),
		WithStrictPacketID(false),
		WithProgressCallback(func(Progress) {}),
	)
	cfg = s.Config()
	assert.Equal(t, [4]byte{0, 0, 0, 1}, cfg.Address)
	assert.Equal(t, [4]byte{1, 2, 3, 4}, cfg.Password)
	assert.Equal(t, time.Second, cfg.SettleDelay)
	assert.Equal(t, 64, cfg.PacketSize)
	assert.False(t, cfg.StrictPacketID)
}

func TestNewIgnoresInvalidOptions(t *testing.T) {
	s := New(sensortest.New(protocol.DefaultAddress),
		WithPacketSize(100),
		WithSettleDelay(-time.Second),
	)
	assert.Equal(t, 128, s.Config().PacketSize)
	assert.Equal(t, DefaultSettleDelay, s.Config().SettleDelay)
}

func TestNewPanicsOnNilDevice(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestSendCommand(t *testing.T) {
	s, device := newTestSensor(t)
	device.QueueAck(protocol.CodeSuccess, []byte{0xAB, 0xCD})

	code, data, err := s.SendCommand(context.Background(), protocol.ReadParametersCmd())
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.CodeSuccess), code)
	assert.Equal(t, []byte{0xAB, 0xCD}, data)

	frames, err := device.Frames()
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, protocol.PacketCommand, frames[0].PacketID)
	assert.Equal(t, []byte{protocol.CmdReadParameters}, frames[0].Payload)
}

func TestSendCommandPacketTypeStrictness(t *testing.T) {
	t.Run("strict rejects data packet", func(t *testing.T) {
		s, device := newTestSensor(t)
		device.QueueFrame(protocol.PacketData, []byte{protocol.CodeSuccess})

		_, _, err := s.SendCommand(context.Background(), protocol.GenerateImageCmd())
		require.Error(t, err)
		assert.ErrorIs(t, err, protocol.ErrUnexpectedPacketType)

		var pte *protocol.PacketTypeError
		require.True(t, errors.As(err, &pte))
		assert.Equal(t, protocol.PacketData, pte.Got)
		assert.Equal(t, protocol.PacketAck, pte.Want)
	})

	t.Run("lenient accepts data packet", func(t *testing.T) {
		s, device := newTestSensor(t, WithStrictPacketID(false))
		device.QueueFrame(protocol.PacketData, []byte{protocol.CodeSuccess})

		code, _, err := s.SendCommand(context.Background(), protocol.GenerateImageCmd())
		require.NoError(t, err)
		assert.Equal(t, byte(protocol.CodeSuccess), code)
	})
}

func TestSendCommandErrors(t *testing.T) {
	t.Run("write error", func(t *testing.T) {
		s, device := newTestSensor(t)
		device.SetWriteError(errors.New("port closed"))

		_, _, err := s.SendCommand(context.Background(), protocol.GenerateImageCmd())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write command")
	})

	t.Run("no response", func(t *testing.T) {
		s, _ := newTestSensor(t)

		_, _, err := s.SendCommand(context.Background(), protocol.GenerateImageCmd())
		assert.ErrorIs(t, err, protocol.ErrTruncatedFrame)
	})

	t.Run("corrupt response", func(t *testing.T) {
		s, device := newTestSensor(t)
		frame, err := device.Codec().Encode(protocol.PacketAck, []byte{protocol.CodeSuccess})
		require.NoError(t, err)
		frame[len(frame)-1] ^= 0xFF
		device.QueueRaw(frame)

		_, _, err = s.SendCommand(context.Background(), protocol.GenerateImageCmd())
		assert.ErrorIs(t, err, protocol.ErrChecksumMismatch)
	})

	t.Run("foreign address", func(t *testing.T) {
		s, device := newTestSensor(t)
		other := sensortest.New([4]byte{0x01, 0x02, 0x03, 0x04})
		other.QueueAck(protocol.CodeSuccess, nil)
		buf := make([]byte, other.Pending())
		_, _ = other.Read(buf)
		device.QueueRaw(buf)

		_, _, err := s.SendCommand(context.Background(), protocol.GenerateImageCmd())
		assert.ErrorIs(t, err, protocol.ErrInvalidAddress)
	})

	t.Run("empty acknowledgement", func(t *testing.T) {
		s, device := newTestSensor(t)
		device.QueueFrame(protocol.PacketAck, nil)

		_, _, err := s.SendCommand(context.Background(), protocol.GenerateImageCmd())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing confirmation code")
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		s, device := newTestSensor(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := s.SendCommand(ctx, protocol.GenerateImageCmd())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, device.Writes())
	})
}

func TestReceiveStream(t *testing.T) {
	s, device := newTestSensor(t)
	device.QueueFrame(protocol.PacketData, []byte("AA"))
	device.QueueFrame(protocol.PacketData, []byte("BB"))
	device.QueueFrame(protocol.PacketEndOfData, []byte("CC"))

	data, err := s.ReceiveStream()
	require.NoError(t, err)
	assert.Equal(t, []byte("AABBCC"), data)
	assert.Equal(t, 0, device.Pending())

	// Nothing is carried over into the next transfer.
	data, err = s.ReceiveStream()
	assert.Nil(t, data)
	assert.ErrorIs(t, err, protocol.ErrTruncatedFrame)
}

func TestReceiveStreamStopsAtEndOfData(t *testing.T) {
	s, device := newTestSensor(t)
	device.QueueFrame(protocol.PacketEndOfData, []byte("only"))
	device.QueueAck(protocol.CodeSuccess, nil)

	data, err := s.ReceiveStream()
	require.NoError(t, err)
	assert.Equal(t, []byte("only"), data)
	assert.NotZero(t, device.Pending(), "frames after end-of-data must stay unread")
}

func TestReceiveStreamDiscardsPartialData(t *testing.T) {
	s, device := newTestSensor(t)
	device.QueueFrame(protocol.PacketData, []byte("AA"))
	frame, err := device.Codec().Encode(protocol.PacketData, []byte("BB"))
	require.NoError(t, err)
	device.QueueRaw(frame[:len(frame)-3])

	data, err := s.ReceiveStream()
	assert.Nil(t, data)
	assert.ErrorIs(t, err, protocol.ErrTruncatedFrame)
	assert.Contains(t, err.Error(), "receive packet 2")
}

func TestReceiveStreamPacketType(t *testing.T) {
	t.Run("strict rejects acknowledgement mid-stream", func(t *testing.T) {
		s, device := newTestSensor(t)
		device.QueueFrame(protocol.PacketData, []byte("AA"))
		device.QueueAck(protocol.CodeSuccess, nil)

		_, err := s.ReceiveStream()
		assert.ErrorIs(t, err, protocol.ErrUnexpectedPacketType)
	})

	t.Run("lenient treats it as data", func(t *testing.T) {
		s, device := newTestSensor(t, WithStrictPacketID(false))
		device.QueueFrame(protocol.PacketAck, []byte("AA"))
		device.QueueFrame(protocol.PacketEndOfData, []byte("BB"))

		data, err := s.ReceiveStream()
		require.NoError(t, err)
		assert.Equal(t, []byte("AABB"), data)
	})
}

func TestStreamIterator(t *testing.T) {
	s, device := newTestSensor(t)
	device.QueueFrame(protocol.PacketData, []byte{1})
	device.QueueFrame(protocol.PacketEndOfData, []byte{2})

	st := s.Stream()
	var chunks [][]byte
	for st.Next() {
		chunks = append(chunks, st.Chunk())
	}
	require.NoError(t, st.Err())
	assert.Equal(t, [][]byte{{1}, {2}}, chunks)
	assert.Equal(t, 2, st.Packets())
	assert.True(t, st.Done())

	// A finished stream does not read again.
	device.QueueFrame(protocol.PacketData, []byte{3})
	assert.False(t, st.Next())
	assert.NotZero(t, device.Pending())
}

func TestObserverAndLogger(t *testing.T) {
	logger := &MockLogger{}
	observer := &MockObserver{}
	s, device := newTestSensor(t, WithLogger(logger), WithObserver(observer))

	device.QueueAck(protocol.CodeSuccess, nil)
	require.NoError(t, s.Handshake(context.Background()))

	device.QueueAck(protocol.CodeGenericError, nil)
	require.Error(t, s.GenerateTemplate(context.Background()))

	assert.Equal(t, []protocol.PacketID{protocol.PacketCommand, protocol.PacketCommand}, observer.sent)
	assert.Equal(t, []protocol.PacketID{protocol.PacketAck, protocol.PacketAck}, observer.received)
	assert.Equal(t, []error{nil}, observer.done[protocol.OpVerifyPassword])
	require.Len(t, observer.done[protocol.OpGenerateTemplate], 1)
	assert.ErrorIs(t, observer.done[protocol.OpGenerateTemplate][0], protocol.GenericError)

	assert.Contains(t, logger.infoMsgs, "password verified")
	assert.Contains(t, logger.errorMsgs, "operation failed")
	assert.Contains(t, logger.debugMsgs, "command response")
}
