// Package sensor provides a high-level driver for R30x fingerprint modules.
//
// # Overview
//
// A Sensor owns one byte stream to the module and exposes the module's
// operations as blocking method calls:
//   - Password handshake and password change
//   - Image capture, image download and upload
//   - Feature extraction into char buffers 1 and 2
//   - Template generation, storage, deletion and matching
//   - One-step capture and library search
//   - System parameter read and write
//
// # Basic Usage
//
//	port, err := serialport.Open("/dev/ttyUSB0", 57600, 3*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	s := sensor.New(port)
//	if err := s.Handshake(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	match, err := s.FingerprintVerification(ctx, 1, 0, 1000)
//	switch {
//	case errors.Is(err, protocol.NoMatch):
//	    fmt.Println("unknown finger")
//	case err != nil:
//	    log.Fatal(err)
//	default:
//	    fmt.Printf("page %d, score %d\n", match.PageID, match.Score)
//	}
//
// # Configuration Options
//
//	s := sensor.New(port,
//	    sensor.WithAddress([4]byte{0xFF, 0xFF, 0xFF, 0xFF}),
//	    sensor.WithPassword([4]byte{0x00, 0x00, 0x00, 0x00}),
//	    sensor.WithLogger(myLogger),
//	    sensor.WithObserver(myMetrics),
//	    sensor.WithSettleDelay(500*time.Millisecond),
//	    sensor.WithPacketSize(128),
//	    sensor.WithStrictPacketID(true),
//	)
//
// # Error Handling
//
// Every failure aborts the operation and is returned to the caller. The
// driver never retries. Errors are one of:
//   - *protocol.ValidationError: an argument was rejected before any I/O
//   - *protocol.FrameError: a response frame failed header, address or
//     checksum validation, or ended early
//   - *protocol.PacketTypeError: a response had the wrong packet identifier
//   - *protocol.DeviceError: the module returned a failure confirmation code
//
// After a failed transfer, any bytes already received are discarded.
//
// # Hardware Independence
//
// The Sensor only needs an io.ReadWriter. Package serialport opens a real
// serial port; package sensortest provides an in-memory module for tests.
// Reads should return after a bounded timeout: a read that returns no data
// ends the current frame as truncated.
package sensor
