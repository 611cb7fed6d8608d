package sensor

import "github.com/moffa90/go-r307/protocol"

// Stream iterates over the data packets of one transfer. It is finite and
// cannot be restarted: iteration stops after the end-of-data packet or at
// the first error.
//
//	st := s.Stream()
//	for st.Next() {
//	    buf = append(buf, st.Chunk()...)
//	}
//	if err := st.Err(); err != nil {
//	    // discard buf
//	}
type Stream struct {
	sensor  *Sensor
	chunk   []byte
	packets int
	done    bool
	err     error
}

// Next reads the next packet. It returns false once the end-of-data
// packet has been consumed or a read failed.
func (st *Stream) Next() bool {
	if st.done || st.err != nil {
		return false
	}

	f, err := st.sensor.readFrame()
	if err != nil {
		st.err = err
		st.chunk = nil
		return false
	}

	switch f.PacketID {
	case protocol.PacketEndOfData:
		st.done = true
	case protocol.PacketData:
	default:
		if st.sensor.config.StrictPacketID {
			st.err = &protocol.PacketTypeError{Want: protocol.PacketData, Got: f.PacketID}
			st.chunk = nil
			return false
		}
	}

	st.packets++
	st.chunk = f.Payload
	return true
}

// Chunk returns the payload of the packet read by the last call to Next.
func (st *Stream) Chunk() []byte {
	return st.chunk
}

// Packets returns the number of packets read so far.
func (st *Stream) Packets() int {
	return st.packets
}

// Done reports whether the end-of-data packet has been read.
func (st *Stream) Done() bool {
	return st.done
}

// Err returns the error that stopped the iteration, if any.
func (st *Stream) Err() error {
	return st.err
}
