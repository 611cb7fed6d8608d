package protocol

// ChecksumMask is the 16-bit mask applied to the running sum
const ChecksumMask = 0xFFFF

// Checksum computes the 16-bit frame checksum.
//
// The sum covers the packet identifier, the length field taken as a whole
// integer (not its two bytes), and every payload byte. Only the low 16 bits
// are kept; overflow wraps silently.
func Checksum(pid PacketID, length uint16, payload []byte) uint16 {
	sum := uint32(pid) + uint32(length)
	for _, b := range payload {
		sum += uint32(b)
	}
	return uint16(sum & ChecksumMask)
}

// frameLength returns the value of the length field for a payload.
func frameLength(payload []byte) uint16 {
	return uint16(len(payload) + ChecksumSize)
}
