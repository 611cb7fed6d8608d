package protocol

// Parameters is the system parameter block returned by Read Parameters.
// It is rebuilt on every read.
type Parameters struct {
	// StatusRegister holds the module's busy/pass/password/buffer flags
	StatusRegister uint16

	// SystemID is the fixed system identifier code
	SystemID uint16

	// LibrarySize is the template library capacity in pages
	LibrarySize uint16

	// SecurityLevel is the matching threshold level (1-5)
	SecurityLevel uint16

	// DeviceAddress is the 32-bit module address
	DeviceAddress [AddressSize]byte

	// PacketSizeCode is the data packet size code (0-3), see PacketSizes
	PacketSizeCode uint16

	// BaudSetting is the baud multiplier N (bit rate = N x BaudUnit)
	BaudSetting uint16
}

// PacketSize returns the data packet size in bytes, or 0 for an unknown code.
func (p *Parameters) PacketSize() int {
	if int(p.PacketSizeCode) < len(PacketSizes) {
		return PacketSizes[p.PacketSizeCode]
	}
	return 0
}

// BaudRate returns the configured serial bit rate.
func (p *Parameters) BaudRate() int {
	return int(p.BaudSetting) * BaudUnit
}

// Match is the result of a fingerprint search.
type Match struct {
	// PageID is the library page of the matching template
	PageID uint16

	// Score is the match confidence
	Score uint16
}
