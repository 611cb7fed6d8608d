package protocol

import (
	"encoding/binary"
	"fmt"
)

// SplitConfirmation separates an acknowledgement payload into its
// confirmation code and the operation-specific data that follows it.
func SplitConfirmation(payload []byte) (code byte, data []byte, err error) {
	if len(payload) == 0 {
		return 0, nil, fmt.Errorf("empty acknowledgement payload: missing confirmation code")
	}
	return payload[0], payload[1:], nil
}

// ParseReadParametersResponse parses the Read Parameters response data.
//
// Data format (16 bytes, big-endian):
//
//	[STATUS(2)][SYSTEM_ID(2)][LIBRARY_SIZE(2)][SECURITY(2)][ADDR(4)][PACKET_SIZE(2)][BAUD(2)]
func ParseReadParametersResponse(data []byte) (*Parameters, error) {
	if len(data) != ReadParametersResponseSize {
		return nil, fmt.Errorf("invalid data length for Read Parameters response: got %d bytes, expected %d", len(data), ReadParametersResponseSize)
	}

	params := &Parameters{
		StatusRegister: binary.BigEndian.Uint16(data[0:2]),
		SystemID:       binary.BigEndian.Uint16(data[2:4]),
		LibrarySize:    binary.BigEndian.Uint16(data[4:6]),
		SecurityLevel:  binary.BigEndian.Uint16(data[6:8]),
		PacketSizeCode: binary.BigEndian.Uint16(data[12:14]),
		BaudSetting:    binary.BigEndian.Uint16(data[14:16]),
	}
	copy(params.DeviceAddress[:], data[8:12])

	return params, nil
}

// ParseSearchResponse parses the Fingerprint Verification response data.
//
// Data format (4 bytes, big-endian):
//
//	[PAGE_ID(2)][MATCH_SCORE(2)]
func ParseSearchResponse(data []byte) (*Match, error) {
	if len(data) != SearchResponseSize {
		return nil, fmt.Errorf("invalid data length for Fingerprint Verification response: got %d bytes, expected %d", len(data), SearchResponseSize)
	}

	return &Match{
		PageID: binary.BigEndian.Uint16(data[0:2]),
		Score:  binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// ParseMatchResponse parses the Match Template response data.
//
// Data format (2 bytes, big-endian):
//
//	[MATCH_SCORE(2)]
func ParseMatchResponse(data []byte) (uint16, error) {
	if len(data) != MatchResponseSize {
		return 0, fmt.Errorf("invalid data length for Match Template response: got %d bytes, expected %d", len(data), MatchResponseSize)
	}

	return binary.BigEndian.Uint16(data), nil
}
