// Package protocol implements the packet protocol spoken by R30x capacitive
// fingerprint sensor modules over a serial link.
//
// This package builds command payloads, encodes and decodes frames, and
// classifies confirmation codes. It performs no I/O of its own beyond
// reading frames from an io.Reader handed to Codec.Decode.
//
// # Protocol Overview
//
// Every packet shares one frame layout, all multi-byte fields big-endian:
//
//	[HEADER(2)][ADDR(4)][PID(1)][LEN(2)][PAYLOAD...][CHECKSUM(2)]
//
// Where:
//   - HEADER = 0xEF01
//   - ADDR = module address, 0xFFFFFFFF by default
//   - PID = packet identifier (command, data, ack, end of data)
//   - LEN = payload length + 2
//   - CHECKSUM = low 16 bits of PID + LEN + sum of payload bytes
//
// # Commands
//
// A Command is an instruction code plus ordered fixed-width arguments.
// Builders validate their arguments, so a rejected value never reaches
// the wire:
//
//	cmd, err := protocol.SetParameterCmd(protocol.ParamSecurityLevel, 3)
//	frame, err := protocol.NewCodec(protocol.DefaultAddress).Encode(protocol.PacketCommand, cmd.Payload())
//
// # Confirmation Codes
//
// The first byte of an acknowledgement payload is a confirmation code.
// Classify resolves it against one table keyed by operation; codes 0x00
// and 0x01 apply everywhere, the rest only to the operations that define
// them:
//
//	if err := protocol.CheckConfirmation(protocol.OpVerifyPassword, code); err != nil {
//	    if errors.Is(err, protocol.WrongPassword) {
//	        // ...
//	    }
//	}
package protocol
