package wshub

import "encoding/binary"

// finTextOpcode is the first header byte of every outbound frame: FIN set,
// no reserved bits, opcode 0x1 (text). The hub only ever sends single
// fragment, unmasked server-to-client text frames.
const finTextOpcode = 0x81

// Payload length classes per RFC 6455 section 5.2.
const (
	payloadLenExtended16 = 0x7E // next 2 bytes hold the length
	payloadLenExtended64 = 0x7F // next 8 bytes hold the length

	maxDirectPayloadLen = 125
	maxExtended16       = 65535
)

// encodeTextFrame wraps payload in a websocket text frame. The header is 2
// bytes for payloads up to 125 bytes, 4 bytes up to 65535, and 10 bytes
// beyond that, with extended lengths big-endian.
func encodeTextFrame(payload []byte) []byte {
	n := len(payload)

	var frame []byte
	switch {
	case n <= maxDirectPayloadLen:
		frame = make([]byte, 0, 2+n)
		frame = append(frame, finTextOpcode, byte(n))
	case n <= maxExtended16:
		frame = make([]byte, 0, 4+n)
		frame = append(frame, finTextOpcode, payloadLenExtended16)
		frame = binary.BigEndian.AppendUint16(frame, uint16(n))
	default:
		frame = make([]byte, 0, 10+n)
		frame = append(frame, finTextOpcode, payloadLenExtended64)
		frame = binary.BigEndian.AppendUint64(frame, uint64(n))
	}

	return append(frame, payload...)
}
