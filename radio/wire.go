package radio

import (
	"encoding/binary"

	"github.com/Arceliar/meshbridge/types"
)

// Every datagram on the shared group is
//
//	channel u8 | origin u32 | from u16 | to u16 | id u16 | type u8 | reserved u8 | payload
//
// with multi-byte fields little-endian, as the radio firmware lays out its header.
const (
	wireHeaderSize   = 8
	wireEnvelopeSize = 1 + 4 + wireHeaderSize
)

func wireChopSlice(out []byte, data *[]byte) bool {
	if len(*data) < len(out) {
		return false
	}
	copy(out, *data)
	*data = (*data)[len(out):]
	return true
}

func wireEncode(out []byte, channel uint8, origin uint32, h types.Header, payload []byte) []byte {
	var hdr [wireEnvelopeSize]byte
	hdr[0] = channel
	binary.LittleEndian.PutUint32(hdr[1:5], origin)
	binary.LittleEndian.PutUint16(hdr[5:7], h.From)
	binary.LittleEndian.PutUint16(hdr[7:9], h.To)
	binary.LittleEndian.PutUint16(hdr[9:11], h.ID)
	hdr[11] = byte(h.Type)
	hdr[12] = h.Reserved
	out = append(out, hdr[:]...)
	return append(out, payload...)
}

// wireDecode returns a payload that aliases data.
func wireDecode(data []byte) (channel uint8, origin uint32, h types.Header, payload []byte, err error) {
	var hdr [wireEnvelopeSize]byte
	if !wireChopSlice(hdr[:], &data) {
		err = DecodeError{}
		return
	}
	channel = hdr[0]
	origin = binary.LittleEndian.Uint32(hdr[1:5])
	h.From = binary.LittleEndian.Uint16(hdr[5:7])
	h.To = binary.LittleEndian.Uint16(hdr[7:9])
	h.ID = binary.LittleEndian.Uint16(hdr[9:11])
	h.Type = types.FrameType(hdr[11])
	h.Reserved = hdr[12]
	payload = data
	return
}

func wireOrigin(data []byte) (uint32, bool) {
	if len(data) < wireEnvelopeSize {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[1:5]), true
}
