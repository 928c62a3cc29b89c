package input

import "encoding/binary"

// Linux input-event-codes.h event types.
const (
	EvSyn = 0x00
	EvKey = 0x01
	EvRel = 0x02
	EvAbs = 0x03
)

// KeyF4 is the default quit key on the device.
const KeyF4 = 62

// Event is one decoded input_event record.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Parser decodes a stream of input_event records. A record is a timeval
// followed by u16 type, u16 code and s32 value, so Size is 16 on 32-bit
// timeval platforms and 24 on 64-bit ones.
type Parser struct {
	Size int
	buf  []byte
}

// Feed appends chunk and calls fn for every complete record. A trailing
// partial record is kept for the next call.
func (p *Parser) Feed(chunk []byte, fn func(Event)) {
	p.buf = append(p.buf, chunk...)
	if p.Size < 8 {
		return
	}
	tv := p.Size - 8
	off := 0
	for ; off+p.Size <= len(p.buf); off += p.Size {
		rec := p.buf[off : off+p.Size]
		fn(Event{
			Type:  binary.LittleEndian.Uint16(rec[tv : tv+2]),
			Code:  binary.LittleEndian.Uint16(rec[tv+2 : tv+4]),
			Value: int32(binary.LittleEndian.Uint32(rec[tv+4 : tv+8])),
		})
	}
	p.buf = append(p.buf[:0], p.buf[off:]...)
}
