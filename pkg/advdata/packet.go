package advdata

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
)

// ErrFieldTooLong is returned when a record value does not fit a length byte.
var ErrFieldTooLong = errors.New("advertising field longer than 254 bytes")

// Packet builds an advertising payload record by record.
type Packet []byte

// AppendField appends one [length][type][value] record.
func (p Packet) AppendField(typ byte, b []byte) (Packet, error) {
	if len(b) > 254 {
		return p, errors.Wrapf(ErrFieldTooLong, "type 0x%02x: %d bytes", typ, len(b))
	}
	p = append(p, byte(len(b)+1), typ)
	return append(p, b...), nil
}

// AppendCompleteName appends a Complete Local Name record.
func (p Packet) AppendCompleteName(n string) (Packet, error) {
	return p.AppendField(TypeCompleteName, []byte(n))
}

// AppendServices16 appends a complete list of 16-bit service UUIDs.
func (p Packet) AppendServices16(ids ...uint16) (Packet, error) {
	b := make([]byte, 2*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint16(b[2*i:], id)
	}
	return p.AppendField(TypeAllUUID16, b)
}

// AppendServices128 appends a complete list of 128-bit service UUIDs.
func (p Packet) AppendServices128(ids ...uuid.UUID) (Packet, error) {
	b := make([]byte, 0, 16*len(ids))
	for _, id := range ids {
		b = append(b, bleuuid.LE128(id)...)
	}
	return p.AppendField(TypeAllUUID128, b)
}

// AppendServices appends ids using the 16-bit record for identifiers in the
// base UUID range and the 128-bit record for the rest. Empty lists are skipped.
func (p Packet) AppendServices(ids ...uuid.UUID) (Packet, error) {
	var short []uint16
	var long []uuid.UUID
	for _, id := range ids {
		if v, ok := bleuuid.Short(id); ok {
			short = append(short, v)
		} else {
			long = append(long, id)
		}
	}
	var err error
	if len(short) > 0 {
		if p, err = p.AppendServices16(short...); err != nil {
			return p, err
		}
	}
	if len(long) > 0 {
		if p, err = p.AppendServices128(long...); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Bytes returns the payload.
func (p Packet) Bytes() []byte {
	return []byte(p)
}
