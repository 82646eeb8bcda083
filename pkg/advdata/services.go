package advdata

import (
	"encoding/binary"
	"iter"

	"github.com/google/uuid"

	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
)

// ServiceIDs yields the service identifiers listed in a 16-bit (0x02/0x03) or
// 128-bit (0x06/0x07) service UUID record, canonicalized to 128 bits. Other
// record types yield nothing. A trailing partial chunk is ignored.
func ServiceIDs(s Structure) iter.Seq[uuid.UUID] {
	return func(yield func(uuid.UUID) bool) {
		switch s.Type {
		case TypeSomeUUID16, TypeAllUUID16:
			for d := s.Value; len(d) >= 2; d = d[2:] {
				if !yield(bleuuid.From16(binary.LittleEndian.Uint16(d))) {
					return
				}
			}
		case TypeSomeUUID128, TypeAllUUID128:
			for d := s.Value; len(d) >= 16; d = d[16:] {
				if !yield(bleuuid.FromLE128(d)) {
					return
				}
			}
		}
	}
}

// Services returns the service identifiers advertised in payload, in the order
// they appear. If stop is non-nil, collection ends with the first identifier
// for which stop returns true; that identifier is the last element.
func Services(payload []byte, stop func(uuid.UUID) bool) []uuid.UUID {
	var out []uuid.UUID
	for s := range Parse(payload) {
		for id := range ServiceIDs(s) {
			out = append(out, id)
			if stop != nil && stop(id) {
				return out
			}
		}
	}
	return out
}

// FirstService returns the first advertised identifier satisfying match.
func FirstService(payload []byte, match func(uuid.UUID) bool) (uuid.UUID, bool) {
	for s := range Parse(payload) {
		for id := range ServiceIDs(s) {
			if match(id) {
				return id, true
			}
		}
	}
	return uuid.Nil, false
}
