// Package bleuuid converts between the forms a Bluetooth service UUID takes on
// the air (16-bit short form, 128-bit little-endian) and the canonical 128-bit
// value used for comparisons.
package bleuuid

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Base is the Bluetooth base UUID 00000000-0000-1000-8000-00805F9B34FB.
// 16-bit UUIDs occupy bytes 2 and 3 of it.
var Base = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

// From16 expands a 16-bit UUID into the base UUID.
func From16(short uint16) uuid.UUID {
	u := Base
	binary.BigEndian.PutUint16(u[2:4], short)
	return u
}

// FromLE128 reads a 128-bit UUID in advertising byte order: the low 64 bits
// first, each half little-endian. b must hold at least 16 bytes.
func FromLE128(b []byte) uuid.UUID {
	lsb := binary.LittleEndian.Uint64(b[0:8])
	msb := binary.LittleEndian.Uint64(b[8:16])

	var u uuid.UUID
	binary.BigEndian.PutUint64(u[0:8], msb)
	binary.BigEndian.PutUint64(u[8:16], lsb)
	return u
}

// LE128 returns u in advertising byte order. It is the inverse of FromLE128.
func LE128(u uuid.UUID) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:8], binary.BigEndian.Uint64(u[8:16]))
	binary.LittleEndian.PutUint64(b[8:16], binary.BigEndian.Uint64(u[0:8]))
	return b
}

// Short reports the 16-bit form of u, if u lies in the base UUID range.
func Short(u uuid.UUID) (uint16, bool) {
	if u[0] != 0 || u[1] != 0 {
		return 0, false
	}
	v := binary.BigEndian.Uint16(u[2:4])
	if From16(v) != u {
		return 0, false
	}
	return v, true
}

// Parse accepts a 16-bit UUID ("180d", "0x180D") or any form uuid.Parse
// understands, and returns the canonical 128-bit value.
func Parse(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	short := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(short) == 4 {
		b, err := hex.DecodeString(short)
		if err != nil {
			return uuid.Nil, errors.Wrapf(err, "parse 16-bit uuid %q", s)
		}
		return From16(binary.BigEndian.Uint16(b)), nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "parse uuid %q", s)
	}
	return u, nil
}

// Name returns the assigned name of a known service, or "".
func Name(u uuid.UUID) string {
	if v, ok := Short(u); ok {
		return knownServices[v]
	}
	return knownVendorServices[u]
}

// Format renders u in its shortest form with its name when one is known,
// e.g. "180d (Heart Rate)".
func Format(u uuid.UUID) string {
	s := u.String()
	if v, ok := Short(u); ok {
		s = hex.EncodeToString([]byte{byte(v >> 8), byte(v)})
	}
	if n := Name(u); n != "" {
		return s + " (" + n + ")"
	}
	return s
}
