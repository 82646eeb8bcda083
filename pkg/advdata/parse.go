// Package advdata decodes and builds BLE advertising payloads: a plain
// concatenation of [length][type][value] records with no outer length prefix.
package advdata

import (
	"fmt"
	"iter"
)

// Structure is one length-type-value record of an advertising payload.
// Value aliases the payload it was parsed from.
type Structure struct {
	Type  byte
	Value []byte
}

func (s Structure) String() string {
	return fmt.Sprintf("0x%02x %s [% x]", s.Type, TypeName(s.Type), s.Value)
}

// Parse yields the records of payload in order. It stops at a zero length
// byte or at a record whose declared length runs past the end of the payload;
// the truncated record is not yielded. The sequence may be ranged over any
// number of times.
func Parse(payload []byte) iter.Seq[Structure] {
	return func(yield func(Structure) bool) {
		b := payload
		for len(b) > 0 {
			l := int(b[0])
			if l == 0 || len(b)-1 < l {
				return
			}
			if !yield(Structure{Type: b[1], Value: b[2 : 1+l]}) {
				return
			}
			b = b[1+l:]
		}
	}
}

// Structures collects Parse(payload) into a slice.
func Structures(payload []byte) []Structure {
	var out []Structure
	for s := range Parse(payload) {
		out = append(out, s)
	}
	return out
}

// Field returns the value of the first record of type typ, or nil.
func Field(payload []byte, typ byte) []byte {
	for s := range Parse(payload) {
		if s.Type == typ {
			return s.Value
		}
	}
	return nil
}

// LocalName returns the Complete Local Name, falling back to the Shortened
// Local Name. It returns "" when neither is present.
func LocalName(payload []byte) string {
	if name := Field(payload, TypeCompleteName); name != nil {
		return string(name)
	}
	return string(Field(payload, TypeShortName))
}
