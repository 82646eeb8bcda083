package advdata

import (
	"encoding/hex"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestParseFlagsAndServices(t *testing.T) {
	got := Structures(mustHex(t, "02010603030d18"))
	require.Len(t, got, 2)
	assert.Equal(t, Structure{Type: TypeFlags, Value: []byte{0x06}}, got[0])
	assert.Equal(t, Structure{Type: TypeAllUUID16, Value: []byte{0x0d, 0x18}}, got[1])
}

func TestParseRecoversRecords(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		var want []Structure
		var p Packet
		for n := rng.IntN(6); n > 0; n-- {
			v := make([]byte, rng.IntN(40))
			for j := range v {
				v[j] = byte(rng.UintN(256))
			}
			typ := byte(rng.UintN(256))
			var err error
			p, err = p.AppendField(typ, v)
			require.NoError(t, err)
			want = append(want, Structure{Type: typ, Value: v})
		}

		got := Structures(p)
		require.Len(t, got, len(want))
		for k := range want {
			assert.Equal(t, want[k].Type, got[k].Type)
			assert.Equal(t, len(want[k].Value), len(got[k].Value))
			if len(want[k].Value) > 0 {
				assert.Equal(t, want[k].Value, got[k].Value)
			}
		}
	}
}

func TestParseDropsTruncatedTrailer(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"empty", "", 0},
		{"zero length first", "00020106", 0},
		{"zero length after record", "0201060003030d18", 1},
		{"trailer too long", "020106050302", 1},
		{"length byte only", "02010605", 1},
		{"type only record", "0109", 1},
		{"declared length one past end", "0201060403030d", 1},
		{"zero padding", "020106" + "00000000", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Structures(mustHex(t, tt.payload))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseIsRestartable(t *testing.T) {
	seq := Parse(mustHex(t, "02010603030d18"))
	var first, second int
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	assert.Equal(t, 2, first)
	assert.Equal(t, first, second)
}

func TestParseStopsEarly(t *testing.T) {
	n := 0
	for range Parse(mustHex(t, "02010603030d18")) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "MetaWear", LocalName(mustHex(t, "020106"+"09094d65746157656172")))

	p, _ := Packet{}.AppendField(TypeFlags, []byte{FlagGeneralDiscoverable | FlagLEOnly})
	p, _ = p.AppendField(TypeShortName, []byte("Meta"))
	assert.Equal(t, "Meta", LocalName(p))

	p, _ = p.AppendCompleteName("MetaWear")
	assert.Equal(t, "MetaWear", LocalName(p))

	assert.Equal(t, "", LocalName(mustHex(t, "02010603030d18")))
}

func TestField(t *testing.T) {
	p := mustHex(t, "02010603030d18")
	assert.Equal(t, []byte{0x0d, 0x18}, Field(p, TypeAllUUID16))
	assert.Nil(t, Field(p, TypeManufacturerData))
}

func TestAppendFieldTooLong(t *testing.T) {
	p, err := Packet{}.AppendField(TypeManufacturerData, make([]byte, 255))
	assert.ErrorIs(t, err, ErrFieldTooLong)
	assert.Empty(t, p)

	p, err = Packet{}.AppendField(TypeManufacturerData, make([]byte, 254))
	require.NoError(t, err)
	assert.Equal(t, byte(255), p[0])
}
