package bleuuid

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom16(t *testing.T) {
	assert.Equal(t, "0000180d-0000-1000-8000-00805f9b34fb", From16(0x180D).String())
	assert.Equal(t, Base, From16(0))
}

func TestFromLE128(t *testing.T) {
	// MetaWear service as it appears in a 0x07 record.
	raw, _ := hex.DecodeString("5ae7bafb4c46ddd99591cb8500906a32")
	got := FromLE128(raw)
	assert.Equal(t, MetaWear, got)
	assert.Equal(t, raw, LE128(got))
}

func TestShort(t *testing.T) {
	v, ok := Short(From16(0x2a37))
	require.True(t, ok)
	assert.Equal(t, uint16(0x2a37), v)

	_, ok = Short(MetaWear)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"180d", "0000180d-0000-1000-8000-00805f9b34fb"},
		{"0x180D", "0000180d-0000-1000-8000-00805f9b34fb"},
		{" 180F ", "0000180f-0000-1000-8000-00805f9b34fb"},
		{"326A9000-85CB-9195-D9DD-464CFBBAE75A", "326a9000-85cb-9195-d9dd-464cfbbae75a"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}

	for _, bad := range []string{"", "18g0", "not-a-uuid", "180d0"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "180d (Heart Rate)", Format(From16(0x180d)))
	assert.Equal(t, "abcd", Format(From16(0xabcd)))
	assert.Equal(t, "326a9000-85cb-9195-d9dd-464cfbbae75a (MetaWear)", Format(MetaWear))
}
