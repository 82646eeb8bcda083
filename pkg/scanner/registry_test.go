package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
)

func TestRegistryKeepsFirstSeenOrder(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry()

	_, added := r.Upsert(Device{Address: "AA", Name: "MetaWear", RSSI: -70, LastSeen: t0})
	assert.True(t, added)
	_, added = r.Upsert(Device{Address: "BB", RSSI: -80, LastSeen: t0.Add(time.Second)})
	assert.True(t, added)

	dev, added := r.Upsert(Device{Address: "AA", RSSI: -40, LastSeen: t0.Add(2 * time.Second)})
	assert.False(t, added)
	assert.Equal(t, -40, dev.RSSI)
	assert.Equal(t, "MetaWear", dev.Name, "empty name must not overwrite")
	assert.Equal(t, 2, dev.Sightings)
	assert.Equal(t, t0, dev.FirstSeen)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "AA", list[0].Address)
	assert.Equal(t, -40, list[0].RSSI)
	assert.Equal(t, t0.Add(2*time.Second), list[0].LastSeen)
	assert.Equal(t, "BB", list[1].Address)
}

func TestRegistryNameAndService(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Device{Address: "AA"})
	dev, _ := r.Upsert(Device{Address: "AA", Name: "Sensor", Service: bleuuid.MetaWear})
	assert.Equal(t, "Sensor", dev.Name)
	assert.Equal(t, bleuuid.MetaWear, dev.Service)

	dev, _ = r.Upsert(Device{Address: "AA", Service: bleuuid.From16(0x180d)})
	assert.Equal(t, bleuuid.MetaWear, dev.Service)
}

func TestRegistryListIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Device{Address: "AA", RSSI: -50})
	list := r.List()
	list[0].RSSI = 0

	assert.Equal(t, -50, r.List()[0].RSSI)
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Device{Address: "AA"})
	r.Upsert(Device{Address: "BB"})
	r.Clear()

	assert.Zero(t, r.Len())
	assert.Empty(t, r.List())

	_, added := r.Upsert(Device{Address: "BB"})
	assert.True(t, added)
	assert.Equal(t, "BB", r.List()[0].Address)
}

func TestDeviceDisplayName(t *testing.T) {
	assert.Equal(t, "Unknown device", Device{}.DisplayName())
	assert.Equal(t, "MetaWear", Device{Name: "MetaWear"}.DisplayName())
}
