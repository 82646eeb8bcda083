package scanner

import (
	"time"

	"github.com/google/uuid"
)

// Device is a discovered device as held by the Registry.
type Device struct {
	Address   string    `json:"address"`
	Name      string    `json:"name,omitempty"`
	RSSI      int       `json:"rssi"`
	Service   uuid.UUID `json:"service"` // identifier that satisfied the filter; uuid.Nil in pass-through mode
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Sightings int       `json:"sightings"`
}

// DisplayName returns the device name, or "Unknown device".
func (d Device) DisplayName() string {
	if d.Name == "" {
		return "Unknown device"
	}
	return d.Name
}

// Registry deduplicates devices by address and keeps them in first-seen order.
// It is not safe for concurrent use; Session serializes access to its own.
type Registry struct {
	devices []Device
	index   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Upsert records an observation. A new address is appended; a known address
// keeps its position and takes the observation's RSSI, LastSeen and, when
// present, Name. The stored device and whether it was new are returned.
func (r *Registry) Upsert(obs Device) (Device, bool) {
	i, ok := r.index[obs.Address]
	if !ok {
		if obs.FirstSeen.IsZero() {
			obs.FirstSeen = obs.LastSeen
		}
		obs.Sightings = 1
		r.index[obs.Address] = len(r.devices)
		r.devices = append(r.devices, obs)
		return obs, true
	}

	d := &r.devices[i]
	d.RSSI = obs.RSSI
	d.LastSeen = obs.LastSeen
	if obs.Name != "" {
		d.Name = obs.Name
	}
	if d.Service == uuid.Nil {
		d.Service = obs.Service
	}
	d.Sightings++
	return *d, false
}

// List returns a copy of the devices in first-seen order.
func (r *Registry) List() []Device {
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Len returns the number of devices.
func (r *Registry) Len() int { return len(r.devices) }

// Clear removes every device.
func (r *Registry) Clear() {
	r.devices = nil
	clear(r.index)
}
