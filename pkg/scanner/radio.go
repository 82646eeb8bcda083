package scanner

// AdvertisementEvent is one advertisement observed by the radio.
type AdvertisementEvent struct {
	Address string
	Name    string // "" when the radio reported no name
	RSSI    int
	Payload []byte
}

// Radio is the scanning capability of a Bluetooth adapter.
//
// StartScanning begins delivering advertisements to events. The channel is
// owned by the caller; a Radio must never block on it and drops events when it
// is full. If scanning later ends without a StopScanning call, the Radio calls
// failed once with the cause. failed may still arrive after a concurrent
// StopScanning, so callers must be able to ignore it. StopScanning ends
// delivery.
type Radio interface {
	StartScanning(events chan<- AdvertisementEvent, failed func(error)) error
	StopScanning() error
}
