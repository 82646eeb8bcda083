package scanner

// Listener receives session notifications. Methods are called with the
// session lock held, in the order the session observed the events, and never
// after Stop or Close has returned. They must not call back into the Session.
type Listener interface {
	OnDeviceDiscovered(scan Scan, dev Device)
	OnScanStateChanged(scan Scan, state State)
}

// Listeners fans notifications out to each element in order.
type Listeners []Listener

func (ls Listeners) OnDeviceDiscovered(scan Scan, dev Device) {
	for _, l := range ls {
		l.OnDeviceDiscovered(scan, dev)
	}
}

func (ls Listeners) OnScanStateChanged(scan Scan, state State) {
	for _, l := range ls {
		l.OnScanStateChanged(scan, state)
	}
}

// ListenerFuncs adapts optional functions to Listener.
type ListenerFuncs struct {
	DeviceDiscovered func(Scan, Device)
	ScanStateChanged func(Scan, State)
}

func (f ListenerFuncs) OnDeviceDiscovered(scan Scan, dev Device) {
	if f.DeviceDiscovered != nil {
		f.DeviceDiscovered(scan, dev)
	}
}

func (f ListenerFuncs) OnScanStateChanged(scan Scan, state State) {
	if f.ScanStateChanged != nil {
		f.ScanStateChanged(scan, state)
	}
}
