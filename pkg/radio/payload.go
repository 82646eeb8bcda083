package radio

import (
	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/kenyoneda/MultiMetaWear/pkg/advdata"
)

// probe is a service identifier the radio asks the platform about when it
// cannot read raw advertising bytes.
type probe struct {
	id uuid.UUID
	bt bluetooth.UUID
}

func newProbes(ids []uuid.UUID) ([]probe, error) {
	out := make([]probe, 0, len(ids))
	for _, id := range ids {
		bt, err := bluetooth.ParseUUID(id.String())
		if err != nil {
			return nil, err
		}
		out = append(out, probe{id: id, bt: bt})
	}
	return out, nil
}

// payloadOf returns the raw advertising bytes of p. Some platforms (BlueZ) only
// expose parsed fields; for those an equivalent payload is rebuilt from the
// local name and whichever probed services p reports.
func payloadOf(p bluetooth.AdvertisementPayload, probes []probe) []byte {
	if b := p.Bytes(); len(b) > 0 {
		return append([]byte(nil), b...)
	}

	var pkt advdata.Packet
	if name := p.LocalName(); name != "" {
		if next, err := pkt.AppendCompleteName(name); err == nil {
			pkt = next
		}
	}

	var found []uuid.UUID
	for _, pr := range probes {
		if p.HasServiceUUID(pr.bt) {
			found = append(found, pr.id)
		}
	}
	if next, err := pkt.AppendServices(found...); err == nil {
		pkt = next
	}
	return pkt.Bytes()
}
