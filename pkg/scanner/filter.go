package scanner

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
)

// FilterSet is an immutable set of service identifiers. The zero value is the
// empty set, which accepts every device.
type FilterSet struct {
	ids map[uuid.UUID]struct{}
}

// NewFilterSet returns a set holding ids.
func NewFilterSet(ids ...uuid.UUID) FilterSet {
	if len(ids) == 0 {
		return FilterSet{}
	}
	m := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return FilterSet{ids: m}
}

// ParseFilterSet parses each entry with bleuuid.Parse.
func ParseFilterSet(ss []string) (FilterSet, error) {
	ids := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := bleuuid.Parse(s)
		if err != nil {
			return FilterSet{}, err
		}
		ids = append(ids, id)
	}
	return NewFilterSet(ids...), nil
}

// Empty reports whether f is in pass-through mode.
func (f FilterSet) Empty() bool { return len(f.ids) == 0 }

// Len returns the number of identifiers in f.
func (f FilterSet) Len() int { return len(f.ids) }

// Contains reports whether id is a member of f.
func (f FilterSet) Contains(id uuid.UUID) bool {
	_, ok := f.ids[id]
	return ok
}

// Matches reports whether f is empty or shares at least one identifier with ids.
func (f FilterSet) Matches(ids []uuid.UUID) bool {
	if f.Empty() {
		return true
	}
	return slices.ContainsFunc(ids, f.Contains)
}

// IDs returns the members of f in string order.
func (f FilterSet) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

func (f FilterSet) String() string {
	if f.Empty() {
		return "*"
	}
	ids := f.IDs()
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = bleuuid.Format(id)
	}
	return strings.Join(ss, ",")
}
