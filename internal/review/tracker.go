package review

import (
	"maps"
	"slices"

	"github.com/beelab/dancereview/internal/dataset"
)

// IDSet is a set of record ids.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Remove(id string) { delete(s, id) }

// Sorted returns the ids in lexical order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	maps.Copy(out, s)
	return out
}

// SymmetricDifference returns ids present in exactly one of s and other.
func (s IDSet) SymmetricDifference(other IDSet) IDSet {
	out := make(IDSet)
	for id := range s {
		if !other.Has(id) {
			out.Add(id)
		}
	}
	for id := range other {
		if !s.Has(id) {
			out.Add(id)
		}
	}
	return out
}

// Tracker holds per-record review state that outlives page changes: the
// dance type held for each record and, per page, the ids that were
// checkmarked as wrong category when that page was last saved.
type Tracker struct {
	danceTypes map[string]dataset.DanceType
	checked    map[int]IDSet
}

// NewTracker seeds held dance types from each record's effective dance type.
func NewTracker(records []*dataset.Record) *Tracker {
	t := &Tracker{
		danceTypes: make(map[string]dataset.DanceType, len(records)),
		checked:    make(map[int]IDSet),
	}
	for _, rec := range records {
		t.danceTypes[rec.DayDanceID] = rec.EffectiveDanceType()
	}
	return t
}

// DanceType returns the held dance type for id.
func (t *Tracker) DanceType(id string) (dataset.DanceType, bool) {
	d, ok := t.danceTypes[id]
	return d, ok
}

// SetDanceType replaces the held dance type for id.
func (t *Tracker) SetDanceType(id string, d dataset.DanceType) {
	t.danceTypes[id] = d
}

// Checkmarked returns a copy of the snapshot saved for page. A page that was
// never saved has an empty snapshot.
func (t *Tracker) Checkmarked(page int) IDSet {
	if s, ok := t.checked[page]; ok {
		return s.Clone()
	}
	return NewIDSet()
}

// SetCheckmarked atomically replaces the snapshot for page.
func (t *Tracker) SetCheckmarked(page int, ids IDSet) {
	t.checked[page] = ids.Clone()
}

// ResetCheckmarks drops every page snapshot.
func (t *Tracker) ResetCheckmarks() {
	clear(t.checked)
}

// SavedPages returns the pages that have a snapshot, ascending.
func (t *Tracker) SavedPages() []int {
	return slices.Sorted(maps.Keys(t.checked))
}
