// Package pairs selects and loads minimal-pair records.
package pairs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/verte-zerg/minipair/internal/model"
)

// DevoicedKey is the index key listing records with devoiced morae.
const DevoicedKey = "devoiced"

var (
	// ErrNoCandidates means the filters leave no eligible record.
	ErrNoCandidates = errors.New("no pairs match the selected filters")
	// ErrNotFound means a record id does not resolve.
	ErrNotFound = errors.New("record not found")
)

// PitchKey returns the index key for a pitch bucket.
func PitchKey(pitch int) string {
	return fmt.Sprintf("pitch%d", pitch)
}

// Index maps categories to eligible record ids. It is read-only after construction.
type Index struct {
	lists map[string][]string
	sets  map[string]map[string]struct{}
}

// NewIndex builds an index from category lists.
func NewIndex(lists map[string][]string) *Index {
	idx := &Index{
		lists: make(map[string][]string, len(lists)),
		sets:  make(map[string]map[string]struct{}, len(lists)),
	}
	for key, ids := range lists {
		idx.lists[key] = append([]string(nil), ids...)
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		idx.sets[key] = set
	}
	return idx
}

// ParseIndex decodes the static index JSON document.
func ParseIndex(data []byte) (*Index, error) {
	var lists map[string][]string
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	return NewIndex(lists), nil
}

// IDs returns the ids listed under key.
func (i *Index) IDs(key string) []string {
	return i.lists[key]
}

// Contains reports whether id is listed under key.
func (i *Index) Contains(key, id string) bool {
	_, ok := i.sets[key][id]
	return ok
}

// All returns every distinct id, sorted.
func (i *Index) All() []string {
	seen := map[string]struct{}{}
	for _, ids := range i.lists {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Candidates lists the record ids eligible under the filters.
// An id listed in several checked buckets appears once per bucket.
func (i *Index) Candidates(f model.Filters) []string {
	var out []string
	if f.Strict {
		var unchecked []string
		for p := 0; p < model.NumPitches; p++ {
			if !f.Pitches[p] {
				unchecked = append(unchecked, PitchKey(p))
			}
		}
		for p := 0; p < model.NumPitches; p++ {
			if !f.Pitches[p] {
				continue
			}
			for _, id := range i.lists[PitchKey(p)] {
				if i.inAny(unchecked, id) {
					continue
				}
				if f.Devoiced && !i.Contains(DevoicedKey, id) {
					continue
				}
				out = append(out, id)
			}
		}
		return out
	}
	for p := 0; p < model.NumPitches; p++ {
		if !f.Pitches[p] {
			continue
		}
		for _, id := range i.lists[PitchKey(p)] {
			if f.Devoiced && !i.Contains(DevoicedKey, id) {
				continue
			}
			out = append(out, id)
		}
	}
	return out
}

func (i *Index) inAny(keys []string, id string) bool {
	for _, key := range keys {
		if i.Contains(key, id) {
			return true
		}
	}
	return false
}
