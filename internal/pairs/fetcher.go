package pairs

import (
	"context"
	"sync"

	"github.com/verte-zerg/minipair/internal/model"
)

// Fetcher selects a candidate under the current filters and loads it.
type Fetcher struct {
	source Source
	index  *Index
	picker *Picker

	mu      sync.Mutex
	filters model.Filters
}

// NewFetcher constructs a Fetcher.
func NewFetcher(source Source, index *Index, picker *Picker, filters model.Filters) *Fetcher {
	return &Fetcher{
		source:  source,
		index:   index,
		picker:  picker,
		filters: filters,
	}
}

// Filters returns the current filters.
func (f *Fetcher) Filters() model.Filters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters
}

// SetFilters replaces the filters used by later selections.
func (f *Fetcher) SetFilters(filters model.Filters) {
	f.mu.Lock()
	f.filters = filters
	f.mu.Unlock()
}

// Select picks the next record id; ok is false when nothing is eligible.
func (f *Fetcher) Select() (string, bool) {
	return f.picker.Select(f.index, f.Filters())
}

// Fetch selects and loads one record. It returns ErrNoCandidates on an empty set.
func (f *Fetcher) Fetch(ctx context.Context) (model.Record, error) {
	id, ok := f.Select()
	if !ok {
		return model.Record{}, ErrNoCandidates
	}
	return f.source.Record(ctx, id)
}
