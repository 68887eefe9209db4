package pairs

import (
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/minipair/internal/model"
)

// Picker makes uniform random choices. It is safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPicker returns a Picker seeded with the current time.
func NewPicker() *Picker {
	return NewPickerWithSeed(time.Now().UnixNano())
}

// NewPickerWithSeed returns a deterministic Picker.
func NewPickerWithSeed(seed int64) *Picker {
	return &Picker{rnd: rand.New(rand.NewSource(seed))}
}

// Intn returns a value in [0, n). n must be > 0.
func (p *Picker) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(n)
}

// Select picks a candidate id uniformly; ok is false when nothing is eligible.
func (p *Picker) Select(idx *Index, f model.Filters) (string, bool) {
	candidates := idx.Candidates(f)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[p.Intn(len(candidates))], true
}
