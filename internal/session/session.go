// Package session grades drill answers and keeps per-category counters.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/minipair/internal/model"
	"github.com/verte-zerg/minipair/internal/pairs"
)

// AutoAdvanceDelay is how long a correct answer stays on screen before the next turn.
const AutoAdvanceDelay = 750 * time.Millisecond

var (
	// ErrNoActiveTurn is returned when grading without an active record.
	ErrNoActiveTurn = errors.New("no active turn")
	// ErrAlreadyGraded is returned when grading a turn twice.
	ErrAlreadyGraded = errors.New("turn already graded")
)

// Classify maps a pitch-accent index to its category.
func Classify(pitchAccent, moraCount int) model.Category {
	switch {
	case pitchAccent == 0 || pitchAccent == moraCount:
		return model.Heiban
	case pitchAccent == 1:
		return model.Atamadaka
	default:
		return model.Nakadaka
	}
}

// Percent returns floor(correct/attempted*100), or 0 without attempts.
func Percent(correct, attempted int) int {
	if attempted <= 0 {
		return 0
	}
	return correct * 100 / attempted
}

// Counter tracks attempts in one category.
type Counter struct {
	Attempted int
	Correct   int
}

// Percent returns the counter's accuracy percentage.
func (c Counter) Percent() int {
	return Percent(c.Correct, c.Attempted)
}

// HistoryEntry is one graded turn, labeled with the correct answer.
type HistoryEntry struct {
	RecordID string
	Label    string
	Correct  bool
}

// Turn is the active record and its hidden answer.
type Turn struct {
	Record       model.Record
	CorrectIndex int
	Category     model.Category
	Label        string
	Options      []string

	graded   bool
	selected int
}

// Graded reports whether the turn has been answered.
func (t *Turn) Graded() bool {
	return t.graded
}

// Selected returns the graded selection, or -1 before grading.
func (t *Turn) Selected() int {
	if !t.graded {
		return -1
	}
	return t.selected
}

// Sound returns the audio payload for option i.
func (t *Turn) Sound(i int) (string, bool) {
	if i < 0 || i >= len(t.Record.Pairs) {
		return "", false
	}
	return t.Record.Pairs[i].SoundData, true
}

// Result is the outcome of grading a turn.
type Result struct {
	Correct      bool
	Selected     int
	CorrectIndex int
	Category     model.Category
	Label        string
}

// Session owns the counters and history for one drill run.
type Session struct {
	ID        string
	StartedAt time.Time

	counters map[model.Category]Counter
	history  []HistoryEntry
	answers  []model.Answer
	turn     *Turn
	now      func() time.Time
}

// New creates an empty session.
func New(id string, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		ID:        id,
		StartedAt: now(),
		counters:  map[model.Category]Counter{},
		now:       now,
	}
}

// Begin makes rec the active turn with the given hidden answer.
func (s *Session) Begin(rec model.Record, correctIndex int) (*Turn, error) {
	if len(rec.Pairs) == 0 {
		return nil, fmt.Errorf("record %s has no pairs", rec.ID)
	}
	if correctIndex < 0 || correctIndex >= len(rec.Pairs) {
		return nil, fmt.Errorf("correct index %d out of range for record %s", correctIndex, rec.ID)
	}
	answer := rec.Pairs[correctIndex]
	options := make([]string, len(rec.Pairs))
	for i, p := range rec.Pairs {
		options[i] = pairs.AccentText(p.RawPronunciation, p.AccentedMora)
	}
	s.turn = &Turn{
		Record:       rec,
		CorrectIndex: correctIndex,
		Category:     Classify(answer.PitchAccent, answer.MoraCount),
		Label:        options[correctIndex],
		Options:      options,
	}
	return s.turn, nil
}

// Active returns the active turn, or nil.
func (s *Session) Active() *Turn {
	return s.turn
}

// Grade scores a selection against the active turn. Any index other than the
// correct one, including out-of-range values, is incorrect.
func (s *Session) Grade(selected int) (Result, error) {
	t := s.turn
	if t == nil {
		return Result{}, ErrNoActiveTurn
	}
	if t.graded {
		return Result{}, ErrAlreadyGraded
	}
	correct := selected == t.CorrectIndex
	t.graded = true
	t.selected = selected

	c := s.counters[t.Category]
	c.Attempted++
	if correct {
		c.Correct++
	}
	s.counters[t.Category] = c

	s.history = append([]HistoryEntry{{
		RecordID: t.Record.ID,
		Label:    t.Label,
		Correct:  correct,
	}}, s.history...)
	s.answers = append(s.answers, model.Answer{
		RecordID:     t.Record.ID,
		Category:     t.Category,
		Selected:     selected,
		CorrectIndex: t.CorrectIndex,
		Correct:      correct,
		AnsweredAt:   s.now(),
	})

	return Result{
		Correct:      correct,
		Selected:     selected,
		CorrectIndex: t.CorrectIndex,
		Category:     t.Category,
		Label:        t.Label,
	}, nil
}

// Counter returns the counter for a category.
func (s *Session) Counter(cat model.Category) Counter {
	return s.counters[cat]
}

// Overall sums every category.
func (s *Session) Overall() Counter {
	var total Counter
	for _, cat := range model.Categories {
		c := s.counters[cat]
		total.Attempted += c.Attempted
		total.Correct += c.Correct
	}
	return total
}

// History returns graded turns, most recent first.
func (s *Session) History() []HistoryEntry {
	return append([]HistoryEntry(nil), s.history...)
}

// Answers returns graded turns in answer order.
func (s *Session) Answers() []model.Answer {
	return append([]model.Answer(nil), s.answers...)
}

// Stats summarizes the session for persistence.
func (s *Session) Stats(source string, filters model.Filters) model.SessionStats {
	overall := s.Overall()
	return model.SessionStats{
		ID:        s.ID,
		StartedAt: s.StartedAt,
		EndedAt:   s.now(),
		Source:    source,
		Filters:   filters,
		Attempted: overall.Attempted,
		Correct:   overall.Correct,
	}
}

// ShouldAutoAdvance reports whether the next turn starts without a continue input.
func ShouldAutoAdvance(res Result, pauseAfterCorrect bool) bool {
	return res.Correct && !pauseAfterCorrect
}
