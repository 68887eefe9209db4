// Package model defines shared data structures.
package model

import "time"

// NumPitches is the number of pitch-accent index buckets (pitch0..pitch4).
const NumPitches = 5

// Category is a named pitch-accent pattern.
type Category string

// Pitch-accent categories, in display order.
const (
	Heiban    Category = "heiban"
	Atamadaka Category = "atamadaka"
	Nakadaka  Category = "nakadaka"
)

// Categories lists every category in display order.
var Categories = []Category{Heiban, Atamadaka, Nakadaka}

// Filters mirrors the drill's filter checkboxes.
type Filters struct {
	Pitches  [NumPitches]bool
	Devoiced bool
	Strict   bool
}

// AnyPitch reports whether at least one pitch bucket is checked.
func (f Filters) AnyPitch() bool {
	for _, on := range f.Pitches {
		if on {
			return true
		}
	}
	return false
}

// Config defines drill settings.
type Config struct {
	Source            string
	Filters           Filters
	PauseAfterCorrect bool
	Player            string
	WaitStart         bool
	Shortcuts         map[string]string
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Since *time.Time
	Last  int
}

// Pair is one candidate pronunciation of a record.
type Pair struct {
	RawPronunciation string `json:"rawPronunciation"`
	AccentedMora     int    `json:"accentedMora"`
	MoraCount        int    `json:"moraCount"`
	PitchAccent      int    `json:"pitchAccent"`
	SoundData        string `json:"soundData"`
}

// Record is a single quiz question.
type Record struct {
	ID    string `json:"-"`
	Kana  string `json:"kana"`
	Pairs []Pair `json:"pairs"`
}

// Answer captures one graded turn.
type Answer struct {
	RecordID     string
	Category     Category
	Selected     int
	CorrectIndex int
	Correct      bool
	AnsweredAt   time.Time
}

// SessionStats captures a finished drill session.
type SessionStats struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Source    string
	Filters   Filters
	Attempted int
	Correct   int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID string
	EndedAt   time.Time
	Attempted int
	Correct   int
}

// CategoryAggregate aggregates answers per category across sessions.
type CategoryAggregate struct {
	Category  Category
	Attempted int
	Correct   int
}
