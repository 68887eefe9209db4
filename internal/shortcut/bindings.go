package shortcut

import (
	"fmt"
	"sort"
)

// Action names a drill command.
type Action string

// Drill actions.
const (
	AnswerButton1  Action = "answer_button_1"
	AnswerButton2  Action = "answer_button_2"
	AnswerButton3  Action = "answer_button_3"
	Continue       Action = "continue"
	PlayAudio      Action = "play_audio"
	Quit           Action = "quit"
	TogglePitch0   Action = "toggle_pitch0"
	TogglePitch1   Action = "toggle_pitch1"
	TogglePitch2   Action = "toggle_pitch2"
	TogglePitch3   Action = "toggle_pitch3"
	TogglePitch4   Action = "toggle_pitch4"
	ToggleDevoiced Action = "toggle_devoiced"
	ToggleStrict   Action = "toggle_strict"
	TogglePause    Action = "toggle_pause"
)

var answerActions = []Action{AnswerButton1, AnswerButton2, AnswerButton3}

var pitchToggles = []Action{TogglePitch0, TogglePitch1, TogglePitch2, TogglePitch3, TogglePitch4}

// AnswerIndex returns the zero-based option for an answer action.
func AnswerIndex(a Action) (int, bool) {
	for i, candidate := range answerActions {
		if candidate == a {
			return i, true
		}
	}
	return 0, false
}

// PitchToggle returns the pitch bucket toggled by a, if any.
func PitchToggle(a Action) (int, bool) {
	for i, candidate := range pitchToggles {
		if candidate == a {
			return i, true
		}
	}
	return 0, false
}

var defaultChords = map[Action]KeyChord{
	AnswerButton1:  Chord("1"),
	AnswerButton2:  Chord("2"),
	AnswerButton3:  Chord("3"),
	Continue:       Chord(KeySpace),
	PlayAudio:      Chord("r"),
	Quit:           Chord("q"),
	TogglePitch0:   Chord("F1"),
	TogglePitch1:   Chord("F2"),
	TogglePitch2:   Chord("F3"),
	TogglePitch3:   Chord("F4"),
	TogglePitch4:   Chord("F5"),
	ToggleDevoiced: Chord("F6"),
	ToggleStrict:   Chord("F7"),
	TogglePause:    Chord("F8"),
}

// Bindings maps actions to chords with an inverse lookup table.
type Bindings struct {
	byAction map[Action]KeyChord
	byChord  map[KeyChord]Action
}

// DefaultBindings returns the built-in key map.
func DefaultBindings() *Bindings {
	b := &Bindings{
		byAction: map[Action]KeyChord{},
		byChord:  map[KeyChord]Action{},
	}
	for action, chord := range defaultChords {
		b.Bind(action, chord)
	}
	return b
}

// Known reports whether a is a recognized action.
func Known(a Action) bool {
	_, ok := defaultChords[a]
	return ok
}

// Bind assigns chord to action. A chord already bound elsewhere moves to action.
func (b *Bindings) Bind(action Action, chord KeyChord) {
	if old, ok := b.byAction[action]; ok {
		delete(b.byChord, old)
	}
	if prev, ok := b.byChord[chord]; ok && prev != action {
		delete(b.byAction, prev)
	}
	b.byAction[action] = chord
	b.byChord[chord] = action
}

// Apply parses and binds overrides given as action name to chord notation.
func (b *Bindings) Apply(overrides map[string]string) error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		action := Action(name)
		if !Known(action) {
			return fmt.Errorf("unknown shortcut action %q", name)
		}
		chord, err := ParseChord(overrides[name])
		if err != nil {
			return fmt.Errorf("shortcut %s: %w", name, err)
		}
		b.Bind(action, chord)
	}
	return nil
}

// Lookup returns the action bound to chord.
func (b *Bindings) Lookup(chord KeyChord) (Action, bool) {
	a, ok := b.byChord[chord]
	return a, ok
}

// ChordFor returns the chord bound to action.
func (b *Bindings) ChordFor(action Action) (KeyChord, bool) {
	c, ok := b.byAction[action]
	return c, ok
}

// Dispatch resolves chord to an action. Before the session has started only
// Continue is honored. handled mirrors a browser's preventDefault: true
// whenever the chord produced an action.
func (b *Bindings) Dispatch(chord KeyChord, started bool) (action Action, handled bool) {
	a, ok := b.Lookup(chord)
	if !ok {
		return "", false
	}
	if !started && a != Continue {
		return "", false
	}
	return a, true
}
