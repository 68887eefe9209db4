package shortcut

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

type namedKey struct {
	key   string
	ctrl  bool
	shift bool
}

var teaKeys = map[tea.KeyType]namedKey{
	tea.KeySpace:      {key: KeySpace},
	tea.KeyEnter:      {key: "Enter"},
	tea.KeyTab:        {key: "Tab"},
	tea.KeyShiftTab:   {key: "Tab", shift: true},
	tea.KeyEsc:        {key: "Escape"},
	tea.KeyBackspace:  {key: "Backspace"},
	tea.KeyDelete:     {key: "Delete"},
	tea.KeyHome:       {key: "Home"},
	tea.KeyEnd:        {key: "End"},
	tea.KeyPgUp:       {key: "PageUp"},
	tea.KeyPgDown:     {key: "PageDown"},
	tea.KeyLeft:       {key: KeyLeft},
	tea.KeyRight:      {key: KeyRight},
	tea.KeyUp:         {key: KeyUp},
	tea.KeyDown:       {key: KeyDown},
	tea.KeyShiftLeft:  {key: KeyLeft, shift: true},
	tea.KeyShiftRight: {key: KeyRight, shift: true},
	tea.KeyShiftUp:    {key: KeyUp, shift: true},
	tea.KeyShiftDown:  {key: KeyDown, shift: true},
	tea.KeyCtrlLeft:   {key: KeyLeft, ctrl: true},
	tea.KeyCtrlRight:  {key: KeyRight, ctrl: true},
	tea.KeyCtrlUp:     {key: KeyUp, ctrl: true},
	tea.KeyCtrlDown:   {key: KeyDown, ctrl: true},
	tea.KeyF1:         {key: "F1"},
	tea.KeyF2:         {key: "F2"},
	tea.KeyF3:         {key: "F3"},
	tea.KeyF4:         {key: "F4"},
	tea.KeyF5:         {key: "F5"},
	tea.KeyF6:         {key: "F6"},
	tea.KeyF7:         {key: "F7"},
	tea.KeyF8:         {key: "F8"},
	tea.KeyF9:         {key: "F9"},
	tea.KeyF10:        {key: "F10"},
	tea.KeyF11:        {key: "F11"},
	tea.KeyF12:        {key: "F12"},
}

// FromKeyMsg converts a terminal key event to a chord. An uppercase letter
// carries the Shift flag, the way a browser reports shift+letter.
func FromKeyMsg(msg tea.KeyMsg) KeyChord {
	c := KeyChord{Alt: msg.Alt}
	if msg.Type == tea.KeyRunes {
		c.Key = string(msg.Runes)
		if len(msg.Runes) == 1 && unicode.IsUpper(msg.Runes[0]) {
			c.Shift = true
		}
		return c
	}
	if named, ok := teaKeys[msg.Type]; ok {
		c.Key = named.key
		c.Ctrl = named.ctrl
		c.Shift = named.shift
		return c
	}
	if msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ {
		c.Ctrl = true
		c.Key = string(rune('a' + int(msg.Type-tea.KeyCtrlA)))
		return c
	}
	c.Key = msg.String()
	return c
}
