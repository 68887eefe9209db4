// Package tui provides the Bubble Tea drill interface.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/minipair/internal/model"
	"github.com/verte-zerg/minipair/internal/pairs"
	"github.com/verte-zerg/minipair/internal/session"
	"github.com/verte-zerg/minipair/internal/shortcut"
	"github.com/verte-zerg/minipair/internal/store"
)

type state int

const (
	stateIdle state = iota
	stateLoading
	stateAsking
	stateGraded
	stateEmpty
	stateError
)

// Queue yields drill records one ahead of the active turn.
type Queue interface {
	Next(ctx context.Context) (model.Record, error)
	Invalidate()
}

// Player plays a base64 audio clip.
type Player interface {
	Play(ctx context.Context, soundData string) error
}

// SessionSaver persists a finished session.
type SessionSaver interface {
	InsertSession(ctx context.Context, stats model.SessionStats, answers []model.Answer) error
}

// QuitMarker is armed when the learner quits on purpose.
type QuitMarker interface {
	MarkIntentionalQuit()
}

// Deps bundles the collaborators of the drill.
type Deps struct {
	Fetcher  *pairs.Fetcher
	Queue    Queue
	Picker   *pairs.Picker
	Bindings *shortcut.Bindings
	Player   Player
	Store    SessionSaver
	Quit     QuitMarker
	Logger   *zap.Logger
	Now      func() time.Time
}

type recordMsg struct {
	seq int
	rec model.Record
	err error
}

type advanceMsg struct {
	seq int
}

// Model implements the Bubble Tea drill UI.
type Model struct {
	ctx    context.Context
	config model.Config
	deps   Deps
	logger *zap.Logger

	width  int
	height int

	state    state
	started  bool
	loadSeq  int
	err      error
	finished bool

	session *session.Session
	last    session.Result
	spinner spinner.Model
	help    help.Model
}

// NewModel constructs a drill model. The drill starts immediately unless
// cfg.WaitStart is set.
func NewModel(ctx context.Context, cfg model.Config, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Bindings == nil {
		deps.Bindings = shortcut.DefaultBindings()
	}
	if deps.Picker == nil {
		deps.Picker = pairs.NewPicker()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = pendingStyle
	return &Model{
		ctx:     ctx,
		config:  cfg,
		deps:    deps,
		logger:  deps.Logger,
		state:   stateIdle,
		spinner: sp,
		help:    help.New(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.config.WaitStart {
		return nil
	}
	return m.start()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.finish()
			return m, tea.Quit
		}
		return m, m.handleKey(shortcut.FromKeyMsg(msg))
	case recordMsg:
		return m, m.handleRecord(msg)
	case advanceMsg:
		if msg.seq == m.loadSeq && m.state == stateGraded {
			return m, m.load()
		}
		return m, nil
	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) handleKey(chord shortcut.KeyChord) tea.Cmd {
	action, ok := m.deps.Bindings.Dispatch(chord, m.started)
	if !ok {
		// Filter toggles mirror checkboxes and work before the drill starts.
		a, found := m.deps.Bindings.Lookup(chord)
		if !found || !isToggle(a) {
			return nil
		}
		action = a
	}
	return m.handleAction(action)
}

func (m *Model) handleAction(action shortcut.Action) tea.Cmd {
	if i, ok := shortcut.AnswerIndex(action); ok {
		return m.answer(i)
	}
	if p, ok := shortcut.PitchToggle(action); ok {
		m.config.Filters.Pitches[p] = !m.config.Filters.Pitches[p]
		return m.filtersChanged()
	}
	switch action {
	case shortcut.Continue:
		if !m.started {
			return m.start()
		}
		switch m.state {
		case stateGraded:
			// A pending auto-advance owns the transition.
			if session.ShouldAutoAdvance(m.last, m.config.PauseAfterCorrect) {
				return nil
			}
			return m.load()
		case stateError, stateEmpty:
			return m.load()
		}
		return nil
	case shortcut.PlayAudio:
		if m.session == nil {
			return nil
		}
		if turn := m.session.Active(); turn != nil && (m.state == stateAsking || m.state == stateGraded) {
			m.play(turn, turn.CorrectIndex)
		}
		return nil
	case shortcut.Quit:
		if m.deps.Quit != nil {
			m.deps.Quit.MarkIntentionalQuit()
		}
		m.finish()
		return tea.Quit
	case shortcut.ToggleDevoiced:
		m.config.Filters.Devoiced = !m.config.Filters.Devoiced
		return m.filtersChanged()
	case shortcut.ToggleStrict:
		m.config.Filters.Strict = !m.config.Filters.Strict
		return m.filtersChanged()
	case shortcut.TogglePause:
		m.config.PauseAfterCorrect = !m.config.PauseAfterCorrect
		return nil
	}
	return nil
}

func isToggle(a shortcut.Action) bool {
	if _, ok := shortcut.PitchToggle(a); ok {
		return true
	}
	switch a {
	case shortcut.ToggleDevoiced, shortcut.ToggleStrict, shortcut.TogglePause:
		return true
	}
	return false
}

func (m *Model) start() tea.Cmd {
	m.started = true
	m.session = session.New(store.NewSessionID(), m.deps.Now)
	m.logger.Info("drill started", zap.String("session", m.session.ID), zap.String("source", m.config.Source))
	return m.load()
}

func (m *Model) load() tea.Cmd {
	m.loadSeq++
	m.state = stateLoading
	m.err = nil
	seq := m.loadSeq
	ctx := m.ctx
	queue := m.deps.Queue
	fetch := func() tea.Msg {
		rec, err := queue.Next(ctx)
		return recordMsg{seq: seq, rec: rec, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m *Model) filtersChanged() tea.Cmd {
	if m.deps.Fetcher != nil {
		m.deps.Fetcher.SetFilters(m.config.Filters)
	}
	if !m.started {
		return nil
	}
	m.deps.Queue.Invalidate()
	return m.load()
}

func (m *Model) handleRecord(msg recordMsg) tea.Cmd {
	if msg.seq != m.loadSeq {
		return nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, pairs.ErrNoCandidates) {
			m.state = stateEmpty
			return nil
		}
		if errors.Is(msg.err, context.Canceled) {
			return nil
		}
		m.state = stateError
		m.err = msg.err
		m.logger.Warn("failed to load record", zap.Error(msg.err))
		return nil
	}
	correct := m.deps.Picker.Intn(len(msg.rec.Pairs))
	turn, err := m.session.Begin(msg.rec, correct)
	if err != nil {
		m.state = stateError
		m.err = err
		m.logger.Warn("invalid record", zap.String("record", msg.rec.ID), zap.Error(err))
		return nil
	}
	m.state = stateAsking
	m.logger.Debug("turn ready", zap.String("record", msg.rec.ID), zap.String("category", string(turn.Category)))
	m.play(turn, turn.CorrectIndex)
	return nil
}

func (m *Model) answer(i int) tea.Cmd {
	switch m.state {
	case stateAsking:
		turn := m.session.Active()
		if turn == nil || i < 0 || i >= len(turn.Options) {
			return nil
		}
		res, err := m.session.Grade(i)
		if err != nil {
			m.logger.Debug("grade ignored", zap.Error(err))
			return nil
		}
		m.last = res
		m.state = stateGraded
		m.logger.Debug("graded", zap.Bool("correct", res.Correct), zap.Int("selected", res.Selected), zap.String("category", string(res.Category)))
		if session.ShouldAutoAdvance(res, m.config.PauseAfterCorrect) {
			seq := m.loadSeq
			return tea.Tick(session.AutoAdvanceDelay, func(time.Time) tea.Msg {
				return advanceMsg{seq: seq}
			})
		}
		return nil
	case stateGraded:
		if turn := m.session.Active(); turn != nil {
			m.play(turn, i)
		}
	}
	return nil
}

func (m *Model) play(turn *session.Turn, i int) {
	if m.deps.Player == nil {
		return
	}
	sound, ok := turn.Sound(i)
	if !ok {
		return
	}
	if err := m.deps.Player.Play(m.ctx, sound); err != nil {
		m.logger.Warn("failed to play audio", zap.String("record", turn.Record.ID), zap.Error(err))
	}
}

// finish persists the session once.
func (m *Model) finish() {
	if m.finished || m.session == nil {
		return
	}
	m.finished = true
	stats := m.session.Stats(m.config.Source, m.config.Filters)
	if stats.Attempted == 0 || m.deps.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.deps.Store.InsertSession(ctx, stats, m.session.Answers()); err != nil {
		m.logger.Error("failed to save session", zap.Error(err))
		return
	}
	m.logger.Info("session saved", zap.String("session", stats.ID), zap.Int("attempted", stats.Attempted), zap.Int("correct", stats.Correct))
}

// Filters returns the filters in effect, including toggles made in the drill.
func (m *Model) Filters() model.Filters {
	return m.config.Filters
}

// Summary returns the overall counter of the current session.
func (m *Model) Summary() session.Counter {
	if m.session == nil {
		return session.Counter{}
	}
	return m.session.Overall()
}
