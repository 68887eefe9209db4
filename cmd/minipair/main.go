// Package main provides the CLI entrypoint for minipair.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/verte-zerg/minipair/internal/audio"
	"github.com/verte-zerg/minipair/internal/config"
	"github.com/verte-zerg/minipair/internal/model"
	"github.com/verte-zerg/minipair/internal/pairs"
	"github.com/verte-zerg/minipair/internal/session"
	"github.com/verte-zerg/minipair/internal/shortcut"
	"github.com/verte-zerg/minipair/internal/shutdown"
	"github.com/verte-zerg/minipair/internal/stats"
	"github.com/verte-zerg/minipair/internal/store"
	"github.com/verte-zerg/minipair/internal/tui"
)

const (
	defaultCurveWindow = 5
	beaconTimeout      = 2 * time.Second
)

var defaultPitches = []int{0, 1, 2, 3, 4}

var (
	verbose bool
	logger  *zap.Logger

	drillSource            string
	drillPitches           []int
	drillDevoiced          bool
	drillStrict            bool
	drillPauseAfterCorrect bool
	drillPlayer            string
	drillWaitStart         bool

	statsSince       string
	statsLast        int
	statsCurveWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "minipair",
		Short:         "Japanese pitch-accent minimal pairs drill",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// The drill owns the terminal, so it logs to a file.
			logPath := ""
			if cmd == cmd.Root() {
				logPath = config.DefaultLogPath()
			}
			var err error
			logger, err = newLogger(verbose, logPath)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: runDrillCmd,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&drillSource, "source", config.DefaultDataDir(), "data directory or companion server URL")
	rootCmd.Flags().IntSliceVar(&drillPitches, "pitch", defaultPitches, "pitch buckets to drill (0-4)")
	rootCmd.Flags().BoolVar(&drillDevoiced, "devoiced", false, "only drill records with devoiced morae")
	rootCmd.Flags().BoolVar(&drillStrict, "strict", false, "exclude records that also belong to unchecked pitch buckets")
	rootCmd.Flags().BoolVar(&drillPauseAfterCorrect, "pause-after-correct", false, "wait for continue after a correct answer")
	rootCmd.Flags().StringVar(&drillPlayer, "player", audio.DefaultCommand, "audio player command; empty disables audio")
	rootCmd.Flags().BoolVar(&drillWaitStart, "wait-start", false, "wait for the continue key before the first pair")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckCmd())

	return rootCmd
}

func newLogger(debug bool, path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}
	return cfg.Build()
}

func runDrillCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "source", &drillSource, fileCfg.Drill.Source)
	applyIntSliceConfig(cmd, "pitch", &drillPitches, fileCfg.Drill.Pitches)
	applyBoolConfig(cmd, "devoiced", &drillDevoiced, fileCfg.Drill.Devoiced)
	applyBoolConfig(cmd, "strict", &drillStrict, fileCfg.Drill.Strict)
	applyBoolConfig(cmd, "pause-after-correct", &drillPauseAfterCorrect, fileCfg.Drill.PauseAfterCorrect)
	applyStringConfig(cmd, "player", &drillPlayer, fileCfg.Drill.Player)
	applyBoolConfig(cmd, "wait-start", &drillWaitStart, fileCfg.Drill.WaitStart)

	filters, err := buildFilters(drillPitches, drillDevoiced, drillStrict)
	if err != nil {
		return err
	}
	cfg := model.Config{
		Source:            drillSource,
		Filters:           filters,
		PauseAfterCorrect: drillPauseAfterCorrect,
		Player:            drillPlayer,
		WaitStart:         drillWaitStart,
		Shortcuts:         fileCfg.Shortcuts,
	}

	bindings := shortcut.DefaultBindings()
	if err := bindings.Apply(cfg.Shortcuts); err != nil {
		return fmt.Errorf("invalid [shortcuts] config: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	src, err := pairs.NewSource(cfg.Source)
	if err != nil {
		return err
	}
	idx, err := src.Index(ctx)
	if err != nil {
		return sourceLoadError(cfg.Source, err)
	}
	logger.Info("index loaded", zap.String("source", src.Location()), zap.Int("records", len(idx.All())))

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	player := audio.NewPlayer(resolvePlayer(cfg.Player), logger)
	defer player.Close()

	picker := pairs.NewPicker()
	fetcher := pairs.NewFetcher(src, idx, picker, cfg.Filters)
	prefetcher := pairs.NewPrefetcher(ctx, fetcher.Fetch)
	defer prefetcher.Close()

	var base *url.URL
	if hs, ok := src.(*pairs.HTTPSource); ok {
		base = hs.BaseURL()
	}
	beacon := shutdown.NewBeacon(base, nil, logger)

	drill := tui.NewModel(ctx, cfg, tui.Deps{
		Fetcher:  fetcher,
		Queue:    prefetcher,
		Picker:   picker,
		Bindings: bindings,
		Player:   player,
		Store:    st,
		Quit:     beacon,
		Logger:   logger,
	})
	program := tea.NewProgram(drill, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	sendCtx, cancelSend := context.WithTimeout(context.Background(), beaconTimeout)
	defer cancelSend()
	if beacon.Send(sendCtx) {
		logger.Info("companion server asked to shut down")
	}

	if summary := drill.Summary(); summary.Attempted > 0 {
		logErrf("%d of %d correct (%d%%)\n", summary.Correct, summary.Attempted, session.Percent(summary.Correct, summary.Attempted))
	}
	return nil
}

func buildFilters(pitches []int, devoiced, strict bool) (model.Filters, error) {
	filters := model.Filters{Devoiced: devoiced, Strict: strict}
	for _, p := range pitches {
		if p < 0 || p >= model.NumPitches {
			return model.Filters{}, fmt.Errorf("--pitch values must be between 0 and %d", model.NumPitches-1)
		}
		filters.Pitches[p] = true
	}
	return filters, nil
}

// resolvePlayer returns command when its binary exists, otherwise "".
func resolvePlayer(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		logErrf("audio player %q not found; audio disabled (set --player)\n", fields[0])
		return ""
	}
	return command
}

func sourceLoadError(source string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load pair index: %v", err),
		fmt.Sprintf("expected %s at: %s", pairs.IndexFile, source),
		"Point --source at a data directory or a running companion server:",
		"  minipair --source <dir>",
		"  minipair serve --dir <dir>",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(cmd.Context(), st, model.StatsConfig{Since: sinceTime, Last: statsLast})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	return report.Render(out, statsCurveWindow, stats.ShouldUseColor(out))
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntSliceConfig(cmd *cobra.Command, name string, target, value *[]int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]int(nil), (*value)...)
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# minipair configuration
# Uncomment a value to enable it. CLI flags override config values.

[drill]
# source = %q                # Data directory or companion server URL
# pitches = [0, 1, 2, 3, 4]  # Pitch buckets to drill
# devoiced = false           # Only records with devoiced morae
# strict-pair-finding = false
# pause-after-correct = false
# player = %q
# wait-start = false         # Wait for the continue key before the first pair

[server]
# dir = %q
# host = %q
# port = %d
# port-range = %d            # Consecutive ports tried when busy
# open-browser = false

[shortcuts]
# Notation: ^ ctrl, + shift, ! alt, # meta, then the key (e.g. "^r", "Space", "→").
# answer_button_1 = "1"
# answer_button_2 = "2"
# answer_button_3 = "3"
# continue = "Space"
# play_audio = "r"
# quit = "q"
# toggle_pitch0 = "F1"
# toggle_devoiced = "F6"
# toggle_strict = "F7"
# toggle_pause = "F8"
`,
		config.DefaultDataDir(),
		audio.DefaultCommand,
		config.DefaultDataDir(),
		defaultServeHost,
		defaultServePort,
		defaultServePortRange,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
