package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/minipair/internal/config"
	"github.com/verte-zerg/minipair/internal/pairs"
	"github.com/verte-zerg/minipair/internal/server"
)

const (
	defaultServeHost      = "localhost"
	defaultServePort      = server.DefaultPort
	defaultServePortRange = server.DefaultPortRange
	browserOpenDelay      = 500 * time.Millisecond
	checkConcurrency      = 8
)

var (
	serveDir       string
	serveHost      string
	servePort      int
	servePortRange int
	serveOpen      bool

	checkSource string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pair data to drill clients",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveDir, "dir", config.DefaultDataDir(), "pair data directory")
	cmd.Flags().StringVar(&serveHost, "host", defaultServeHost, "listen host")
	cmd.Flags().IntVar(&servePort, "port", defaultServePort, "first port to try")
	cmd.Flags().IntVar(&servePortRange, "port-range", defaultServePortRange, "number of consecutive ports to try")
	cmd.Flags().BoolVar(&serveOpen, "open", false, "open the served URL in a browser")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "dir", &serveDir, fileCfg.Server.Dir)
	applyStringConfig(cmd, "host", &serveHost, fileCfg.Server.Host)
	applyIntConfig(cmd, "port", &servePort, fileCfg.Server.Port)
	applyIntConfig(cmd, "port-range", &servePortRange, fileCfg.Server.PortRange)
	applyBoolConfig(cmd, "open", &serveOpen, fileCfg.Server.OpenBrowser)

	if servePort <= 0 || servePort > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535")
	}
	if servePortRange <= 0 {
		return fmt.Errorf("--port-range must be > 0")
	}
	if _, err := os.Stat(filepath.Join(serveDir, pairs.IndexFile)); err != nil {
		return fmt.Errorf("no %s in %s: %w", pairs.IndexFile, serveDir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	ln, err := server.Listen(serveHost, servePort, servePortRange)
	if err != nil {
		return err
	}
	address := "http://" + ln.Addr().String() + "/"
	logger.Info("serving pair data", zap.String("dir", serveDir), zap.String("url", address))
	logErrf("Serving %s at %s\n", serveDir, address)
	logErrf("Drill with: minipair --source %s\n", address)

	if serveOpen {
		timer := time.AfterFunc(browserOpenDelay, func() {
			if err := openBrowser(address); err != nil {
				logger.Warn("failed to open browser", zap.Error(err))
			}
		})
		defer timer.Stop()
	}

	srv := server.New(server.Config{Dir: serveDir}, logger)
	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}
	logErrln("Server stopped")
	return nil
}

func openBrowser(address string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", address)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", address)
	default:
		cmd = exec.Command("xdg-open", address)
	}
	return cmd.Start()
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate that every indexed record decodes",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
	cmd.Flags().StringVar(&checkSource, "source", config.DefaultDataDir(), "data directory or companion server URL")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	src, err := pairs.NewSource(checkSource)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	idx, err := src.Index(ctx)
	if err != nil {
		return sourceLoadError(checkSource, err)
	}
	ids := idx.All()
	failures, err := checkRecords(ctx, src, ids)
	if err != nil {
		return err
	}
	for _, f := range failures {
		logErrln(f)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d records, %d invalid\n", len(ids), len(failures)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d invalid records in %s", len(failures), src.Location())
	}
	return nil
}

// checkRecords loads every id and returns one line per record that fails.
func checkRecords(ctx context.Context, src pairs.Source, ids []string) ([]string, error) {
	var (
		mu       sync.Mutex
		failures []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := src.Record(gctx, id); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(failures)
	return failures, nil
}
