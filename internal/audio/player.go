// Package audio plays base64 clips through an external player command.
package audio

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultCommand plays one file and exits.
const DefaultCommand = "ffplay -nodisp -autoexit -loglevel quiet"

// Player runs one clip at a time; starting a clip stops the previous one.
type Player struct {
	argv   []string
	logger *zap.Logger

	mu      sync.Mutex
	current *exec.Cmd
	wg      sync.WaitGroup
}

// NewPlayer returns a player for command. An empty command disables playback.
func NewPlayer(command string, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{argv: strings.Fields(command), logger: logger}
}

// Enabled reports whether a player command is configured.
func (p *Player) Enabled() bool {
	return len(p.argv) > 0
}

// Decode decodes a base64 clip.
func Decode(soundData string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(soundData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("audio clip is empty")
	}
	return data, nil
}

// Play restarts playback with the given clip.
func (p *Player) Play(ctx context.Context, soundData string) error {
	if !p.Enabled() {
		return nil
	}
	data, err := Decode(soundData)
	if err != nil {
		return err
	}
	path, err := writeClip(data)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	cmd := exec.CommandContext(ctx, p.argv[0], append(p.argv[1:], path)...)
	if err := cmd.Start(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to start player: %w", err)
	}
	p.current = cmd
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := cmd.Wait(); err != nil {
			p.logger.Debug("player exited", zap.Error(err))
		}
		_ = os.Remove(path)
		p.mu.Lock()
		if p.current == cmd {
			p.current = nil
		}
		p.mu.Unlock()
	}()
	return nil
}

// Stop interrupts the clip being played, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

func (p *Player) stopLocked() {
	if p.current == nil || p.current.Process == nil {
		return
	}
	if err := p.current.Process.Kill(); err != nil {
		p.logger.Debug("failed to stop player", zap.Error(err))
	}
	p.current = nil
}

// Close stops playback and waits for the player process to exit.
func (p *Player) Close() {
	p.Stop()
	p.wg.Wait()
}

func writeClip(data []byte) (string, error) {
	f, err := os.CreateTemp("", "minipair-*.ogg")
	if err != nil {
		return "", fmt.Errorf("failed to create clip file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write clip: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close clip: %w", err)
	}
	return path, nil
}
