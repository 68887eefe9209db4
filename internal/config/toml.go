// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Drill     DrillConfig       `toml:"drill"`
	Server    ServerConfig      `toml:"server"`
	Shortcuts map[string]string `toml:"shortcuts"`
}

// DrillConfig maps drill-related settings.
type DrillConfig struct {
	Source            *string `toml:"source"`
	Pitches           *[]int  `toml:"pitches"`
	Devoiced          *bool   `toml:"devoiced"`
	Strict            *bool   `toml:"strict-pair-finding"`
	PauseAfterCorrect *bool   `toml:"pause-after-correct"`
	Player            *string `toml:"player"`
	WaitStart         *bool   `toml:"wait-start"`
}

// ServerConfig maps companion server settings.
type ServerConfig struct {
	Dir         *string `toml:"dir"`
	Host        *string `toml:"host"`
	Port        *int    `toml:"port"`
	PortRange   *int    `toml:"port-range"`
	OpenBrowser *bool   `toml:"open-browser"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
