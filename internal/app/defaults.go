package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the resolved locations eb works out of. Environment
// variables take precedence over the XDG-style home layout:
//
//	EB_CONFIG_PATH  config file     (default ~/.config/eb.toml)
//	EB_HOME         data directory  (default ~/.local/share/eb)
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults resolves the default paths for this process.
func GetDefaults() (Defaults, error) {
	configPath := os.Getenv("EB_CONFIG_PATH")
	baseDir := os.Getenv("EB_HOME")

	if configPath == "" || baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Defaults{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
		if configPath == "" {
			configPath = filepath.Join(home, ".config", "eb.toml")
		}
		if baseDir == "" {
			baseDir = filepath.Join(home, ".local", "share", "eb")
		}
	}

	return Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}
