package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// appName names the per-user config directory.
const appName = "staticscan"

// DefaultConfigPath returns the OS-specific config file path.
// Linux: $XDG_CONFIG_HOME/staticscan/config.yaml
// macOS: ~/Library/Application Support/staticscan/config.yaml
// Windows: %AppData%/staticscan/config.yaml
func DefaultConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}
	return filepath.Join(base, appName, "config.yaml"), nil
}

// ensureFile creates path and its parent directories with owner-only
// permissions. An existing file is left untouched.
func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("creating config file: %w", err)
	}
	return f.Close()
}
