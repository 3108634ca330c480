// Package sqlitepath resolves the SQLite database used by the CLI commands.
package sqlitepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvVar overrides the default database location.
const EnvVar = "AGENTSTREAM_SQLITE"

// ResolveSQLitePath returns flagPath when set, then $AGENTSTREAM_SQLITE, then
// ~/.agentstream/agentstream.db. The default directory is created if needed.
func ResolveSQLitePath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	dir := filepath.Join(home, ".agentstream")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}

	return filepath.Join(dir, "agentstream.db"), nil
}
