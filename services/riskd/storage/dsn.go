package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// WAL keeps rate queries readable while evaluations and settlements write;
// the busy timeout covers keeper bots polling during a checkpoint.
const fileDSNOptions = "mode=rwc&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// FileDSN builds the on-disk SQLite DSN for the riskd position store from a
// filesystem path.
func FileDSN(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", ErrPathRequired
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	return fmt.Sprintf("file:%s?%s", abs, fileDSNOptions), nil
}
