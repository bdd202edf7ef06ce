package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/project-odysseus/odyctl/internal/logger"
)

const backupTimestamp = "20060102_150405"

// ErrStagedMissing means the staged configuration source does not exist.
// This is a pre-flight failure: nothing has been touched yet.
var ErrStagedMissing = errors.New("staged configuration not found")

// ErrValidation means the freshly installed configuration failed to load.
// The invalid file and the backup are both left in place; recovery is a
// manual restore from the backup.
var ErrValidation = errors.New("installed configuration failed validation")

// Migrator installs the staged unified configuration over the active one,
// taking a timestamped backup of the previous active file first. Backups are
// never overwritten or pruned; they form an append-only history.
type Migrator struct {
	StagedPath string // ex: config/config.enhanced.yaml
	ActivePath string // ex: config/config.yaml

	log logger.Logger
	now func() time.Time
}

func NewMigrator(stagedPath, activePath string, log logger.Logger) *Migrator {
	return &Migrator{
		StagedPath: stagedPath,
		ActivePath: activePath,
		log:        log,
		now:        time.Now,
	}
}

// Migrate runs the backup / install / validate sequence. It returns the
// backup path when a backup was taken (empty on a fresh install).
func (m *Migrator) Migrate() (backupPath string, err error) {
	staged, err := os.ReadFile(m.StagedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrStagedMissing, m.StagedPath)
		}
		return "", fmt.Errorf("failed to read staged config: %w", err)
	}

	if prev, rerr := os.ReadFile(m.ActivePath); rerr == nil {
		backupPath = uniquePath(fmt.Sprintf("%s.backup.%s", m.ActivePath, m.now().Format(backupTimestamp)))
		if werr := os.WriteFile(backupPath, prev, 0o644); werr != nil {
			return "", fmt.Errorf("failed to back up active config: %w", werr)
		}
		m.log.Info("backed up active configuration",
			logger.String("backup", backupPath))
	} else if !os.IsNotExist(rerr) {
		return "", fmt.Errorf("failed to read active config: %w", rerr)
	}

	if err := m.install(staged); err != nil {
		return backupPath, err
	}

	// Validation gate: the new file must load cleanly before the migration
	// counts as committed. On failure the invalid file stays installed and
	// the operator restores from the backup by hand.
	if _, lerr := Load(m.ActivePath); lerr != nil {
		return backupPath, fmt.Errorf("%w: %v", ErrValidation, lerr)
	}

	m.log.Info("configuration migrated", logger.String("active", m.ActivePath))
	return backupPath, nil
}

// uniquePath suffixes the candidate until it names no existing file, so two
// migrations in the same second never overwrite each other's backup.
func uniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", path, i)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}

// install writes the new content with a same-directory temp file and a
// rename, so the active path is never left partially written.
func (m *Migrator) install(content []byte) error {
	dir := filepath.Dir(m.ActivePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-install-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp config: %w", err)
	}
	if err := os.Rename(tmpName, m.ActivePath); err != nil {
		return fmt.Errorf("failed to install config: %w", err)
	}
	return nil
}
