// Package backup creates and restores database dumps through the
// postgres container, so no client tools are needed on the host.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/project-odysseus/odyctl/internal/launcher"
	"github.com/project-odysseus/odyctl/internal/logger"
	"github.com/project-odysseus/odyctl/internal/utils"
)

const (
	filePrefix = "odysseus_backup_"
	fileSuffix = ".sql"

	// postgres is addressed by its compose service name.
	dbService = "postgres"
)

// Manager drives pg_dump and psql inside the database container.
type Manager struct {
	runner      launcher.Runner
	composeFile string
	dir         string
	dbName      string
	dbUser      string
	log         logger.Logger
	now         func() time.Time
}

// Info describes one dump on disk.
type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
}

func NewManager(runner launcher.Runner, composeFile, dir, dbName, dbUser string, log logger.Logger) *Manager {
	return &Manager{
		runner:      runner,
		composeFile: composeFile,
		dir:         dir,
		dbName:      dbName,
		dbUser:      dbUser,
		log:         log,
		now:         time.Now,
	}
}

// Create dumps the database into a timestamped file under the backup
// directory and returns its path.
func (m *Manager) Create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	args := m.execArgs("pg_dump", "-U", m.dbUser, "-d", m.dbName)
	m.log.Info("dumping database",
		logger.String("database", m.dbName),
		logger.String("service", dbService))

	// Output, not Run: pg_dump routinely prints notices to stderr, and a
	// combined capture would interleave them into the dump itself.
	out, err := m.runner.Output(ctx, "docker", args...)
	if err != nil {
		return "", fmt.Errorf("failed to dump database: %w", err)
	}

	name := filePrefix + m.now().Format("20060102_150405") + fileSuffix
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	m.log.Info("backup written", logger.String("path", path))
	return path, nil
}

// Restore feeds an existing dump file to psql inside the container.
func (m *Manager) Restore(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer utils.Close(f)

	args := m.execArgs("psql", "-U", m.dbUser, "-d", m.dbName)
	m.log.Info("restoring database",
		logger.String("database", m.dbName),
		logger.String("path", path))

	if out, err := m.runner.RunInput(ctx, f, "docker", args...); err != nil {
		return fmt.Errorf("failed to restore database: %w\n%s", err, strings.TrimSpace(out))
	}
	return nil
}

// List returns the dumps in the backup directory, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var infos []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: name, Size: fi.Size(), ModTime: fi.ModTime()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ModTime.After(infos[j].ModTime) })
	return infos, nil
}

func (m *Manager) execArgs(cmd string, extra ...string) []string {
	args := []string{"compose", "-f", m.composeFile, "exec", "-T", dbService, cmd}
	return append(args, extra...)
}
