package backup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/project-odysseus/odyctl/internal/logger"
)

type fakeRunner struct {
	calls    [][]string
	dumpOut  string // stdout: the dump itself
	warnOut  string // stderr: pg_dump notices
	failDump bool
	stdin    string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.failDump {
		return "pg_dump: error", errors.New("exit status 1")
	}
	return f.dumpOut + f.warnOut, nil
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.failDump {
		return "", errors.New("exit status 1")
	}
	return f.dumpOut, nil
}

func (f *fakeRunner) RunInput(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	f.stdin = string(b)
	return "", nil
}

func (f *fakeRunner) Stream(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil
}

func newTestManager(t *testing.T, runner *fakeRunner) *Manager {
	t.Helper()
	m := NewManager(runner, "docker-compose.yml", filepath.Join(t.TempDir(), "backups"), "odysseus", "odysseus", logger.Nop())
	m.now = func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestCreateWritesDump(t *testing.T) {
	runner := &fakeRunner{dumpOut: "-- PostgreSQL database dump\nCREATE TABLE trades ();\n"}
	m := newTestManager(t, runner)

	path, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Base(path) != "odysseus_backup_20260110_120000.sql" {
		t.Errorf("unexpected backup name: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != runner.dumpOut {
		t.Errorf("backup content does not match the dump output")
	}

	cmd := strings.Join(runner.calls[0], " ")
	want := "docker compose -f docker-compose.yml exec -T postgres pg_dump -U odysseus -d odysseus"
	if cmd != want {
		t.Errorf("dump command:\n got %q\nwant %q", cmd, want)
	}
}

func TestCreateExcludesStderrNoise(t *testing.T) {
	runner := &fakeRunner{
		dumpOut: "-- PostgreSQL database dump\nCREATE TABLE trades ();\n",
		warnOut: "pg_dump: warning: circular foreign-key constraint\n",
	}
	m := newTestManager(t, runner)

	path, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != runner.dumpOut {
		t.Errorf("dump file = %q, want stdout only", content)
	}
	if strings.Contains(string(content), "warning") {
		t.Error("stderr notices leaked into the dump file")
	}
}

func TestCreateFailsWithoutWriting(t *testing.T) {
	runner := &fakeRunner{failDump: true}
	m := newTestManager(t, runner)

	if _, err := m.Create(context.Background()); err == nil {
		t.Fatal("expected an error when pg_dump fails")
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no backup file after a failed dump, found %d", len(entries))
	}
}

func TestRestoreFeedsDumpToPsql(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestManager(t, runner)

	path := filepath.Join(t.TempDir(), "dump.sql")
	const dump = "CREATE TABLE trades ();\n"
	if err := os.WriteFile(path, []byte(dump), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := m.Restore(context.Background(), path); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if runner.stdin != dump {
		t.Errorf("psql stdin = %q, want %q", runner.stdin, dump)
	}
	cmd := strings.Join(runner.calls[0], " ")
	want := "docker compose -f docker-compose.yml exec -T postgres psql -U odysseus -d odysseus"
	if cmd != want {
		t.Errorf("restore command:\n got %q\nwant %q", cmd, want)
	}
}

func TestRestoreMissingFile(t *testing.T) {
	m := newTestManager(t, &fakeRunner{})
	if err := m.Restore(context.Background(), filepath.Join(t.TempDir(), "nope.sql")); err == nil {
		t.Fatal("expected an error for a missing backup file")
	}
}

func TestListNewestFirst(t *testing.T) {
	runner := &fakeRunner{dumpOut: "dump\n"}
	m := newTestManager(t, runner)

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	old := filepath.Join(m.dir, "odysseus_backup_20250101_000000.sql")
	recent := filepath.Join(m.dir, "odysseus_backup_20260101_000000.sql")
	for _, p := range []string{old, recent} {
		if err := os.WriteFile(p, []byte("dump\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	then := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(old, then, then); err != nil {
		t.Fatal(err)
	}
	// a stray file must not be listed
	if err := os.WriteFile(filepath.Join(m.dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(infos))
	}
	if infos[0].Name != filepath.Base(recent) {
		t.Errorf("expected the newest backup first, got %s", infos[0].Name)
	}
}

func TestListMissingDirectory(t *testing.T) {
	m := NewManager(&fakeRunner{}, "docker-compose.yml", filepath.Join(t.TempDir(), "absent"), "odysseus", "odysseus", logger.Nop())
	infos, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if infos != nil {
		t.Errorf("expected no backups, got %v", infos)
	}
}
