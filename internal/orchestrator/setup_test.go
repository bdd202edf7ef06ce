package orchestrator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/project-odysseus/odyctl/internal/logger"
)

type scriptedPrompter struct {
	answers []bool
	asked   int
	onAsk   func() // simulates the operator editing the file
}

func (p *scriptedPrompter) Confirm(string) bool {
	if p.onAsk != nil {
		p.onAsk()
	}
	if p.asked >= len(p.answers) {
		return false
	}
	ans := p.answers[p.asked]
	p.asked++
	return ans
}

func writeEnv(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const completeEnv = `DB__PASSWORD=s3cret
EXCHANGES__BINANCE_API_KEY=abc123
EXCHANGES__BINANCE_SECRET_KEY=def456
MONITORING__TELEGRAM_BOT_TOKEN=tok789
`

func TestValidateEnvComplete(t *testing.T) {
	s := &Setup{
		out:     new(bytes.Buffer),
		log:     logger.Nop(),
		envPath: writeEnv(t, t.TempDir(), completeEnv),
	}

	res := s.validateEnv(context.Background())
	if res.Severity != OK {
		t.Fatalf("expected OK, got %v (%v)", res.Severity, res.Err)
	}
}

func TestValidateEnvMissingFileIsFatal(t *testing.T) {
	s := &Setup{
		out:     new(bytes.Buffer),
		log:     logger.Nop(),
		envPath: filepath.Join(t.TempDir(), ".env"),
	}

	res := s.validateEnv(context.Background())
	if res.Severity != Fatal {
		t.Fatalf("expected Fatal for a missing env file, got %v", res.Severity)
	}
}

func TestValidateEnvWarnsWhenHeadless(t *testing.T) {
	s := &Setup{
		out:     new(bytes.Buffer),
		log:     logger.Nop(),
		envPath: writeEnv(t, t.TempDir(), "DB__PASSWORD=your_password_here\n"),
	}

	res := s.validateEnv(context.Background())
	if res.Severity != Warning {
		t.Fatalf("expected Warning, got %v", res.Severity)
	}
	if len(res.Notes) != 4 {
		t.Fatalf("expected a note per required key, got %v", res.Notes)
	}
}

func TestValidateEnvRechecksAfterPrompt(t *testing.T) {
	dir := t.TempDir()
	path := writeEnv(t, dir, "DB__PASSWORD=your_password_here\n")

	prompter := &scriptedPrompter{
		answers: []bool{true},
		onAsk: func() {
			if err := os.WriteFile(path, []byte(completeEnv), 0o600); err != nil {
				t.Error(err)
			}
		},
	}
	s := &Setup{
		out:      new(bytes.Buffer),
		log:      logger.Nop(),
		envPath:  path,
		prompter: prompter,
	}

	res := s.validateEnv(context.Background())
	if res.Severity != OK {
		t.Fatalf("expected OK after the re-check, got %v (%v)", res.Severity, res.Err)
	}
	if prompter.asked != 1 {
		t.Fatalf("expected one prompt, got %d", prompter.asked)
	}
}

func TestValidateEnvPromptDeclinedFallsBackToWarning(t *testing.T) {
	s := &Setup{
		out:      new(bytes.Buffer),
		log:      logger.Nop(),
		envPath:  writeEnv(t, t.TempDir(), "DB__PASSWORD=x\n"),
		prompter: &scriptedPrompter{answers: []bool{false}},
	}

	res := s.validateEnv(context.Background())
	if res.Severity != Warning {
		t.Fatalf("expected Warning after declining, got %v", res.Severity)
	}
	if len(res.Notes) != 3 {
		t.Fatalf("expected 3 missing keys, got %v", res.Notes)
	}
}

func TestStageOrder(t *testing.T) {
	s := &Setup{log: logger.Nop()}
	want := []string{
		"prerequisites", "configuration", "environment", "local domains",
		"certificates", "proxy config", "infrastructure", "services", "health",
	}
	stages := s.Stages()
	if len(stages) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(stages))
	}
	for i, name := range want {
		if stages[i].Name != name {
			t.Errorf("stage %d: got %q, want %q", i, stages[i].Name, name)
		}
	}
}
