package orchestrator

import "fmt"

// Severity classifies a stage outcome.
type Severity int

const (
	// OK: the stage succeeded (including idempotent no-ops).
	OK Severity = iota
	// Warning: partial success; reported, pipeline continues.
	Warning
	// Fatal: the pipeline halts immediately.
	Fatal
)

// StageResult is one stage's reported outcome.
type StageResult struct {
	Stage    string
	Severity Severity
	Err      error    // set for Fatal, sometimes for Warning
	Notes    []string // operator-facing detail lines (missing keys, tables)
	Hint     string   // remediation hint for fatal outcomes
}

func ok(stage string, notes ...string) StageResult {
	return StageResult{Stage: stage, Severity: OK, Notes: notes}
}

func warn(stage string, err error, notes ...string) StageResult {
	return StageResult{Stage: stage, Severity: Warning, Err: err, Notes: notes}
}

func fatal(stage string, err error, hint string) StageResult {
	return StageResult{Stage: stage, Severity: Fatal, Err: err, Hint: hint}
}

// Marker returns the operator-facing status marker for the severity.
func (s Severity) Marker() string {
	switch s {
	case Warning:
		return "⚠️"
	case Fatal:
		return "❌"
	default:
		return "✅"
	}
}

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Fatal:
		return "fatal"
	default:
		return "ok"
	}
}

// Line formats the result the way the pipeline prints it.
func (r StageResult) Line() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s: %v", r.Severity.Marker(), r.Stage, r.Err)
	}
	return fmt.Sprintf("%s %s", r.Severity.Marker(), r.Stage)
}
