package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/project-odysseus/odyctl/internal/logger"
)

func stage(name string, res StageResult, ran *[]string) Stage {
	return Stage{Name: name, Run: func(context.Context) StageResult {
		*ran = append(*ran, name)
		return res
	}}
}

func TestPipelineRunsInOrder(t *testing.T) {
	var ran []string
	var out bytes.Buffer
	p := NewPipeline(&out, logger.Nop(),
		stage("one", ok("one"), &ran),
		stage("two", ok("two"), &ran),
		stage("three", ok("three"), &ran),
	)

	results, completed := p.Run(context.Background())
	if !completed {
		t.Fatal("expected the pipeline to complete")
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	want := []string{"one", "two", "three"}
	for i, name := range want {
		if ran[i] != name {
			t.Errorf("stage %d: ran %q, want %q", i, ran[i], name)
		}
	}
	if !strings.Contains(out.String(), "✅ setup complete") {
		t.Errorf("expected a success summary, got:\n%s", out.String())
	}
}

func TestPipelineHaltsOnFatal(t *testing.T) {
	var ran []string
	var out bytes.Buffer
	boom := errors.New("daemon unreachable")
	p := NewPipeline(&out, logger.Nop(),
		stage("first", ok("first"), &ran),
		stage("broken", fatal("broken", boom, "start docker"), &ran),
		stage("never", ok("never"), &ran),
	)

	results, completed := p.Run(context.Background())
	if completed {
		t.Fatal("expected the pipeline to halt")
	}
	if len(ran) != 2 {
		t.Fatalf("expected 2 stages to run, got %v", ran)
	}
	last := results[len(results)-1]
	if last.Severity != Fatal || !errors.Is(last.Err, boom) {
		t.Fatalf("unexpected final result: %+v", last)
	}
	if !strings.Contains(out.String(), `setup halted at "broken"`) {
		t.Errorf("expected a halt summary, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "hint: start docker") {
		t.Errorf("expected the remediation hint, got:\n%s", out.String())
	}
}

func TestPipelineContinuesOnWarning(t *testing.T) {
	var ran []string
	var out bytes.Buffer
	p := NewPipeline(&out, logger.Nop(),
		stage("soft", warn("soft", errors.New("2 keys unset"), "missing: DB__PASSWORD"), &ran),
		stage("after", ok("after"), &ran),
	)

	results, completed := p.Run(context.Background())
	if !completed {
		t.Fatal("a warning must not halt the pipeline")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !strings.Contains(out.String(), "setup finished with 1 warning(s)") {
		t.Errorf("expected a warning summary, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "missing: DB__PASSWORD") {
		t.Errorf("expected the warning note, got:\n%s", out.String())
	}
}

func TestPipelineStopsWhenContextCancelled(t *testing.T) {
	var ran []string
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())

	p := NewPipeline(&out, logger.Nop(),
		Stage{Name: "first", Run: func(context.Context) StageResult {
			ran = append(ran, "first")
			cancel()
			return ok("first")
		}},
		stage("second", ok("second"), &ran),
	)

	_, completed := p.Run(ctx)
	if completed {
		t.Fatal("expected the run to stop after cancellation")
	}
	if len(ran) != 1 {
		t.Fatalf("expected only the first stage to run, got %v", ran)
	}
}

func TestSeverityMarkers(t *testing.T) {
	tests := []struct {
		severity Severity
		marker   string
		name     string
	}{
		{OK, "✅", "ok"},
		{Warning, "⚠️", "warning"},
		{Fatal, "❌", "fatal"},
	}
	for _, tt := range tests {
		if got := tt.severity.Marker(); got != tt.marker {
			t.Errorf("Marker(%v) = %q, want %q", tt.severity, got, tt.marker)
		}
		if got := tt.severity.String(); got != tt.name {
			t.Errorf("String(%v) = %q, want %q", tt.severity, got, tt.name)
		}
	}
}
