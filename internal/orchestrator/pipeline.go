package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/project-odysseus/odyctl/internal/logger"
)

// Stage is one sequential step of the bootstrap pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context) StageResult
}

// Pipeline runs stages in order, collecting results. A Fatal result
// halts the run; Warnings are accumulated and reported at the end.
type Pipeline struct {
	stages []Stage
	out    io.Writer
	log    logger.Logger
}

func NewPipeline(out io.Writer, log logger.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, out: out, log: log}
}

// Run executes the stages sequentially. It returns every result
// produced before the halt (inclusive) and whether the run completed
// without a fatal outcome.
func (p *Pipeline) Run(ctx context.Context) ([]StageResult, bool) {
	results := make([]StageResult, 0, len(p.stages))
	for _, st := range p.stages {
		if err := ctx.Err(); err != nil {
			results = append(results, fatal(st.Name, err, "run interrupted"))
			p.report(results)
			return results, false
		}

		p.log.Debug("running stage", logger.String("stage", st.Name))
		res := st.Run(ctx)
		results = append(results, res)

		for _, note := range res.Notes {
			fmt.Fprintln(p.out, "   "+note)
		}
		fmt.Fprintln(p.out, res.Line())

		if res.Severity == Fatal {
			if res.Hint != "" {
				fmt.Fprintln(p.out, "   hint: "+res.Hint)
			}
			p.report(results)
			return results, false
		}
	}
	p.report(results)
	return results, true
}

func (p *Pipeline) report(results []StageResult) {
	var warnings, failures []StageResult
	for _, r := range results {
		switch r.Severity {
		case Warning:
			warnings = append(warnings, r)
		case Fatal:
			failures = append(failures, r)
		}
	}

	fmt.Fprintln(p.out, strings.Repeat("-", 40))
	switch {
	case len(failures) > 0:
		fmt.Fprintf(p.out, "❌ setup halted at %q\n", failures[0].Stage)
	case len(warnings) > 0:
		fmt.Fprintf(p.out, "⚠️  setup finished with %d warning(s)\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintln(p.out, "   "+w.Line())
		}
	default:
		fmt.Fprintln(p.out, "✅ setup complete")
	}
}
