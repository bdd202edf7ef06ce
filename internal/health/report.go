package health

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Kind classifies a probe target.
type Kind string

const (
	KindHTTP      Kind = "http"
	KindContainer Kind = "container"
	KindDatastore Kind = "datastore"
)

// Result is one probe outcome.
type Result struct {
	Name    string
	Kind    Kind
	Detail  string // URL, container name, or DSN host
	Healthy bool
	Err     string
}

// Report aggregates one verification pass. Produced fresh each run, never
// persisted.
type Report struct {
	Results []Result
}

// Healthy returns how many targets passed.
func (r *Report) Healthy() int {
	n := 0
	for _, res := range r.Results {
		if res.Healthy {
			n++
		}
	}
	return n
}

// Total returns the number of probed targets.
func (r *Report) Total() int { return len(r.Results) }

// AllHealthy reports whether every target passed.
func (r *Report) AllHealthy() bool { return r.Healthy() == r.Total() }

// Summary is the one-line tally printed at the end of a run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d/%d targets healthy", r.Healthy(), r.Total())
}

// Render returns the report as a text table.
func (r *Report) Render() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Target", "Kind", "Detail", "Status"})
	for _, res := range r.Results {
		status := "✅ healthy"
		if !res.Healthy {
			status = "❌ " + res.Err
		}
		t.AppendRow(table.Row{res.Name, string(res.Kind), res.Detail, status})
	}
	t.AppendFooter(table.Row{"", "", "", r.Summary()})
	return t.Render()
}
