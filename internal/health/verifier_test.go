package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/project-odysseus/odyctl/internal/launcher"
	"github.com/project-odysseus/odyctl/internal/logger"
)

// fakeInspector serves scripted container states.
type fakeInspector struct {
	states map[string]ContainerState
}

func (f *fakeInspector) Inspect(ctx context.Context, name string) (ContainerState, error) {
	state, ok := f.states[name]
	if !ok {
		return ContainerState{Name: name}, fmt.Errorf("container %s not found", name)
	}
	return state, nil
}

func allRunning(profile launcher.Profile) *fakeInspector {
	f := &fakeInspector{states: make(map[string]ContainerState)}
	for _, name := range containerNames(profile) {
		f.states[name] = ContainerState{Name: name, Status: "running", Running: true}
	}
	return f
}

func newTestVerifier(profile launcher.Profile, inspector Inspector) *Verifier {
	v := NewVerifier(profile, inspector, "postgres://x", "localhost:6379", "", logger.Nop())
	v.httpProbe = func(ctx context.Context, url string) error { return nil }
	v.postgresProbe = func(ctx context.Context) error { return nil }
	v.redisProbe = func(ctx context.Context) error { return nil }
	return v
}

func TestRunAllHealthy(t *testing.T) {
	v := newTestVerifier(launcher.ProfileBasic, allRunning(launcher.ProfileBasic))
	report := v.Run(context.Background())

	if !report.AllHealthy() {
		t.Errorf("report should be fully healthy, got %s", report.Summary())
	}
	// basic: 1 http + 4 containers + 2 datastores
	if report.Total() != 7 {
		t.Errorf("Total() = %d, want 7", report.Total())
	}
}

func TestRunSingleFailureIsRecordedNotFatal(t *testing.T) {
	inspector := allRunning(launcher.ProfileBasic)
	inspector.states["odysseus_bot"] = ContainerState{Name: "odysseus_bot", Status: "exited"}

	v := newTestVerifier(launcher.ProfileBasic, inspector)
	report := v.Run(context.Background())

	if report.AllHealthy() {
		t.Fatal("report should record the exited container")
	}
	if got, want := report.Healthy(), report.Total()-1; got != want {
		t.Errorf("Healthy() = %d, want %d", got, want)
	}

	var found bool
	for _, res := range report.Results {
		if res.Name == "odysseus_bot" && !res.Healthy {
			found = true
			if !strings.Contains(res.Err, "exited") {
				t.Errorf("failure should carry the container state, got %q", res.Err)
			}
		}
	}
	if !found {
		t.Error("odysseus_bot failure missing from report")
	}
}

func TestRunProfileTargetSets(t *testing.T) {
	tests := []struct {
		profile   launcher.Profile
		wantHTTP  int
		wantTotal int
	}{
		{launcher.ProfileBasic, 1, 1 + 4 + 2},
		{launcher.ProfileDevelopment, 2, 2 + 6 + 2},
		{launcher.ProfileFull, 4, 4 + 9 + 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			v := newTestVerifier(tt.profile, allRunning(tt.profile))
			report := v.Run(context.Background())
			if report.Total() != tt.wantTotal {
				t.Errorf("Total() = %d, want %d", report.Total(), tt.wantTotal)
			}
			if got := len(httpTargets(tt.profile)); got != tt.wantHTTP {
				t.Errorf("http targets = %d, want %d", got, tt.wantHTTP)
			}
		})
	}
}

func TestFullProfileContainerTargets(t *testing.T) {
	names := containerNames(launcher.ProfileFull)
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	for _, want := range []string{"odysseus_prometheus", "odysseus_grafana", "odysseus_jupyter"} {
		if !set[want] {
			t.Errorf("full profile should check %s, got %v", want, names)
		}
	}
	if len(names) != len(set) {
		t.Errorf("container targets contain duplicates: %v", names)
	}
}

func TestWaitDatastores(t *testing.T) {
	v := newTestVerifier(launcher.ProfileBasic, allRunning(launcher.ProfileBasic))

	pgAttempts := 0
	v.postgresProbe = func(ctx context.Context) error {
		pgAttempts++
		if pgAttempts < 2 {
			return errors.New("starting up")
		}
		return nil
	}
	if err := v.WaitDatastores(context.Background(), 30*time.Second); err != nil {
		t.Fatalf("WaitDatastores() returned error: %v", err)
	}
	if pgAttempts != 2 {
		t.Errorf("postgres attempts = %d, want 2", pgAttempts)
	}

	v.redisProbe = func(ctx context.Context) error { return errors.New("refusing connections") }
	err := v.WaitDatastores(context.Background(), 50*time.Millisecond)
	if err == nil {
		t.Fatal("WaitDatastores() should surface the redis timeout")
	}
	if !strings.Contains(err.Error(), "redis") {
		t.Errorf("error should name the failing datastore, got %v", err)
	}
}

func TestProbeHTTP(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	if err := ProbeHTTP(context.Background(), healthy.URL); err != nil {
		t.Errorf("ProbeHTTP(healthy) = %v, want nil", err)
	}
	if err := ProbeHTTP(context.Background(), broken.URL); err == nil {
		t.Error("ProbeHTTP(500) should fail")
	}
	if err := ProbeHTTP(context.Background(), "http://127.0.0.1:1/health"); err == nil {
		t.Error("ProbeHTTP(unreachable) should fail")
	}
}

func TestContainerStateHealthy(t *testing.T) {
	tests := []struct {
		name  string
		state ContainerState
		want  bool
	}{
		{name: "running no healthcheck", state: ContainerState{Status: "running", Running: true}, want: true},
		{name: "running healthy", state: ContainerState{Status: "running", Running: true, Health: "healthy"}, want: true},
		{name: "running unhealthy", state: ContainerState{Status: "running", Running: true, Health: "unhealthy"}, want: false},
		{name: "running starting", state: ContainerState{Status: "running", Running: true, Health: "starting"}, want: false},
		{name: "exited", state: ContainerState{Status: "exited"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Healthy(); got != tt.want {
				t.Errorf("Healthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitReady(t *testing.T) {
	attempts := 0
	probe := func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("warming up")
		}
		return nil
	}
	if err := WaitReady(context.Background(), 30*time.Second, probe); err != nil {
		t.Fatalf("WaitReady() returned error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWaitReadyTimeout(t *testing.T) {
	probe := func(ctx context.Context) error { return errors.New("still down") }
	err := WaitReady(context.Background(), 50*time.Millisecond, probe)
	if err == nil {
		t.Fatal("WaitReady() should time out")
	}
	if !strings.Contains(err.Error(), "still down") {
		t.Errorf("timeout error should wrap the probe error, got %v", err)
	}
}

func TestReportRender(t *testing.T) {
	report := &Report{Results: []Result{
		{Name: "bot", Kind: KindHTTP, Detail: "http://localhost:8080/health", Healthy: true},
		{Name: "odysseus_redis", Kind: KindContainer, Detail: "odysseus_redis", Healthy: false, Err: "state=exited"},
	}}

	out := report.Render()
	if !strings.Contains(out, "bot") || !strings.Contains(out, "state=exited") {
		t.Errorf("Render() missing rows:\n%s", out)
	}
	if report.Summary() != "1/2 targets healthy" {
		t.Errorf("Summary() = %q", report.Summary())
	}
}
