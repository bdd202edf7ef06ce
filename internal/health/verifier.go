package health

import (
	"context"
	"fmt"
	"time"

	"github.com/project-odysseus/odyctl/internal/launcher"
	"github.com/project-odysseus/odyctl/internal/logger"
)

// DefaultReadyTimeout bounds the post-launch datastore readiness wait.
const DefaultReadyTimeout = 30 * time.Second

// HTTPTarget is one health endpoint to probe.
type HTTPTarget struct {
	Name string
	URL  string
}

// httpTargets returns the endpoints to probe for a profile. Monitoring
// endpoints are only probed when the monitoring feature profile is active.
func httpTargets(profile launcher.Profile) []HTTPTarget {
	targets := []HTTPTarget{
		{Name: "bot", URL: "http://localhost:8080/health"},
	}
	if profile == launcher.ProfileDevelopment || profile == launcher.ProfileFull {
		targets = append(targets, HTTPTarget{Name: "dashboard", URL: "http://localhost:8000/health"})
	}
	if profile == launcher.ProfileFull {
		targets = append(targets,
			HTTPTarget{Name: "grafana", URL: "http://localhost:3000/api/health"},
			HTTPTarget{Name: "prometheus", URL: "http://localhost:9090/-/healthy"},
		)
	}
	return targets
}

// containerNames returns the containers whose state is checked for a profile.
// The launcher names every service it starts, profiled ones included, so the
// service set is the container set.
func containerNames(profile launcher.Profile) []string {
	names := make([]string, 0, 9)
	for _, svc := range profile.Services() {
		names = append(names, "odysseus_"+svc.Name)
	}
	return names
}

// Verifier runs one observational health pass: HTTP reachability, container
// state, and datastore readiness. It never mutates anything.
type Verifier struct {
	profile   launcher.Profile
	inspector Inspector
	log       logger.Logger

	// Probes are injectable so tests run without live datastores.
	httpProbe     func(ctx context.Context, url string) error
	postgresProbe func(ctx context.Context) error
	redisProbe    func(ctx context.Context) error
}

// NewVerifier builds a verifier for the given profile. pgDSN and redisAddr
// point at the published datastore ports on the host.
func NewVerifier(profile launcher.Profile, inspector Inspector, pgDSN, redisAddr, redisPassword string, log logger.Logger) *Verifier {
	return &Verifier{
		profile:   profile,
		inspector: inspector,
		log:       log,
		httpProbe: ProbeHTTP,
		postgresProbe: func(ctx context.Context) error {
			return ProbePostgres(ctx, pgDSN)
		},
		redisProbe: func(ctx context.Context) error {
			return ProbeRedis(ctx, redisAddr, redisPassword)
		},
	}
}

// WaitDatastores blocks until both datastores answer their probes, or the
// timeout passes. Called between service launch and verification so the
// report reflects steady state rather than startup lag.
func (v *Verifier) WaitDatastores(ctx context.Context, timeout time.Duration) error {
	if err := WaitReady(ctx, timeout, v.postgresProbe); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := WaitReady(ctx, timeout, v.redisProbe); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Run executes every probe and aggregates the outcomes. An unhealthy target
// is recorded, never escalated; the caller decides what a partial report
// means.
func (v *Verifier) Run(ctx context.Context) *Report {
	report := &Report{}

	for _, target := range httpTargets(v.profile) {
		res := Result{Name: target.Name, Kind: KindHTTP, Detail: target.URL, Healthy: true}
		if err := v.httpProbe(ctx, target.URL); err != nil {
			res.Healthy = false
			res.Err = err.Error()
		}
		report.Results = append(report.Results, res)
	}

	for _, name := range containerNames(v.profile) {
		res := Result{Name: name, Kind: KindContainer, Detail: name, Healthy: true}
		state, err := v.inspector.Inspect(ctx, name)
		switch {
		case err != nil:
			res.Healthy = false
			res.Err = err.Error()
		case !state.Healthy():
			res.Healthy = false
			res.Err = "state=" + state.Status
			if state.Health != "" {
				res.Err += " health=" + state.Health
			}
		}
		report.Results = append(report.Results, res)
	}

	for _, probe := range []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"postgres-readiness", v.postgresProbe},
		{"redis-liveness", v.redisProbe},
	} {
		res := Result{Name: probe.name, Kind: KindDatastore, Detail: probe.name, Healthy: true}
		if err := probe.fn(ctx); err != nil {
			res.Healthy = false
			res.Err = err.Error()
		}
		report.Results = append(report.Results, res)
	}

	v.log.Info("health verification complete",
		logger.Int("healthy", report.Healthy()),
		logger.Int("total", report.Total()))
	return report
}
