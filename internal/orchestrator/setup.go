package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/project-odysseus/odyctl/internal/certs"
	"github.com/project-odysseus/odyctl/internal/config"
	"github.com/project-odysseus/odyctl/internal/envfile"
	"github.com/project-odysseus/odyctl/internal/health"
	"github.com/project-odysseus/odyctl/internal/hostsfile"
	"github.com/project-odysseus/odyctl/internal/infra"
	"github.com/project-odysseus/odyctl/internal/launcher"
	"github.com/project-odysseus/odyctl/internal/logger"
	"github.com/project-odysseus/odyctl/internal/nginx"
)

// Prompter asks the operator a yes/no question. A nil Prompter means
// the run is non-interactive and every question is answered "no".
type Prompter interface {
	Confirm(question string) bool
}

// envRecheckLimit bounds how many times the operator is asked to fix
// the env file before the run moves on with a warning.
const envRecheckLimit = 3

// Setup drives the full bootstrap sequence for one environment.
type Setup struct {
	out      io.Writer
	log      logger.Logger
	profile  launcher.Profile
	prompter Prompter

	envPath  string
	migrator *config.Migrator
	hosts    *hostsfile.Manager
	certs    *certs.Provisioner
	proxy    *nginx.Generator
	infra    *infra.Provisioner
	launch   *launcher.Launcher
	verifier *health.Verifier
	runner   launcher.Runner
}

// Options carries everything NewSetup needs to assemble the pipeline.
type Options struct {
	Profile  launcher.Profile
	Prompter Prompter

	EnvPath  string
	Migrator *config.Migrator
	Hosts    *hostsfile.Manager
	Certs    *certs.Provisioner
	Proxy    *nginx.Generator
	Infra    *infra.Provisioner
	Launcher *launcher.Launcher
	Verifier *health.Verifier
	Runner   launcher.Runner
}

func NewSetup(opts Options, out io.Writer, log logger.Logger) *Setup {
	return &Setup{
		out:      out,
		log:      log,
		profile:  opts.Profile,
		prompter: opts.Prompter,
		envPath:  opts.EnvPath,
		migrator: opts.Migrator,
		hosts:    opts.Hosts,
		certs:    opts.Certs,
		proxy:    opts.Proxy,
		infra:    opts.Infra,
		launch:   opts.Launcher,
		verifier: opts.Verifier,
		runner:   opts.Runner,
	}
}

// Run executes the bootstrap pipeline and reports whether it completed.
func (s *Setup) Run(ctx context.Context) bool {
	p := NewPipeline(s.out, s.log, s.Stages()...)
	_, ok := p.Run(ctx)
	return ok
}

// Stages returns the bootstrap sequence in execution order.
func (s *Setup) Stages() []Stage {
	return []Stage{
		{Name: "prerequisites", Run: s.checkPrerequisites},
		{Name: "configuration", Run: s.migrateConfig},
		{Name: "environment", Run: s.validateEnv},
		{Name: "local domains", Run: s.setupDomains},
		{Name: "certificates", Run: s.provisionCerts},
		{Name: "proxy config", Run: s.generateProxyConfig},
		{Name: "infrastructure", Run: s.provisionInfra},
		{Name: "services", Run: s.startServices},
		{Name: "health", Run: s.verifyHealth},
	}
}

func (s *Setup) checkPrerequisites(ctx context.Context) StageResult {
	if err := s.infra.CheckDaemon(ctx); err != nil {
		return fatal("prerequisites", err, "start the Docker daemon and retry")
	}
	if err := launcher.CheckCompose(ctx, s.runner); err != nil {
		return fatal("prerequisites", err, "install the docker compose plugin")
	}
	if err := s.hosts.CheckWritable(); err != nil {
		return fatal("prerequisites", err, "")
	}
	return ok("prerequisites")
}

func (s *Setup) migrateConfig(context.Context) StageResult {
	backup, err := s.migrator.Migrate()
	switch {
	case errors.Is(err, config.ErrStagedMissing):
		return ok("configuration", "no staged configuration, keeping the active one")
	case errors.Is(err, config.ErrValidation):
		hint := "the installed file failed validation"
		if backup != "" {
			hint += "; restore " + backup + " to roll back"
		}
		return fatal("configuration", err, hint)
	case err != nil:
		return fatal("configuration", err, "")
	}
	if backup != "" {
		return ok("configuration", "previous configuration saved as "+backup)
	}
	return ok("configuration")
}

func (s *Setup) validateEnv(context.Context) StageResult {
	missing, err := s.missingEnvKeys()
	if err != nil {
		return fatal("environment", err, "create "+s.envPath+" from the example file")
	}
	for attempt := 0; len(missing) > 0 && s.prompter != nil && attempt < envRecheckLimit; attempt++ {
		fmt.Fprintf(s.out, "⚠️  %s is missing values for: %s\n", s.envPath, strings.Join(missing, ", "))
		if !s.prompter.Confirm("edit " + s.envPath + " now, then re-check?") {
			break
		}
		missing, err = s.missingEnvKeys()
		if err != nil {
			return fatal("environment", err, "")
		}
	}
	if len(missing) > 0 {
		notes := make([]string, 0, len(missing))
		for _, k := range missing {
			notes = append(notes, "missing or placeholder: "+k)
		}
		return warn("environment", fmt.Errorf("%d required key(s) unset in %s", len(missing), s.envPath), notes...)
	}
	return ok("environment")
}

func (s *Setup) missingEnvKeys() ([]string, error) {
	env, err := envfile.Load(s.envPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return envfile.MissingKeys(env, envfile.RequiredKeys), nil
}

func (s *Setup) setupDomains(context.Context) StageResult {
	if err := s.hosts.Setup(); err != nil {
		return fatal("local domains", err, "")
	}
	return ok("local domains")
}

func (s *Setup) provisionCerts(context.Context) StageResult {
	createdCA, err := s.certs.EnsureAuthority()
	if err != nil {
		return fatal("certificates", err, "")
	}
	createdLeaf, err := s.certs.EnsureLeaf()
	if err != nil {
		return fatal("certificates", err, "")
	}
	if err := s.certs.Install(); err != nil {
		return fatal("certificates", err, "")
	}
	if err := s.certs.VerifyChain(); err != nil {
		return fatal("certificates", err, "remove the certs directory to regenerate")
	}
	var notes []string
	if createdCA {
		notes = append(notes, "generated a new certificate authority")
	}
	if createdLeaf {
		notes = append(notes, "issued a new server certificate")
	}
	return ok("certificates", notes...)
}

func (s *Setup) generateProxyConfig(context.Context) StageResult {
	if err := s.proxy.Generate(); err != nil {
		return fatal("proxy config", err, "")
	}
	return ok("proxy config")
}

func (s *Setup) provisionInfra(ctx context.Context) StageResult {
	if err := s.infra.Provision(ctx); err != nil {
		return fatal("infrastructure", err, "")
	}
	return ok("infrastructure")
}

func (s *Setup) startServices(ctx context.Context) StageResult {
	res, err := s.launch.Start(ctx, s.profile)
	if err != nil {
		return fatal("services", err, "")
	}
	if res.State == launcher.StateStartFailed {
		result := fatal("services", errors.New(res.Err), "inspect with: odyctl logs <service>")
		if res.StatusTable != "" {
			result.Notes = strings.Split(strings.TrimRight(res.StatusTable, "\n"), "\n")
		}
		return result
	}
	return ok("services", fmt.Sprintf("started %d service(s) with profile %q", len(res.Services), s.profile))
}

func (s *Setup) verifyHealth(ctx context.Context) StageResult {
	// Poll the datastores up first: containers report running well before
	// postgres and redis accept connections, and verifying too early
	// turns startup lag into spurious warnings.
	var notReady []string
	if err := s.verifier.WaitDatastores(ctx, health.DefaultReadyTimeout); err != nil {
		notReady = append(notReady, "datastores not ready: "+err.Error())
	}

	report := s.verifier.Run(ctx)
	if report.AllHealthy() {
		return ok("health", report.Summary())
	}
	notes := append(notReady, strings.Split(strings.TrimRight(report.Render(), "\n"), "\n")...)
	return warn("health", errors.New(report.Summary()), notes...)
}
