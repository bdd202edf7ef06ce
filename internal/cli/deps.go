package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/docker/client"

	"github.com/project-odysseus/odyctl/internal/backup"
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

// Well known paths inside the deployment directory.
const (
	stagedConfigPath = "config/config.enhanced.yaml"
	activeConfigPath = "config/config.yaml"
	certsDir         = "nginx/certs"
	proxyConfDir     = "nginx/conf.d"
	backupsDir       = "backups"

	dbName = "odysseus"
	dbUser = "odysseus"
)

// deps bundles everything the commands assemble from flags.
type deps struct {
	log     logger.Logger
	profile launcher.Profile
	runner  launcher.Runner

	docker   *client.Client
	migrator *config.Migrator
	hosts    *hostsfile.Manager
	certs    *certs.Provisioner
	proxy    *nginx.Generator
	infra    *infra.Provisioner
	launch   *launcher.Launcher
	backups  *backup.Manager
}

func buildDeps() (*deps, error) {
	log := newLogger()

	profile, err := launcher.ParseProfile(flagProfile)
	if err != nil {
		return nil, err
	}

	docker, err := infra.NewDockerClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	runner := launcher.NewRunner()
	return &deps{
		log:      log,
		profile:  profile,
		runner:   runner,
		docker:   docker,
		migrator: config.NewMigrator(stagedConfigPath, activeConfigPath, log),
		hosts:    hostsfile.NewManager(hostsfile.DetectPlatform(), log),
		certs:    certs.NewProvisioner(certsDir, log),
		proxy:    nginx.NewGenerator(proxyConfDir, log),
		infra:    infra.NewProvisioner(docker, ".", log),
		launch:   launcher.New(runner, flagComposeFile, log).WithSpinner(!flagNonInteractive),
		backups:  backup.NewManager(runner, flagComposeFile, backupsDir, dbName, dbUser, log),
	}, nil
}

// verifier builds a health verifier using connection settings from
// the env file when it is readable. Probing still works without it,
// the datastore checks just report an auth failure instead of a pass.
func (d *deps) verifier() *health.Verifier {
	env := map[string]string{}
	if loaded, err := envfile.Load(flagEnvFile); err == nil {
		env = loaded
	}
	pick := func(key, fallback string) string {
		if v := env[key]; v != "" {
			return v
		}
		return fallback
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		pick("DB__USER", dbUser),
		env["DB__PASSWORD"],
		pick("DB__HOST", "localhost"),
		pick("DB__PORT", "5432"),
		pick("DB__NAME", dbName),
	)
	return health.NewVerifier(d.profile, health.NewInspector(d.docker), dsn, "localhost:6379", env["REDIS__PASSWORD"], d.log)
}

func ensureFileExists(path, hint string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s not found: %s", filepath.Base(path), hint)
		}
		return err
	}
	return nil
}
