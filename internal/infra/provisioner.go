package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"

	"github.com/project-odysseus/odyctl/internal/logger"
)

// managedLabel marks docker resources this tool created.
const managedLabel = "com.project-odysseus.managed"

// Directories created ahead of service start, relative to the project root.
var Directories = []string{
	"logs",
	"backups",
	"config",
	"data",
	"nginx/certs",
	"nginx/conf.d",
}

// Network defines one isolation tier.
type Network struct {
	Name     string
	Internal bool // no external routing (data tier)
}

// Networks are the three isolation tiers, public-facing first.
var Networks = []Network{
	{Name: "odysseus_frontend"},
	{Name: "odysseus_backend"},
	{Name: "odysseus_database", Internal: true},
}

// Volumes are the named volumes backing the datastores.
var Volumes = []string{"odysseus_pgdata", "odysseus_redisdata"}

// DockerClient is the subset of the docker API the provisioner needs.
type DockerClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error)
	VolumeCreate(ctx context.Context, options volume.CreateOptions) (volume.Volume, error)
}

// NewDockerClient connects to the local daemon using environment defaults.
func NewDockerClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}

// Provisioner creates directories, networks, and volumes ahead of service
// start. Every operation is idempotent: already-existing resources count as
// success.
type Provisioner struct {
	docker DockerClient
	root   string // project root for directory creation
	log    logger.Logger
}

func NewProvisioner(docker DockerClient, root string, log logger.Logger) *Provisioner {
	return &Provisioner{docker: docker, root: root, log: log}
}

// CheckDaemon verifies the docker daemon is reachable. Its absence is a
// fatal precondition for every later stage.
func (p *Provisioner) CheckDaemon(ctx context.Context) error {
	if _, err := p.docker.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon unreachable, is it running?: %w", err)
	}
	return nil
}

// Provision creates all directories, networks, and volumes.
func (p *Provisioner) Provision(ctx context.Context) error {
	if err := p.createDirectories(); err != nil {
		return err
	}
	if err := p.createNetworks(ctx); err != nil {
		return err
	}
	return p.createVolumes(ctx)
}

func (p *Provisioner) createDirectories() error {
	for _, dir := range Directories {
		path := filepath.Join(p.root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}
	p.log.Info("directories ready", logger.Int("count", len(Directories)))
	return nil
}

func (p *Provisioner) createNetworks(ctx context.Context) error {
	for _, net := range Networks {
		_, err := p.docker.NetworkCreate(ctx, net.Name, network.CreateOptions{
			Driver:   "bridge",
			Internal: net.Internal,
			Labels:   map[string]string{managedLabel: "odyctl"},
		})
		switch {
		case err == nil:
			p.log.Info("created network",
				logger.String("network", net.Name),
				logger.Bool("internal", net.Internal))
		case alreadyExists(err):
			p.log.Info("network already exists",
				logger.String("network", net.Name))
		default:
			return fmt.Errorf("failed to create network %s: %w", net.Name, err)
		}
	}
	return nil
}

func (p *Provisioner) createVolumes(ctx context.Context) error {
	for _, name := range Volumes {
		// VolumeCreate is an upsert on the daemon side, but keep the same
		// already-exists handling as networks for symmetry.
		_, err := p.docker.VolumeCreate(ctx, volume.CreateOptions{
			Name:   name,
			Labels: map[string]string{managedLabel: "odyctl"},
		})
		switch {
		case err == nil:
			p.log.Info("volume ready", logger.String("volume", name))
		case alreadyExists(err):
			p.log.Info("volume already exists", logger.String("volume", name))
		default:
			return fmt.Errorf("failed to create volume %s: %w", name, err)
		}
	}
	return nil
}

func alreadyExists(err error) bool {
	return errdefs.IsConflict(err)
}
