package infra

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/errdefs"

	"github.com/project-odysseus/odyctl/internal/logger"
)

// fakeDocker records creations and simulates already-exists conflicts.
type fakeDocker struct {
	pingErr  error
	networks map[string]bool
	volumes  map[string]bool
	failNet  string // network name that always errors
}

func newFakeDocker() *fakeDocker {
	return &fakeDocker{
		networks: make(map[string]bool),
		volumes:  make(map[string]bool),
	}
}

func (f *fakeDocker) Ping(ctx context.Context) (types.Ping, error) {
	return types.Ping{APIVersion: "1.45"}, f.pingErr
}

func (f *fakeDocker) NetworkCreate(ctx context.Context, name string, options network.CreateOptions) (network.CreateResponse, error) {
	if name == f.failNet {
		return network.CreateResponse{}, errors.New("boom")
	}
	if f.networks[name] {
		return network.CreateResponse{}, errdefs.Conflict(errors.New("network already exists"))
	}
	f.networks[name] = true
	return network.CreateResponse{ID: "net-" + name}, nil
}

func (f *fakeDocker) VolumeCreate(ctx context.Context, options volume.CreateOptions) (volume.Volume, error) {
	if f.volumes[options.Name] {
		return volume.Volume{}, errdefs.Conflict(errors.New("volume already exists"))
	}
	f.volumes[options.Name] = true
	return volume.Volume{Name: options.Name}, nil
}

func TestProvisionCreatesEverything(t *testing.T) {
	docker := newFakeDocker()
	root := t.TempDir()
	p := NewProvisioner(docker, root, logger.Nop())

	if err := p.Provision(context.Background()); err != nil {
		t.Fatalf("Provision() returned error: %v", err)
	}

	for _, dir := range Directories {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("directory %s missing: %v", dir, err)
		}
	}
	for _, net := range Networks {
		if !docker.networks[net.Name] {
			t.Errorf("network %s not created", net.Name)
		}
	}
	for _, vol := range Volumes {
		if !docker.volumes[vol] {
			t.Errorf("volume %s not created", vol)
		}
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	docker := newFakeDocker()
	root := t.TempDir()
	p := NewProvisioner(docker, root, logger.Nop())

	if err := p.Provision(context.Background()); err != nil {
		t.Fatalf("first Provision() returned error: %v", err)
	}
	// second run hits the already-exists path for every resource
	if err := p.Provision(context.Background()); err != nil {
		t.Fatalf("second Provision() returned error: %v", err)
	}

	if len(docker.networks) != len(Networks) {
		t.Errorf("network count = %d, want %d", len(docker.networks), len(Networks))
	}
	if len(docker.volumes) != len(Volumes) {
		t.Errorf("volume count = %d, want %d", len(docker.volumes), len(Volumes))
	}
}

func TestProvisionFatalOnRealError(t *testing.T) {
	docker := newFakeDocker()
	docker.failNet = "odysseus_backend"
	p := NewProvisioner(docker, t.TempDir(), logger.Nop())

	if err := p.Provision(context.Background()); err == nil {
		t.Fatal("Provision() should surface non-conflict errors")
	}
}

func TestCheckDaemon(t *testing.T) {
	docker := newFakeDocker()
	p := NewProvisioner(docker, t.TempDir(), logger.Nop())
	if err := p.CheckDaemon(context.Background()); err != nil {
		t.Errorf("CheckDaemon() returned error: %v", err)
	}

	docker.pingErr = errors.New("connection refused")
	if err := p.CheckDaemon(context.Background()); err == nil {
		t.Error("CheckDaemon() should fail when the daemon is unreachable")
	}
}

func TestNetworkTiers(t *testing.T) {
	var internal int
	for _, net := range Networks {
		if net.Internal {
			internal++
			if net.Name != "odysseus_database" {
				t.Errorf("only the data tier should be internal, got %s", net.Name)
			}
		}
	}
	if internal != 1 {
		t.Errorf("internal network count = %d, want 1", internal)
	}
}
