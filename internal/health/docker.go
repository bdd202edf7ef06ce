package health

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

// ContainerState is the run/health state of one container.
type ContainerState struct {
	Name    string
	Status  string // created | running | exited | ...
	Health  string // healthy | unhealthy | starting | "" (no healthcheck)
	Running bool
}

// Inspector queries container state. Backed by the docker SDK outside tests.
type Inspector interface {
	Inspect(ctx context.Context, name string) (ContainerState, error)
}

type dockerInspector struct {
	cli *client.Client
}

// NewInspector wraps a docker client as an Inspector.
func NewInspector(cli *client.Client) Inspector {
	return &dockerInspector{cli: cli}
}

func (d *dockerInspector) Inspect(ctx context.Context, name string) (ContainerState, error) {
	info, err := d.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return ContainerState{Name: name}, fmt.Errorf("container %s not found", name)
		}
		return ContainerState{Name: name}, fmt.Errorf("failed to inspect %s: %w", name, err)
	}

	state := ContainerState{Name: name}
	if info.State != nil {
		state.Status = info.State.Status
		state.Running = info.State.Running
		if info.State.Health != nil {
			state.Health = info.State.Health.Status
		}
	}
	return state, nil
}

// Healthy reports whether the container counts as healthy: running, and, when
// a healthcheck is configured, the healthcheck passing.
func (s ContainerState) Healthy() bool {
	if !s.Running {
		return false
	}
	return s.Health == "" || s.Health == "healthy"
}
