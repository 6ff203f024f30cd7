package detector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/docker/client"
)

// StateRunning is the container state that counts as running.
const StateRunning = "running"

// DefaultRuntimeTimeout bounds every call to the container runtime.
const DefaultRuntimeTimeout = 5 * time.Second

// ErrContainerNotFound is returned by State for an unknown container.
var ErrContainerNotFound = errors.New("container not found")

// ContainerRuntime looks up containers by name or ID.
type ContainerRuntime interface {
	// Ping fails when the runtime cannot be reached at all.
	Ping(ctx context.Context) error

	// State returns the runtime's state string for the container.
	State(ctx context.Context, nameOrID string) (string, error)
}

// DockerRuntime is a ContainerRuntime backed by the Docker Engine API.
// Connection settings come from the standard DOCKER_* environment.
type DockerRuntime struct {
	cli     *client.Client
	timeout time.Duration
}

// NewDockerRuntime creates a Docker client. Creating the client does not
// contact the daemon; reachability is checked by Ping.
func NewDockerRuntime(timeout time.Duration) (*DockerRuntime, error) {
	if timeout <= 0 {
		timeout = DefaultRuntimeTimeout
	}
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
		client.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return &DockerRuntime{cli: cli, timeout: timeout}, nil
}

// Ping checks that the Docker daemon answers.
func (r *DockerRuntime) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	return nil
}

// State inspects the container and returns its state, e.g. "running" or "exited".
func (r *DockerRuntime) State(ctx context.Context, nameOrID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	info, err := r.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrContainerNotFound, nameOrID)
		}
		return "", fmt.Errorf("inspecting %s: %w", nameOrID, err)
	}
	if info.ContainerJSONBase == nil || info.State == nil {
		return "", fmt.Errorf("inspecting %s: no state reported", nameOrID)
	}
	return info.State.Status, nil
}

// Close releases the client's connections.
func (r *DockerRuntime) Close() error {
	return r.cli.Close()
}
