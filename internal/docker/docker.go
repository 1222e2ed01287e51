// Package docker wraps the container runtime's API for the handful of
// queries and mutations the installer needs. Everything is name-prefix based;
// the deployment owns every container and volume whose name carries its
// prefix.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
)

// Sentinel errors that teardown treats as expected, non-fatal refusals.
var (
	ErrInUse    = errors.New("resource is in use")
	ErrNotFound = errors.New("resource not found")
)

// Container lifecycle states reported by the runtime.
const (
	StateRunning = "running"
	StateExited  = "exited"
	StateDead    = "dead"
)

// ContainerInfo describes one container owned by the deployment.
type ContainerInfo struct {
	ID    string
	Name  string
	Image string
	State string
}

// Runtime is the container-runtime surface the installer depends on.
type Runtime interface {
	Ping(ctx context.Context) error
	ListContainers(ctx context.Context, prefix string) ([]ContainerInfo, error)
	ContainerState(ctx context.Context, name string) (string, error)
	ContainerLogs(ctx context.Context, name string, tail string) (string, error)
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
	ListVolumes(ctx context.Context, prefix string) ([]string, error)
	RemoveVolume(ctx context.Context, name string) error
	RemoveImage(ctx context.Context, ref string) error
}

// Client implements Runtime against the local daemon.
type Client struct {
	cli *client.Client
}

// NewClient connects to the runtime using the standard environment settings.
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

// Ping checks that the daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("container runtime is not reachable: %w", err)
	}
	return nil
}

// ListContainers returns all containers, running or stopped, whose name
// starts with prefix.
func (c *Client) ListContainers(ctx context.Context, prefix string) ([]ContainerInfo, error) {
	containers, err := c.cli.ContainerList(ctx, types.ContainerListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", prefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var result []ContainerInfo
	for _, ct := range containers {
		name := ""
		if len(ct.Names) > 0 {
			name = strings.TrimPrefix(ct.Names[0], "/")
		}
		// The name filter matches substrings; keep the prefix semantics exact.
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		result = append(result, ContainerInfo{
			ID:    ct.ID,
			Name:  name,
			Image: ct.Image,
			State: ct.State,
		})
	}
	return result, nil
}

// ContainerState returns the lifecycle state of the named container.
func (c *Client) ContainerState(ctx context.Context, name string) (string, error) {
	info, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", fmt.Errorf("%w: container %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	if info.State == nil {
		return "", nil
	}
	return info.State.Status, nil
}

// ContainerLogs returns the last tail lines of the container's output.
func (c *Client) ContainerLogs(ctx context.Context, name string, tail string) (string, error) {
	reader, err := c.cli.ContainerLogs(ctx, name, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
	})
	if err != nil {
		return "", fmt.Errorf("failed to read container logs: %w", err)
	}
	defer reader.Close()

	// The log stream is multiplexed; demux it into one plain-text buffer.
	var buf strings.Builder
	if _, err := stdcopy.StdCopy(&buf, &buf, reader); err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to decode container logs: %w", err)
	}
	return buf.String(), nil
}

// StopContainer stops a container, tolerating one that is already stopped.
func (c *Client) StopContainer(ctx context.Context, id string) error {
	if err := c.cli.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("%w: container %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to stop container %s: %w", id, err)
	}
	return nil
}

// RemoveContainer force-removes a container.
func (c *Client) RemoveContainer(ctx context.Context, id string) error {
	err := c.cli.ContainerRemove(ctx, id, types.ContainerRemoveOptions{Force: true})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("%w: container %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to remove container %s: %w", id, err)
	}
	return nil
}

// ListVolumes returns the names of volumes whose name starts with prefix.
func (c *Client) ListVolumes(ctx context.Context, prefix string) ([]string, error) {
	resp, err := c.cli.VolumeList(ctx, volume.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", prefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}

	var names []string
	for _, v := range resp.Volumes {
		if strings.HasPrefix(v.Name, prefix) {
			names = append(names, v.Name)
		}
	}
	return names, nil
}

// RemoveVolume deletes a named volume. A volume still attached to a container
// is reported as ErrInUse so callers can surface it without aborting.
func (c *Client) RemoveVolume(ctx context.Context, name string) error {
	if err := c.cli.VolumeRemove(ctx, name, false); err != nil {
		switch {
		case errdefs.IsNotFound(err):
			return fmt.Errorf("%w: volume %s", ErrNotFound, name)
		case errdefs.IsConflict(err):
			return fmt.Errorf("%w: volume %s", ErrInUse, name)
		}
		return fmt.Errorf("failed to remove volume %s: %w", name, err)
	}
	return nil
}

// RemoveImage deletes an image by reference. A refusal because the image is
// shared with another container is reported as ErrInUse.
func (c *Client) RemoveImage(ctx context.Context, ref string) error {
	if _, err := c.cli.ImageRemove(ctx, ref, types.ImageRemoveOptions{}); err != nil {
		switch {
		case errdefs.IsNotFound(err):
			return fmt.Errorf("%w: image %s", ErrNotFound, ref)
		case errdefs.IsConflict(err):
			return fmt.Errorf("%w: image %s", ErrInUse, ref)
		}
		return fmt.Errorf("failed to remove image %s: %w", ref, err)
	}
	return nil
}

// PullImage pulls an image, draining the progress stream.
func (c *Client) PullImage(ctx context.Context, ref string) error {
	reader, err := c.cli.ImagePull(ctx, ref, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return nil
}
