package docker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ComposeRunner drives the external compose tool for one deployment.
type ComposeRunner interface {
	Available() bool
	Pull(ctx context.Context) error
	Up(ctx context.Context) error
	Down(ctx context.Context, removeVolumes bool) error
}

// Compose invokes `docker compose` against a deployment descriptor. The
// compose tool is a leaf dependency; nothing here reimplements orchestration.
type Compose struct {
	file string
}

// NewCompose creates a runner for the compose file at path.
func NewCompose(file string) *Compose {
	return &Compose{file: file}
}

// Available reports whether the deployment descriptor exists.
func (c *Compose) Available() bool {
	info, err := os.Stat(c.file)
	return err == nil && info.Mode().IsRegular()
}

// Pull fetches all images referenced by the deployment.
func (c *Compose) Pull(ctx context.Context) error {
	return c.run(ctx, "pull", "--quiet")
}

// Up starts the deployment in the background.
func (c *Compose) Up(ctx context.Context) error {
	return c.run(ctx, "up", "--detach")
}

// Down stops and removes the deployment's containers and networks, and its
// volumes when removeVolumes is set.
func (c *Compose) Down(ctx context.Context, removeVolumes bool) error {
	args := []string{"down", "--remove-orphans"}
	if removeVolumes {
		args = append(args, "--volumes")
	}
	return c.run(ctx, args...)
}

func (c *Compose) run(ctx context.Context, args ...string) error {
	full := append([]string{"compose", "--file", c.file}, args...)
	cmd := exec.CommandContext(ctx, "docker", full...)
	cmd.Dir = filepath.Dir(c.file)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := stderr.String(); msg != "" {
			return fmt.Errorf("docker compose %s failed: %s", args[0], msg)
		}
		return fmt.Errorf("docker compose %s failed: %w", args[0], err)
	}
	return nil
}
