package install

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/hawkra/hawkra/internal/logging"
)

// bootstrapPackages installs the container runtime through the host's package
// manager when it is missing. Best-effort: a host with docker already on PATH
// is left alone, and an unrecognized distribution gets a warning, not a
// failure.
func bootstrapPackages(ctx context.Context, logger *logging.Logger) error {
	if _, err := exec.LookPath("docker"); err == nil {
		logger.Debug("Container runtime already installed; skipping package bootstrap")
		return nil
	}

	type manager struct {
		bin  string
		args []string
	}
	managers := []manager{
		{"apt-get", []string{"install", "-y", "docker.io", "docker-compose-plugin"}},
		{"dnf", []string{"install", "-y", "docker", "docker-compose-plugin"}},
		{"yum", []string{"install", "-y", "docker", "docker-compose-plugin"}},
	}

	for _, m := range managers {
		if _, err := exec.LookPath(m.bin); err != nil {
			continue
		}
		logger.Info("Installing container runtime via %s...", m.bin)
		return runCommand(ctx, m.bin, m.args...)
	}

	return fmt.Errorf("no supported package manager found; install docker manually")
}

// ensureRuntimeService starts and enables the runtime's system service.
// Best-effort on hosts not managed by systemd.
func ensureRuntimeService(ctx context.Context, logger *logging.Logger) {
	if _, err := exec.LookPath("systemctl"); err != nil {
		logger.Debug("systemctl not available; assuming runtime is managed externally")
		return
	}
	if err := runCommand(ctx, "systemctl", "enable", "--now", "docker"); err != nil {
		logger.Warn("Failed to enable runtime service: %v", err)
	}
}

func runCommand(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := stderr.String(); msg != "" {
			return fmt.Errorf("%s failed: %s", bin, msg)
		}
		return fmt.Errorf("%s failed: %w", bin, err)
	}
	return nil
}
