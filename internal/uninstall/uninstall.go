// Package uninstall tears a deployment down. Only the pre-flight checks and
// the confirmation gate can abort; every later step is best-effort, records
// its outcome, and the cumulative result is reported in a final summary.
package uninstall

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"

	"github.com/hawkra/hawkra/internal/config"
	"github.com/hawkra/hawkra/internal/docker"
	"github.com/hawkra/hawkra/internal/envfile"
	"github.com/hawkra/hawkra/internal/hosts"
	"github.com/hawkra/hawkra/internal/logging"
	"github.com/hawkra/hawkra/internal/preflight"
	"github.com/hawkra/hawkra/internal/prompt"
	"github.com/hawkra/hawkra/internal/state"
)

// ConfirmationPhrase is what the operator must type before anything is
// deleted. A yes/no flag is not enough for irreversible data loss.
const ConfirmationPhrase = "uninstall hawkra"

// ErrNothingToRemove means no trace of an installation was found.
var ErrNothingToRemove = errors.New("no installation found")

// Summary records what each teardown step achieved.
type Summary struct {
	RunID             string
	Domain            string
	ComposeDown       bool
	ContainersRemoved bool
	VolumesRemoved    bool
	VolumesRemaining  []string
	ImagesRemoved     bool
	ImagesInUse       []string
	HostsEntryRemoved bool
	DirectoryRemoved  bool
}

// Uninstaller sequences a teardown.
type Uninstaller struct {
	cfg       *config.Config
	runtime   docker.Runtime
	compose   docker.ComposeRunner
	hostsFile *hosts.File
	logger    *logging.Logger

	Preflight func() error
	Confirm   func() error

	KeepImages     bool
	KeepHostsEntry bool
}

// New wires an uninstaller with its default collaborators.
func New(cfg *config.Config, rt docker.Runtime, compose docker.ComposeRunner) *Uninstaller {
	return &Uninstaller{
		cfg:       cfg,
		runtime:   rt,
		compose:   compose,
		hostsFile: hosts.New(cfg.HostsFile),
		logger:    logging.GetLogger(),
		Preflight: preflight.CheckTeardown,
		Confirm: func() error {
			return prompt.ConfirmPhrase(
				"This permanently deletes the deployment, including its database and file storage volumes.",
				ConfirmationPhrase,
			)
		},
	}
}

// Run executes the teardown. It returns prompt.ErrCancelled when the
// confirmation is declined and ErrNothingToRemove when no trace of an
// installation exists; both are non-error outcomes for the caller.
func (u *Uninstaller) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString()}
	u.logger.Info("Starting uninstall run %s", sum.RunID)

	if err := u.Preflight(); err != nil {
		return nil, err
	}

	installed, domain := u.discover(ctx)
	sum.Domain = domain
	if !installed {
		return sum, ErrNothingToRemove
	}

	// Nothing below this gate runs unless the operator typed the phrase.
	if err := u.Confirm(); err != nil {
		return nil, err
	}

	runtimeUp := u.runtime.Ping(ctx) == nil
	if !runtimeUp {
		u.logger.Warn("Container runtime is not reachable; container and volume teardown will be skipped")
	}

	sum.ComposeDown = u.composeDown(ctx, runtimeUp)
	if !sum.ComposeDown && runtimeUp {
		sum.ContainersRemoved = u.removeContainers(ctx)
	} else {
		sum.ContainersRemoved = sum.ComposeDown
	}

	if runtimeUp {
		sum.VolumesRemoved, sum.VolumesRemaining = u.removeVolumes(ctx)
		if !u.KeepImages {
			sum.ImagesRemoved, sum.ImagesInUse = u.removeImages(ctx)
		}
	}

	if !u.KeepHostsEntry {
		sum.HostsEntryRemoved = u.removeHostsEntry(domain)
	}

	sum.DirectoryRemoved = u.removeDirectory()

	return sum, nil
}

// discover probes for any trace of an installation and resolves the managed
// domain from the environment file when possible.
func (u *Uninstaller) discover(ctx context.Context) (bool, string) {
	domain := u.cfg.DefaultDomain

	st, err := state.Detect(u.cfg.EnvFile())
	if err != nil {
		u.logger.Warn("Failed to probe installation state: %v", err)
	}
	if st == state.ExistingInstall {
		if env, err := envfile.Read(u.cfg.EnvFile()); err == nil && env.Domain != "" {
			domain = env.Domain
		}
		return true, domain
	}

	if _, err := os.Stat(u.cfg.InstallDir); err == nil {
		return true, domain
	}

	if u.runtime.Ping(ctx) == nil {
		if cts, err := u.runtime.ListContainers(ctx, u.cfg.ContainerPrefix); err == nil && len(cts) > 0 {
			return true, domain
		}
		if vols, err := u.runtime.ListVolumes(ctx, u.cfg.VolumePrefix); err == nil && len(vols) > 0 {
			return true, domain
		}
	}

	return false, domain
}

func (u *Uninstaller) composeDown(ctx context.Context, runtimeUp bool) bool {
	if !runtimeUp || !u.compose.Available() {
		return false
	}
	if err := u.compose.Down(ctx, true); err != nil {
		u.logger.Warn("Compose teardown failed, falling back to direct removal: %v", err)
		return false
	}
	u.logger.Info("Compose teardown complete")
	return true
}

// removeContainers is the fallback when compose teardown was unavailable:
// stop and force-remove every container carrying the deployment prefix.
func (u *Uninstaller) removeContainers(ctx context.Context) bool {
	containers, err := u.runtime.ListContainers(ctx, u.cfg.ContainerPrefix)
	if err != nil {
		u.logger.Warn("Failed to list containers: %v", err)
		return false
	}
	if len(containers) == 0 {
		return true
	}

	ok := true
	for _, ct := range containers {
		if ct.State == docker.StateRunning {
			if err := u.runtime.StopContainer(ctx, ct.ID); err != nil && !errors.Is(err, docker.ErrNotFound) {
				u.logger.Warn("Failed to stop container %s: %v", ct.Name, err)
			}
		}
		if err := u.runtime.RemoveContainer(ctx, ct.ID); err != nil && !errors.Is(err, docker.ErrNotFound) {
			u.logger.Warn("Failed to remove container %s: %v", ct.Name, err)
			ok = false
			continue
		}
		u.logger.Info("Removed container %s", ct.Name)
	}
	return ok
}

// removeVolumes deletes every volume carrying the deployment prefix. Volumes
// still attached to a container are reported, not fatal: the operator is told
// which remain and why.
func (u *Uninstaller) removeVolumes(ctx context.Context) (bool, []string) {
	volumes, err := u.runtime.ListVolumes(ctx, u.cfg.VolumePrefix)
	if err != nil {
		u.logger.Warn("Failed to list volumes: %v", err)
		return false, nil
	}

	var remaining []string
	for _, name := range volumes {
		err := u.runtime.RemoveVolume(ctx, name)
		switch {
		case err == nil:
			u.logger.Info("Removed volume %s", name)
		case errors.Is(err, docker.ErrNotFound):
		case errors.Is(err, docker.ErrInUse):
			u.logger.Warn("Volume %s is still attached to a container; remove it manually once the container is gone", name)
			remaining = append(remaining, name)
		default:
			u.logger.Warn("Failed to remove volume %s: %v", name, err)
			remaining = append(remaining, name)
		}
	}
	return len(remaining) == 0, remaining
}

// removeImages deletes the application images and the pinned infrastructure
// images. A refusal because an unrelated container still uses an image is
// expected and non-fatal.
func (u *Uninstaller) removeImages(ctx context.Context) (bool, []string) {
	var inUse []string
	refs := append(append([]string{}, config.AppImages...), config.InfraImages...)
	for _, ref := range refs {
		err := u.runtime.RemoveImage(ctx, ref)
		switch {
		case err == nil:
			u.logger.Info("Removed image %s", ref)
		case errors.Is(err, docker.ErrNotFound):
		case errors.Is(err, docker.ErrInUse):
			u.logger.Warn("Image %s is in use by another container; left in place", ref)
			inUse = append(inUse, ref)
		default:
			u.logger.Warn("Failed to remove image %s: %v", ref, err)
			inUse = append(inUse, ref)
		}
	}
	return len(inUse) == 0, inUse
}

func (u *Uninstaller) removeHostsEntry(domain string) bool {
	res, err := u.hostsFile.Remove(domain)
	if err != nil {
		u.logger.Warn("Failed to remove hosts entry: %v", err)
		return false
	}
	return res == hosts.ResultRemoved || res == hosts.ResultNotFound
}

// removeDirectory deletes the install root and verifies it is actually gone.
func (u *Uninstaller) removeDirectory() bool {
	if err := os.RemoveAll(u.cfg.InstallDir); err != nil {
		u.logger.Warn("Failed to remove %s: %v", u.cfg.InstallDir, err)
	}
	if _, err := os.Stat(u.cfg.InstallDir); !os.IsNotExist(err) {
		u.logger.Warn("Install directory %s still exists after removal", u.cfg.InstallDir)
		return false
	}
	return true
}

// Report logs a human-readable summary of the teardown.
func (s *Summary) Report(logger *logging.Logger) {
	mark := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "⚠️"
	}

	logger.Info("=== Uninstall Summary (run %s) ===", s.RunID)
	logger.Info("%s Containers removed: %v", mark(s.ContainersRemoved), s.ContainersRemoved)
	logger.Info("%s Volumes removed: %v", mark(s.VolumesRemoved), s.VolumesRemoved)
	for _, v := range s.VolumesRemaining {
		logger.Info("   remaining volume: %s", v)
	}
	logger.Info("%s Images removed: %v", mark(s.ImagesRemoved), s.ImagesRemoved)
	for _, img := range s.ImagesInUse {
		logger.Info("   image still in use: %s", img)
	}
	logger.Info("%s Hosts entry removed: %v", mark(s.HostsEntryRemoved), s.HostsEntryRemoved)
	logger.Info("%s Install directory removed: %v", mark(s.DirectoryRemoved), s.DirectoryRemoved)

	if s.ContainersRemoved && s.VolumesRemoved && s.HostsEntryRemoved && s.DirectoryRemoved {
		logger.Info("🎉 Hawkra has been completely removed from this host")
	} else {
		logger.Info("Some resources could not be removed; see warnings above")
	}
}
