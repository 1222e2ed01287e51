// Package install runs the installation sequence: pre-flight, bootstrap,
// domain selection, hosts-file entry, release bundle deployment, environment
// generation, image pull, container start, and the readiness wait. Pre-flight
// failures are fatal; later steps are best-effort and reported in a summary.
package install

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/go-playground/validator/v10"
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

// StepResult records the outcome of one best-effort step.
type StepResult struct {
	Name   string
	OK     bool
	Detail string
}

// Summary aggregates everything an install run did. Best-effort failures
// surface here instead of aborting the sequence.
type Summary struct {
	RunID           string
	State           state.State
	Domain          string
	HostsResult     hosts.Result
	AdminCredential string
	Wait            *WaitResult
	Steps           []StepResult
}

func (s *Summary) record(name string, ok bool, detail string) {
	s.Steps = append(s.Steps, StepResult{Name: name, OK: ok, Detail: detail})
}

// Failed reports whether any recorded step failed.
func (s *Summary) Failed() bool {
	for _, st := range s.Steps {
		if !st.OK {
			return true
		}
	}
	return false
}

// Installer sequences an installation. The function fields exist so the
// interactive and network-touching collaborators can be replaced under test.
type Installer struct {
	cfg       *config.Config
	runtime   docker.Runtime
	compose   docker.ComposeRunner
	hostsFile *hosts.File
	logger    *logging.Logger

	Preflight          func() error
	PromptDomain       func(def string) (string, error)
	ConfirmReconfigure func() (bool, error)
	AddressFn          func() string
	FetchBundle        func(ctx context.Context, destDir string) error
	Bootstrap          func(ctx context.Context) error

	DomainOverride string
	SkipPull       bool
	ShowProgress   bool
}

var domainValidator = validator.New()

// New wires an installer with its default collaborators.
func New(cfg *config.Config, rt docker.Runtime, compose docker.ComposeRunner) *Installer {
	logger := logging.GetLogger()
	return &Installer{
		cfg:       cfg,
		runtime:   rt,
		compose:   compose,
		hostsFile: hosts.New(cfg.HostsFile),
		logger:    logger,
		Preflight: preflight.Check,
		PromptDomain: func(def string) (string, error) {
			return prompt.Line("Domain for this deployment", def)
		},
		ConfirmReconfigure: func() (bool, error) {
			return prompt.ConfirmYesNo("An existing installation was found. Reconfigure it?", false)
		},
		AddressFn: hosts.PrimaryAddress,
		FetchBundle: func(ctx context.Context, destDir string) error {
			return fetchBundle(ctx, cfg.ResolveBundleURL(), destDir)
		},
		Bootstrap: func(ctx context.Context) error {
			return bootstrapPackages(ctx, logger)
		},
		ShowProgress: true,
	}
}

// Run executes the sequence. It returns prompt.ErrCancelled when the operator
// declines to reconfigure an existing installation; any other error is fatal.
func (i *Installer) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString()}
	i.logger.Info("Starting install run %s", sum.RunID)

	if err := i.Preflight(); err != nil {
		return nil, err
	}

	st, err := state.Detect(i.cfg.EnvFile())
	if err != nil {
		return nil, err
	}
	sum.State = st

	var prevEnv *envfile.Env
	if st == state.ExistingInstall {
		i.logger.Info("Existing installation detected at %s", i.cfg.InstallDir)
		ok, err := i.ConfirmReconfigure()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, prompt.ErrCancelled
		}
		// The existing credential must survive reconfiguration. If the file
		// cannot be read, regenerating it would orphan the encrypted volume,
		// so this is fatal rather than best-effort.
		prevEnv, err = envfile.Read(i.cfg.EnvFile())
		if err != nil {
			return nil, fmt.Errorf("cannot reconfigure without the existing environment: %w", err)
		}
	}

	if err := i.Bootstrap(ctx); err != nil {
		i.logger.Warn("Package bootstrap failed: %v", err)
		sum.record("package bootstrap", false, err.Error())
	} else {
		sum.record("package bootstrap", true, "")
	}

	if err := i.runtime.Ping(ctx); err != nil {
		ensureRuntimeService(ctx, i.logger)
		if err := i.runtime.Ping(ctx); err != nil {
			return nil, fmt.Errorf("container runtime is not available: %w", err)
		}
	}
	sum.record("container runtime", true, "")

	domain := i.DomainOverride
	if domain == "" {
		domain, err = i.PromptDomain(i.cfg.DefaultDomain)
		if err != nil {
			return nil, err
		}
	}
	if err := domainValidator.Var(domain, "required,hostname_rfc1123"); err != nil {
		return nil, fmt.Errorf("invalid domain %q", domain)
	}
	sum.Domain = domain

	res, err := i.hostsFile.Ensure(domain, i.AddressFn())
	if err != nil {
		i.logger.Warn("Failed to update hosts file: %v", err)
		sum.record("hosts entry", false, err.Error())
	} else {
		sum.HostsResult = res
		sum.record("hosts entry", true, res.String())
	}

	if err := i.deployBundle(ctx); err != nil {
		return nil, err
	}
	sum.record("release bundle", true, "")

	env, err := envfile.Build(domain, prevEnv)
	if err != nil {
		return nil, err
	}
	if err := envfile.Write(i.cfg.EnvFile(), env); err != nil {
		return nil, err
	}
	sum.record("environment file", true, "")

	if err := i.fixPermissions(); err != nil {
		i.logger.Warn("Permission fix-up incomplete: %v", err)
		sum.record("permissions", false, err.Error())
	} else {
		sum.record("permissions", true, "")
	}

	if !i.SkipPull {
		if err := i.withSpinner(" Pulling images...", func() error { return i.compose.Pull(ctx) }); err != nil {
			i.logger.Warn("Image pull failed; containers will pull on start: %v", err)
			sum.record("image pull", false, err.Error())
		} else {
			sum.record("image pull", true, "")
		}
	}

	if err := i.withSpinner(" Starting containers...", func() error { return i.compose.Up(ctx) }); err != nil {
		sum.record("container start", false, err.Error())
		return sum, fmt.Errorf("failed to start the deployment: %w", err)
	}
	sum.record("container start", true, "")

	waiter := NewWaiter(i.runtime, i.cfg.AppContainer, i.cfg.ReadyTimeout, i.cfg.PollInterval)
	wait, err := waiter.Wait(ctx)
	if err != nil {
		return sum, err
	}
	sum.Wait = wait

	switch wait.Outcome {
	case OutcomeCrashed:
		return sum, fmt.Errorf("application container crashed %.0fs after start; recent logs:\n%s",
			wait.Elapsed.Seconds(), strings.TrimSpace(wait.Logs))
	case OutcomeReady:
		sum.AdminCredential = wait.Credential
	case OutcomeTimedOut:
		i.logger.Warn("Application did not report ready within %s", i.cfg.ReadyTimeout)
		i.logger.Info("Check progress later with: docker compose --file %s logs", i.cfg.ComposeFile())
	}

	return sum, nil
}

// deployBundle fetches the release bundle into a transient directory and
// promotes it into the install root. A termination signal during the fetch
// removes the transient directory; containers already started are not rolled
// back, only scratch space is cleaned.
func (i *Installer) deployBundle(ctx context.Context) error {
	if err := os.MkdirAll(i.cfg.InstallDir, 0755); err != nil {
		return fmt.Errorf("failed to create install directory: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "hawkra-bundle-")
	if err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if _, ok := <-sigCh; ok {
			os.RemoveAll(tmpDir)
			os.Exit(1)
		}
	}()
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
		os.RemoveAll(tmpDir)
	}()

	if err := i.withSpinner(" Downloading release bundle...", func() error {
		return i.FetchBundle(ctx, tmpDir)
	}); err != nil {
		return fmt.Errorf("failed to fetch release bundle: %w", err)
	}

	if err := copyTree(tmpDir, i.cfg.InstallDir); err != nil {
		return fmt.Errorf("failed to deploy release bundle: %w", err)
	}

	return nil
}

// fixPermissions restricts key material while keeping public files readable:
// certificates world-readable, private keys and license keys owner-only.
func (i *Installer) fixPermissions() error {
	if err := os.Chmod(i.cfg.EnvFile(), 0600); err != nil {
		return err
	}

	if licDir := i.cfg.LicenseDir(); dirExists(licDir) {
		if err := os.Chmod(licDir, 0755); err != nil {
			return err
		}
		if key := filepath.Join(licDir, "license.key"); fileExists(key) {
			if err := os.Chmod(key, 0600); err != nil {
				return err
			}
		}
	}

	certsDir := i.cfg.CertsDir()
	if !dirExists(certsDir) {
		return nil
	}
	entries, err := os.ReadDir(certsDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		mode := os.FileMode(0644)
		if strings.HasSuffix(e.Name(), ".key") {
			mode = 0600
		}
		if err := os.Chmod(filepath.Join(certsDir, e.Name()), mode); err != nil {
			return err
		}
	}
	return nil
}

func (i *Installer) withSpinner(suffix string, fn func() error) error {
	if !i.ShowProgress {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
	s.Suffix = suffix
	s.Start()
	defer s.Stop()
	return fn()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
