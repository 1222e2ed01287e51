package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hawkra/hawkra/internal/config"
	"github.com/hawkra/hawkra/internal/docker"
	"github.com/hawkra/hawkra/internal/install"
	"github.com/hawkra/hawkra/internal/logging"
	"github.com/hawkra/hawkra/internal/prompt"
	"github.com/hawkra/hawkra/internal/version"
)

var logger *logging.Logger

func initLogger() {
	logFile := "/var/log/hawkra/install.log"
	if cfg, err := config.Load(); err == nil {
		logFile = cfg.LogFile
	}

	// Fall back to stdout-only logging when the log directory is not
	// writable, e.g. running `hawkra version` as a regular user.
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			logFile = ""
		}
	}

	logging.Configure(&logging.Config{
		File:       logFile,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     30,
	})
	logger = logging.GetLogger()
}

// loadConfig resolves the configuration or exits; every subcommand needs it.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}
	return cfg
}

func newRuntime() docker.Runtime {
	rt, err := docker.NewClient()
	if err != nil {
		logger.Error("Failed to create container runtime client: %v", err)
		os.Exit(1)
	}
	return rt
}

var rootCmd = &cobra.Command{
	Use:   "hawkra",
	Short: "Hawkra installer - self-hosted deployment management",
	Long: `The Hawkra installer sets up, reconfigures, and removes a self-hosted
Hawkra deployment on a single Linux host. The application itself runs in
containers; this tool manages the host side: packages, the hosts file, the
release bundle, and the container lifecycle.`,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or reconfigure Hawkra on this host",
	Long: `Install Hawkra on this host, or reconfigure an existing installation.

The command is idempotent: running it again against a healthy installation
asks before reconfiguring and preserves the existing database credential.

Example:
  hawkra install                       # interactive, prompts for the domain
  hawkra install --domain app.example  # non-interactive domain selection`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if dir, _ := cmd.Flags().GetString("install-dir"); dir != "" {
			cfg.InstallDir = dir
		}
		if channel, _ := cmd.Flags().GetString("channel"); channel != "" {
			cfg.Channel = channel
		}
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout != 0 {
			cfg.ReadyTimeout = timeout
		}
		if err := cfg.Validate(); err != nil {
			logger.Error("Invalid flags: %v", err)
			os.Exit(1)
		}

		inst := install.New(cfg, newRuntime(), docker.NewCompose(cfg.ComposeFile()))
		inst.DomainOverride, _ = cmd.Flags().GetString("domain")
		inst.SkipPull, _ = cmd.Flags().GetBool("skip-pull")

		sum, err := inst.Run(cmd.Context())
		if errors.Is(err, prompt.ErrCancelled) {
			logger.Info("Installation cancelled; nothing was changed")
			return
		}
		if err != nil {
			logger.Error("Installation failed: %v", err)
			os.Exit(1)
		}

		logger.Info("=== Installation Complete ===")
		logger.Info("✅ Hawkra is installed at %s", cfg.InstallDir)
		logger.Info("   URL: https://%s", sum.Domain)
		if sum.AdminCredential != "" {
			logger.Info("🔑 Initial admin password: %s", sum.AdminCredential)
			logger.Info("   Store it now; it is not shown again")
		}
		if sum.Wait != nil && sum.Wait.Outcome == install.OutcomeTimedOut {
			logger.Warn("The application has not reported ready yet; it may still be starting")
		}
		if sum.Failed() {
			logger.Warn("Some optional steps failed; see warnings above")
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("Hawkra installer version: %s", version.Info())
	},
}

func init() {
	// Initialize logger first
	initLogger()

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	initConfigCommands()

	installCmd.Flags().String("domain", "", "Domain for this deployment (skips the interactive prompt)")
	installCmd.Flags().String("install-dir", "", "Install directory (default /opt/hawkra)")
	installCmd.Flags().String("channel", "", "Release channel: stable or beta")
	installCmd.Flags().Duration("timeout", 0, "Readiness wait bound (default 2m0s)")
	installCmd.Flags().Bool("skip-pull", false, "Skip the image pre-pull; containers pull on start instead")

	uninstallCmd.Flags().Bool("keep-images", false, "Leave container images on the host")
	uninstallCmd.Flags().Bool("keep-hosts-entry", false, "Leave the hosts file entry in place")
}

func main() {
	defer logger.Close()

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}
