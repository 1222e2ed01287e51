package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hawkra/hawkra/internal/envfile"
	"github.com/hawkra/hawkra/internal/state"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Hawkra configuration",
	Long:  `View the Hawkra deployment configuration on this host.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file paths",
	Long:  `Display paths to existing Hawkra configuration files and directories.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		fmt.Printf("Install directory:  %s\n", cfg.InstallDir)

		// Only show files/directories that actually exist
		if _, err := os.Stat(cfg.EnvFile()); err == nil {
			fmt.Printf("Environment file:   %s\n", cfg.EnvFile())
		}
		if _, err := os.Stat(cfg.ComposeFile()); err == nil {
			fmt.Printf("Compose file:       %s\n", cfg.ComposeFile())
		}
		if _, err := os.Stat(cfg.CertsDir()); err == nil {
			fmt.Printf("Certificates:       %s\n", cfg.CertsDir())
		}
		if _, err := os.Stat(cfg.LicenseDir()); err == nil {
			fmt.Printf("License material:   %s\n", cfg.LicenseDir())
		}
		if cfg.LogFile != "" {
			if _, err := os.Stat(cfg.LogFile); err == nil {
				fmt.Printf("Log file:           %s\n", cfg.LogFile)
			}
		}

		if st, _ := state.Detect(cfg.EnvFile()); st == state.FreshInstall {
			fmt.Printf("\nNo installation found. Run 'hawkra install' to set up.\n")
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the deployment configuration",
	Long:  `Display the deployment's environment file with credentials redacted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		env, err := envfile.Read(cfg.EnvFile())
		if err != nil {
			logger.Error("Failed to read %s: %v", cfg.EnvFile(), err)
			os.Exit(1)
		}

		fmt.Printf("Environment file: %s\n\n", cfg.EnvFile())
		fmt.Printf("%s=%s\n", envfile.KeyDomain, env.Domain)
		fmt.Printf("%s=%s\n", envfile.KeyDBPassword, redact(env.DBPassword))
		fmt.Printf("%s=%s\n", envfile.KeyAppURL, env.AppURL)
		fmt.Printf("%s=%v\n", envfile.KeyAutoTLS, env.AutoTLS)
		if env.SMTPHost != "" {
			fmt.Printf("%s=%s\n", envfile.KeySMTPHost, env.SMTPHost)
			fmt.Printf("%s=%s\n", envfile.KeySMTPPort, env.SMTPPort)
			fmt.Printf("%s=%s\n", envfile.KeySMTPUser, env.SMTPUser)
			fmt.Printf("%s=%s\n", envfile.KeySMTPPassword, redact(env.SMTPPassword))
		}
		if env.AIAPIKey != "" {
			fmt.Printf("%s=%s\n", envfile.KeyAIAPIKey, redact(env.AIAPIKey))
		}
	},
}

// redact hides a credential while confirming one is set.
func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// initConfigCommands sets up all config-related commands
func initConfigCommands() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
}
