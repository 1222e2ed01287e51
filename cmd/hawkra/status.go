package main

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hawkra/hawkra/internal/envfile"
	"github.com/hawkra/hawkra/internal/hosts"
	"github.com/hawkra/hawkra/internal/state"
	"github.com/hawkra/hawkra/internal/version"
)

// healthInfo is the payload of the application's health endpoint.
type healthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show deployment status",
	Long:  `Display the state of the Hawkra deployment on this host: installation marker, container states, and application health.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		st, err := state.Detect(cfg.EnvFile())
		if err != nil {
			logger.Error("Failed to probe installation state: %v", err)
			os.Exit(1)
		}

		logger.Info("=== Hawkra Status ===")
		if st == state.FreshInstall {
			logger.Info("Status: ❌ Not installed - run 'hawkra install' to set up")
			return
		}

		env, err := envfile.Read(cfg.EnvFile())
		if err != nil {
			logger.Error("Installation marker exists but the environment file is unreadable: %v", err)
			os.Exit(1)
		}

		logger.Info("Install directory: %s", cfg.InstallDir)
		logger.Info("Domain: %s", env.Domain)

		if ok, herr := hosts.New(cfg.HostsFile).Contains(env.Domain); herr == nil {
			if ok {
				logger.Info("Hosts entry: ✅ %s resolves locally", env.Domain)
			} else {
				logger.Info("Hosts entry: ❌ no mapping for %s in %s", env.Domain, cfg.HostsFile)
			}
		}

		rt := newRuntime()
		if err := rt.Ping(cmd.Context()); err != nil {
			logger.Info("Runtime: ❌ Container runtime is not reachable: %v", err)
			return
		}

		containers, err := rt.ListContainers(cmd.Context(), cfg.ContainerPrefix)
		if err != nil {
			logger.Error("Failed to list containers: %v", err)
			os.Exit(1)
		}
		if len(containers) == 0 {
			logger.Info("Containers: ❌ None running - start with: docker compose --file %s up -d", cfg.ComposeFile())
			return
		}
		for _, ct := range containers {
			mark := "✅"
			if ct.State != "running" {
				mark = "❌"
			}
			logger.Info("  %s %s (%s)", mark, ct.Name, ct.State)
		}

		// Local deployments terminate TLS with a self-signed certificate
		// unless auto-TLS is on; the status probe accepts either.
		client := &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}

		resp, err := client.Get(fmt.Sprintf("https://%s/api/health", env.Domain))
		if err != nil {
			logger.Info("Application: ❌ Health endpoint unreachable: %v", err)
			return
		}
		defer resp.Body.Close()

		var health healthInfo
		if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&health) != nil {
			logger.Info("Application: ❌ Health endpoint returned status %d", resp.StatusCode)
			return
		}

		logger.Info("Application: ✅ %s (version %s)", health.Status, health.Version)
		if health.Version != "" && version.IsNewer(version.Version, health.Version) {
			logger.Info("⬆️  The deployment runs %s; this installer is %s - consider updating it", health.Version, version.Version)
		}
	},
}
