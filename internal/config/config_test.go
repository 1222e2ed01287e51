package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/opt/hawkra", cfg.InstallDir)
	assert.Equal(t, "/etc/hosts", cfg.HostsFile)
	assert.Equal(t, "hawkra.local", cfg.DefaultDomain)
	assert.Equal(t, "hawkra-", cfg.ContainerPrefix)
	assert.Equal(t, 120*time.Second, cfg.ReadyTimeout)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "/opt/hawkra/.env", cfg.EnvFile())
	assert.Equal(t, "/opt/hawkra/docker-compose.yml", cfg.ComposeFile())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HAWKRA_INSTALL_DIR", "/srv/hawkra")
	t.Setenv("HAWKRA_DOMAIN", "app.example.com")
	t.Setenv("HAWKRA_READY_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/hawkra", cfg.InstallDir)
	assert.Equal(t, "app.example.com", cfg.DefaultDomain)
	assert.Equal(t, 30*time.Second, cfg.ReadyTimeout)
	assert.Equal(t, "/srv/hawkra/.env", cfg.EnvFile())
}

func TestResolveBundleURLFollowsChannel(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://releases.hawkra.io/bundle/stable/hawkra-bundle.tar.gz", cfg.ResolveBundleURL())

	cfg.Channel = "beta"
	assert.Equal(t, "https://releases.hawkra.io/bundle/beta/hawkra-bundle.tar.gz", cfg.ResolveBundleURL())

	// An explicit override without the placeholder is used verbatim.
	cfg.BundleURL = "https://mirror.example.com/hawkra-v2.tar.gz"
	assert.Equal(t, "https://mirror.example.com/hawkra-v2.tar.gz", cfg.ResolveBundleURL())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad domain", func(c *Config) { c.DefaultDomain = "not a hostname!" }},
		{"bad channel", func(c *Config) { c.Channel = "nightly" }},
		{"zero timeout", func(c *Config) { c.ReadyTimeout = 0 }},
		{"interval above timeout", func(c *Config) { c.PollInterval = 10 * time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
