package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds all settings for the installer. Defaults match a standard
// single-host deployment; every path and name can be overridden through the
// environment for packaging and testing.
type Config struct {
	// Filesystem layout
	InstallDir string `env:"HAWKRA_INSTALL_DIR" envDefault:"/opt/hawkra" validate:"required"`
	HostsFile  string `env:"HAWKRA_HOSTS_FILE" envDefault:"/etc/hosts" validate:"required"`
	LogFile    string `env:"HAWKRA_LOG_FILE" envDefault:"/var/log/hawkra/install.log"`

	// Deployment identity
	DefaultDomain   string `env:"HAWKRA_DOMAIN" envDefault:"hawkra.local" validate:"required,hostname_rfc1123"`
	ContainerPrefix string `env:"HAWKRA_CONTAINER_PREFIX" envDefault:"hawkra-"`
	VolumePrefix    string `env:"HAWKRA_VOLUME_PREFIX" envDefault:"hawkra_"`
	AppContainer    string `env:"HAWKRA_APP_CONTAINER" envDefault:"hawkra-server"`

	// Release bundle. The URL is a template; "{channel}" is replaced with
	// the selected release channel.
	BundleURL string `env:"HAWKRA_BUNDLE_URL" envDefault:"https://releases.hawkra.io/bundle/{channel}/hawkra-bundle.tar.gz"`
	Channel   string `env:"HAWKRA_CHANNEL" envDefault:"stable" validate:"oneof=stable beta"`

	// Readiness wait
	ReadyTimeout time.Duration `env:"HAWKRA_READY_TIMEOUT" envDefault:"120s"`
	PollInterval time.Duration `env:"HAWKRA_POLL_INTERVAL" envDefault:"5s"`
}

// Application images belonging to this deployment, plus the pinned
// infrastructure images it ships with. Removal of a shared infra image may be
// refused by the runtime; that is expected and non-fatal.
var (
	AppImages = []string{
		"hawkra/server:latest",
		"hawkra/worker:latest",
	}
	InfraImages = []string{
		"postgres:16-alpine",
		"redis:7-alpine",
		"caddy:2-alpine",
	}
)

var validate = validator.New()

// Load builds the configuration from defaults and environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for obviously broken values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("invalid configuration: ready timeout must be positive")
	}

	if c.PollInterval <= 0 || c.PollInterval >= c.ReadyTimeout {
		return fmt.Errorf("invalid configuration: poll interval must be positive and below the ready timeout")
	}

	return nil
}

// ResolveBundleURL substitutes the release channel into the bundle URL
// template. A URL without the placeholder, such as an explicit override
// pointing at a fixed artifact, is used verbatim.
func (c *Config) ResolveBundleURL() string {
	return strings.ReplaceAll(c.BundleURL, "{channel}", c.Channel)
}

// EnvFile returns the path of the generated environment file. Its presence is
// the sole marker of an existing installation.
func (c *Config) EnvFile() string {
	return filepath.Join(c.InstallDir, ".env")
}

// ComposeFile returns the path of the deployment descriptor.
func (c *Config) ComposeFile() string {
	return filepath.Join(c.InstallDir, "docker-compose.yml")
}

// CertsDir returns the path of the TLS certificate directory.
func (c *Config) CertsDir() string {
	return filepath.Join(c.InstallDir, "certs")
}

// LicenseDir returns the path of the license material directory.
func (c *Config) LicenseDir() string {
	return filepath.Join(c.InstallDir, "license")
}
