package install

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hawkra/hawkra/internal/config"
	"github.com/hawkra/hawkra/internal/docker"
	"github.com/hawkra/hawkra/internal/envfile"
	"github.com/hawkra/hawkra/internal/hosts"
	"github.com/hawkra/hawkra/internal/prompt"
	"github.com/hawkra/hawkra/internal/state"
)

const hostsContent = "127.0.0.1\tlocalhost\n::1\tlocalhost\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.InstallDir = filepath.Join(dir, "hawkra")
	cfg.HostsFile = filepath.Join(dir, "hosts")
	cfg.LogFile = ""
	cfg.ReadyTimeout = time.Second
	cfg.PollInterval = time.Millisecond

	require.NoError(t, os.WriteFile(cfg.HostsFile, []byte(hostsContent), 0644))
	return cfg
}

func testInstaller(t *testing.T, cfg *config.Config, rt docker.Runtime, compose docker.ComposeRunner) *Installer {
	t.Helper()
	ins := New(cfg, rt, compose)
	ins.Preflight = func() error { return nil }
	ins.PromptDomain = func(def string) (string, error) { return "app.local", nil }
	ins.ConfirmReconfigure = func() (bool, error) { return true, nil }
	ins.AddressFn = func() string { return "10.0.0.5" }
	ins.FetchBundle = func(ctx context.Context, destDir string) error {
		return os.WriteFile(filepath.Join(destDir, "docker-compose.yml"), []byte("services: {}\n"), 0644)
	}
	ins.Bootstrap = func(ctx context.Context) error { return nil }
	ins.ShowProgress = false
	return ins
}

func readyRuntime() *fakeRuntime {
	return &fakeRuntime{
		logsFunc: func(ctx context.Context, name, tail string) (string, error) {
			return "Generated admin password: first-boot-pw\n", nil
		},
	}
}

func countLines(t *testing.T, path, needle string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, needle) {
			n++
		}
	}
	return n
}

func TestRunFreshInstall(t *testing.T) {
	cfg := testConfig(t)
	compose := &fakeCompose{available: true}
	ins := testInstaller(t, cfg, readyRuntime(), compose)

	sum, err := ins.Run(context.Background())
	require.NoError(t, err)

	_, perr := uuid.Parse(sum.RunID)
	assert.NoError(t, perr, "summary carries a well-formed run id")
	assert.Equal(t, state.FreshInstall, sum.State)
	assert.Equal(t, "app.local", sum.Domain)
	assert.Equal(t, hosts.ResultAdded, sum.HostsResult)
	assert.Equal(t, "first-boot-pw", sum.AdminCredential)
	assert.False(t, sum.Failed())

	// Exactly one new hosts line, nothing else touched.
	data, rerr := os.ReadFile(cfg.HostsFile)
	require.NoError(t, rerr)
	assert.Equal(t, hostsContent+"10.0.0.5\tapp.local\n", string(data))

	env, rerr := envfile.Read(cfg.EnvFile())
	require.NoError(t, rerr)
	assert.Equal(t, "app.local", env.Domain)
	assert.NotEmpty(t, env.DBPassword)

	info, rerr := os.Stat(cfg.EnvFile())
	require.NoError(t, rerr)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	assert.FileExists(t, cfg.ComposeFile())
	assert.Equal(t, 1, compose.pullCalls)
	assert.Equal(t, 1, compose.upCalls)
}

func TestRunCredentialsDifferAcrossFreshInstalls(t *testing.T) {
	var creds []string
	for i := 0; i < 2; i++ {
		cfg := testConfig(t)
		ins := testInstaller(t, cfg, readyRuntime(), &fakeCompose{available: true})
		_, err := ins.Run(context.Background())
		require.NoError(t, err)

		env, err := envfile.Read(cfg.EnvFile())
		require.NoError(t, err)
		creds = append(creds, env.DBPassword)
	}
	assert.NotEqual(t, creds[0], creds[1])
}

func TestRunReconfigurePreservesCredential(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.InstallDir, 0755))
	require.NoError(t, envfile.Write(cfg.EnvFile(), &envfile.Env{
		Domain:     "app.local",
		DBPassword: "abc123",
		AppURL:     "https://app.local",
	}))
	seeded := hostsContent + "10.0.0.5\tapp.local\n"
	require.NoError(t, os.WriteFile(cfg.HostsFile, []byte(seeded), 0644))

	ins := testInstaller(t, cfg, readyRuntime(), &fakeCompose{available: true})
	sum, err := ins.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, state.ExistingInstall, sum.State)
	assert.Equal(t, hosts.ResultAlreadyPresent, sum.HostsResult)

	env, err := envfile.Read(cfg.EnvFile())
	require.NoError(t, err)
	assert.Equal(t, "abc123", env.DBPassword)

	assert.Equal(t, 1, countLines(t, cfg.HostsFile, "app.local"))
}

func TestRunReconfigureDeclinedIsCancellation(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.InstallDir, 0755))
	require.NoError(t, envfile.Write(cfg.EnvFile(), &envfile.Env{
		Domain:     "app.local",
		DBPassword: "abc123",
		AppURL:     "https://app.local",
	}))

	compose := &fakeCompose{available: true}
	ins := testInstaller(t, cfg, readyRuntime(), compose)
	ins.ConfirmReconfigure = func() (bool, error) { return false, nil }

	_, err := ins.Run(context.Background())
	assert.ErrorIs(t, err, prompt.ErrCancelled)

	// Nothing was touched.
	env, rerr := envfile.Read(cfg.EnvFile())
	require.NoError(t, rerr)
	assert.Equal(t, "abc123", env.DBPassword)
	assert.Equal(t, 0, compose.upCalls)
}

func TestRunCrashedContainerIsFatal(t *testing.T) {
	cfg := testConfig(t)
	rt := &fakeRuntime{
		stateFunc: func(ctx context.Context, name string) (string, error) {
			return docker.StateExited, nil
		},
		logsFunc: func(ctx context.Context, name, tail string) (string, error) {
			return "fatal: bad config\n", nil
		},
	}

	ins := testInstaller(t, cfg, rt, &fakeCompose{available: true})
	_, err := ins.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crashed")
	assert.Contains(t, err.Error(), "bad config")
}

func TestRunRejectsInvalidDomain(t *testing.T) {
	cfg := testConfig(t)
	ins := testInstaller(t, cfg, readyRuntime(), &fakeCompose{available: true})
	ins.PromptDomain = func(def string) (string, error) { return "not a domain!", nil }

	_, err := ins.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid domain")
}
