package preflight

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func override(t *testing.T, os string, euid int, terminal bool, dockerPresent bool) {
	t.Helper()
	origGoos, origGeteuid, origIsTerminal, origLookPath := goos, geteuid, isTerminal, lookPath
	goos = func() string { return os }
	geteuid = func() int { return euid }
	isTerminal = func() bool { return terminal }
	lookPath = func(string) (string, error) {
		if dockerPresent {
			return "/usr/bin/docker", nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
	t.Cleanup(func() {
		goos, geteuid, isTerminal, lookPath = origGoos, origGeteuid, origIsTerminal, origLookPath
	})
}

func TestCheckPasses(t *testing.T) {
	override(t, "linux", 0, true, true)
	assert.NoError(t, Check())
}

func TestCheckFailures(t *testing.T) {
	tests := []struct {
		name     string
		os       string
		euid     int
		terminal bool
		docker   bool
		want     error
	}{
		{"not linux", "darwin", 0, true, true, ErrNotLinux},
		{"not root", "linux", 1000, true, true, ErrNotRoot},
		{"not a terminal", "linux", 0, false, true, ErrNotTerminal},
		{"no runtime", "linux", 0, true, false, ErrNoRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			override(t, tt.os, tt.euid, tt.terminal, tt.docker)
			assert.ErrorIs(t, Check(), tt.want)
		})
	}
}
