package install

import (
	"context"

	"github.com/hawkra/hawkra/internal/docker"
)

// fakeRuntime implements docker.Runtime with overridable behavior per test.
type fakeRuntime struct {
	pingFunc       func(ctx context.Context) error
	stateFunc      func(ctx context.Context, name string) (string, error)
	logsFunc       func(ctx context.Context, name, tail string) (string, error)
	containersFunc func(ctx context.Context, prefix string) ([]docker.ContainerInfo, error)
	volumesFunc    func(ctx context.Context, prefix string) ([]string, error)

	stopped        []string
	removed        []string
	removedVolumes []string
	removedImages  []string

	removeVolumeErr func(name string) error
	removeImageErr  func(ref string) error
}

func (f *fakeRuntime) Ping(ctx context.Context) error {
	if f.pingFunc != nil {
		return f.pingFunc(ctx)
	}
	return nil
}

func (f *fakeRuntime) ListContainers(ctx context.Context, prefix string) ([]docker.ContainerInfo, error) {
	if f.containersFunc != nil {
		return f.containersFunc(ctx, prefix)
	}
	return nil, nil
}

func (f *fakeRuntime) ContainerState(ctx context.Context, name string) (string, error) {
	if f.stateFunc != nil {
		return f.stateFunc(ctx, name)
	}
	return docker.StateRunning, nil
}

func (f *fakeRuntime) ContainerLogs(ctx context.Context, name, tail string) (string, error) {
	if f.logsFunc != nil {
		return f.logsFunc(ctx, name, tail)
	}
	return "", nil
}

func (f *fakeRuntime) StopContainer(ctx context.Context, id string) error {
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeRuntime) RemoveContainer(ctx context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeRuntime) ListVolumes(ctx context.Context, prefix string) ([]string, error) {
	if f.volumesFunc != nil {
		return f.volumesFunc(ctx, prefix)
	}
	return nil, nil
}

func (f *fakeRuntime) RemoveVolume(ctx context.Context, name string) error {
	if f.removeVolumeErr != nil {
		if err := f.removeVolumeErr(name); err != nil {
			return err
		}
	}
	f.removedVolumes = append(f.removedVolumes, name)
	return nil
}

func (f *fakeRuntime) RemoveImage(ctx context.Context, ref string) error {
	if f.removeImageErr != nil {
		if err := f.removeImageErr(ref); err != nil {
			return err
		}
	}
	f.removedImages = append(f.removedImages, ref)
	return nil
}

// fakeCompose implements docker.ComposeRunner, recording calls.
type fakeCompose struct {
	available bool
	pullErr   error
	upErr     error
	downErr   error

	pullCalls int
	upCalls   int
	downCalls int
}

func (f *fakeCompose) Available() bool { return f.available }

func (f *fakeCompose) Pull(ctx context.Context) error {
	f.pullCalls++
	return f.pullErr
}

func (f *fakeCompose) Up(ctx context.Context) error {
	f.upCalls++
	return f.upErr
}

func (f *fakeCompose) Down(ctx context.Context, removeVolumes bool) error {
	f.downCalls++
	return f.downErr
}
