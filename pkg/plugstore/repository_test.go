package plugstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/plugstore/pkg/plugstore"
)

// fakePlugin is a minimal loaded plugin for tests.
type fakePlugin struct {
	key        string
	extensions []any
}

func (p *fakePlugin) Extensions() []any {
	return p.extensions
}

// echoLoader activates a fakePlugin per info and records unloads.
type echoLoader struct {
	loadErr   error
	unloadErr error
	unloaded  []plugstore.Plugin
}

func (l *echoLoader) Load(_ context.Context, infos map[string]*plugstore.PluginInfo) (map[string]plugstore.Plugin, error) {
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	instances := make(map[string]plugstore.Plugin, len(infos))
	for key := range infos {
		instances[key] = &fakePlugin{key: key}
	}
	return instances, nil
}

func (l *echoLoader) Unload(_ context.Context, plugins []plugstore.Plugin) error {
	l.unloaded = append(l.unloaded, plugins...)
	return l.unloadErr
}

// jsInstaller returns the single lang-js plugin.
func jsInstaller() plugstore.InstallerFunc {
	return func(context.Context) (map[string]*plugstore.PluginInfo, error) {
		return map[string]*plugstore.PluginInfo{
			"lang-js": {Key: "lang-js", Name: "JS Analyzer", Version: "1.0"},
		}, nil
	}
}

func TestRepositoryStart(t *testing.T) {
	ctx := context.Background()

	t.Run("populates infos and instances", func(t *testing.T) {
		repo := plugstore.NewRepository(jsInstaller(), &echoLoader{})
		require.NoError(t, repo.Start(ctx))
		assert.Equal(t, plugstore.StateStarted, repo.CurrentState())

		info, err := repo.Info("lang-js")
		require.NoError(t, err)
		assert.Equal(t, "JS Analyzer", info.Name)
		assert.Equal(t, "1.0", info.Version)

		instance, err := repo.Instance("lang-js")
		require.NoError(t, err)
		assert.NotNil(t, instance)

		assert.True(t, repo.Has("lang-js"))
		assert.Len(t, repo.Infos(), 1)
	})

	t.Run("second start is rejected", func(t *testing.T) {
		repo := plugstore.NewRepository(jsInstaller(), &echoLoader{})
		require.NoError(t, repo.Start(ctx))

		err := repo.Start(ctx)
		var stateErr *plugstore.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, plugstore.StateStarted, stateErr.State)
	})

	t.Run("installer failure leaves the repository not started", func(t *testing.T) {
		boom := errors.New("index corrupted")
		installer := plugstore.InstallerFunc(func(context.Context) (map[string]*plugstore.PluginInfo, error) {
			return nil, boom
		})
		repo := plugstore.NewRepository(installer, &echoLoader{})

		err := repo.Start(ctx)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, plugstore.StateNotStarted, repo.CurrentState())
		assert.False(t, repo.Has("lang-js"))
	})

	t.Run("loader failure leaves the repository not started", func(t *testing.T) {
		boom := errors.New("classloader exploded")
		repo := plugstore.NewRepository(jsInstaller(), &echoLoader{loadErr: boom})

		err := repo.Start(ctx)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, plugstore.StateNotStarted, repo.CurrentState())
	})
}

func TestRepositoryLookups(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown key fails fast", func(t *testing.T) {
		repo := plugstore.NewRepository(jsInstaller(), &echoLoader{})
		require.NoError(t, repo.Start(ctx))

		_, err := repo.Info("unknown-key")
		var unknownErr *plugstore.UnknownPluginError
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "unknown-key", unknownErr.Key)

		_, err = repo.Instance("unknown-key")
		assert.ErrorAs(t, err, &unknownErr)
	})

	t.Run("lookups before start are state errors", func(t *testing.T) {
		repo := plugstore.NewRepository(jsInstaller(), &echoLoader{})

		var stateErr *plugstore.StateError
		_, err := repo.Info("lang-js")
		require.ErrorAs(t, err, &stateErr)

		_, err = repo.Instance("lang-js")
		require.ErrorAs(t, err, &stateErr)
	})

	t.Run("Has never errors", func(t *testing.T) {
		repo := plugstore.NewRepository(jsInstaller(), &echoLoader{})
		assert.False(t, repo.Has("lang-js"))

		require.NoError(t, repo.Start(ctx))
		assert.True(t, repo.Has("lang-js"))

		require.NoError(t, repo.Stop(ctx))
		assert.False(t, repo.Has("lang-js"))
	})
}

func TestRepositoryStop(t *testing.T) {
	ctx := context.Background()

	t.Run("unloads every instance and clears state", func(t *testing.T) {
		loader := &echoLoader{}
		repo := plugstore.NewRepository(jsInstaller(), loader)
		require.NoError(t, repo.Start(ctx))

		require.NoError(t, repo.Stop(ctx))
		assert.Equal(t, plugstore.StateStopped, repo.CurrentState())
		assert.Len(t, loader.unloaded, 1)
		assert.Empty(t, repo.Infos())

		var stateErr *plugstore.StateError
		_, err := repo.Info("lang-js")
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("stop is idempotent once stopped", func(t *testing.T) {
		loader := &echoLoader{}
		repo := plugstore.NewRepository(jsInstaller(), loader)
		require.NoError(t, repo.Start(ctx))
		require.NoError(t, repo.Stop(ctx))

		assert.NoError(t, repo.Stop(ctx))
		assert.Len(t, loader.unloaded, 1)
	})

	t.Run("stop before start is a state error", func(t *testing.T) {
		repo := plugstore.NewRepository(jsInstaller(), &echoLoader{})

		var stateErr *plugstore.StateError
		assert.ErrorAs(t, repo.Stop(ctx), &stateErr)
	})

	t.Run("unload errors propagate but teardown completes", func(t *testing.T) {
		boom := errors.New("instance refused to die")
		loader := &echoLoader{unloadErr: boom}
		repo := plugstore.NewRepository(jsInstaller(), loader)
		require.NoError(t, repo.Start(ctx))

		err := repo.Stop(ctx)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, plugstore.StateStopped, repo.CurrentState())
		assert.Empty(t, repo.Infos())
	})

	t.Run("restart is unsupported", func(t *testing.T) {
		repo := plugstore.NewRepository(jsInstaller(), &echoLoader{})
		require.NoError(t, repo.Start(ctx))
		require.NoError(t, repo.Stop(ctx))

		var stateErr *plugstore.StateError
		err := repo.Start(ctx)
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, plugstore.StateStopped, stateErr.State)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not started", plugstore.StateNotStarted.String())
	assert.Equal(t, "started", plugstore.StateStarted.String())
	assert.Equal(t, "stopped", plugstore.StateStopped.String())
}
