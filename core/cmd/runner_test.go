package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	coretelegram "github.com/m3rciful/shopbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct {
	closed bool
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{Config: &coreconfig.Config{}}, nil
}

func (a *app) Close() error {
	a.closed = true
	return nil
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("SHOP_CONFIG", "/etc/env.yaml")
	p, env := ResolveConfigPath(Options{ConfigEnvVar: "SHOP_CONFIG", DefaultConfigPath: "config.yaml"})
	assert.Equal(t, "/etc/env.yaml", p)
	assert.Equal(t, "SHOP_CONFIG", env)

	p, _ = ResolveConfigPath(Options{ConfigEnvVar: "SHOP_CONFIG", ConfigPath: "flag.yaml"})
	assert.Equal(t, "flag.yaml", p)

	t.Setenv("SHOP_CONFIG", "")
	p, _ = ResolveConfigPath(Options{ConfigEnvVar: "SHOP_CONFIG", DefaultConfigPath: "config.yaml"})
	assert.Equal(t, "config.yaml", p)
}

func TestRunInvokesLifecycle(t *testing.T) {
	a := &app{}
	var started, stopped, loggerClosed bool
	err := Run(Options{
		ConfigPath: "config.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return a, nil },
		ShutdownLogger: func() error { loggerClosed = true; return nil },
		Context:        context.Background(),
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			started = true
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			stopped = true
			return nil
		},
	})
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, stopped)
	assert.True(t, a.closed)
	assert.True(t, loggerClosed)
}

func TestRunPropagatesBootstrapError(t *testing.T) {
	err := Run(Options{
		ConfigPath:     "config.yaml",
		LoadConfig:     func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return nil, errors.New("db down") },
		ShutdownLogger: func() error { return nil },
	})
	require.ErrorContains(t, err, "db down")

	err = Run(Options{LoadConfig: nil})
	require.Error(t, err)
}
