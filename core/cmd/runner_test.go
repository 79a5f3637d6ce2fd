package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/groupbot/core/config"
	coretelegram "github.com/m3rciful/groupbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct{ opts coretelegram.RunOptions }

func (a fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, nil }

func TestRunWrapsLifecycleHooks(t *testing.T) {
	t.Setenv("GROUPBOT_TEST_CONFIG", "test.yaml")

	var started, stopped bool
	err := Run(Options{
		ConfigEnvVar: "GROUPBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			if path != "test.yaml" {
				t.Fatalf("path = %q", path)
			}
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return fakeApp{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !started || !stopped {
		t.Fatalf("hooks not chained: started=%v stopped=%v", started, stopped)
	}
}

func TestRunReportsLoadError(t *testing.T) {
	boom := errors.New("bad yaml")
	err := Run(Options{
		DefaultConfigPath: "missing.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return nil, boom },
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			t.Fatalf("bootstrap must not run")
			return nil, nil
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
