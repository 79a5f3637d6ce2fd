package main

import (
	"context"
	"fmt"
	"log"
	"os"

	corebootstrap "github.com/m3rciful/groupbot/core/bootstrap"
	corecmd "github.com/m3rciful/groupbot/core/cmd"
	"github.com/m3rciful/groupbot/internal/app"
	"github.com/m3rciful/groupbot/internal/config"
	"github.com/m3rciful/groupbot/internal/store"
)

func main() {
	defer notifyCrash()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			crashConfig.Store(cfg)
			return cfg, nil
		},
		Bootstrap: bootstrap,
	})
	if err != nil {
		log.Printf("groupbot: %v", err)
		reportFatal(err)
		os.Exit(1)
	}
}

func bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}
	res, err := corebootstrap.Run(corebootstrap.Options{
		Config:        cfg.CoreConfig(),
		Database:      cfg.SQLConfig(),
		Migrations:    store.Migrations,
		MigrationsDir: store.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg, res.DB)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, st), nil
}
