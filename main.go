package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mbolis/launchalot/app"
	"github.com/mbolis/launchalot/config"
	"github.com/mbolis/launchalot/database"
	"github.com/mbolis/launchalot/httpx"
	"github.com/mbolis/launchalot/log"
	"github.com/mbolis/launchalot/metrics"
	"github.com/mbolis/launchalot/report"
	"github.com/mbolis/launchalot/routes"
)

const logoTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal("main:", err)
	}
}

func run() error {
	cfg, err := config.ParseFlags()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx := context.Background()
	store, err := database.Open(ctx, cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("db.open: %w", err)
	}
	defer store.Close()

	if cfg.Seed {
		if err = database.Seed(ctx, store); err != nil {
			return fmt.Errorf("db.seed: %w", err)
		}
		log.Info("Seed complete")
		return nil
	}

	m := metrics.New()
	reports := report.NewRenderer(report.NewLogoLoader(cfg.UploadDir, cfg.PublicDir, logoTimeout))
	reports.LogoFailed = m.RecordLogoFailure

	app := app.App{
		Store:  store,
		Config: cfg,
		Tokens: httpx.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL),
		Credentials: httpx.AdminCredentials{
			Email:        cfg.AdminEmail,
			Password:     cfg.AdminPassword,
			PasswordHash: cfg.AdminPasswordHash,
		},
		Metrics: m,
		Reports: reports,
	}

	err = runServer(cfg, routes.Wire(app))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server: %w", err)
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
