package main

import (
	"context"
	"log/slog"
	"os"

	adapthttp "koerperwerte/internal/adapter/http"
	"koerperwerte/internal/app"
	"koerperwerte/internal/backend"
	"koerperwerte/internal/config"
	"koerperwerte/internal/logging"
	"koerperwerte/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open backend", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	ledger := app.NewLedger(b.Measurements, b.Locker,
		app.WithLocation(cfg.Location()),
		app.WithSeeding(cfg.SeedEmptyGroups),
		app.WithLogger(logger),
	)
	authSvc := app.NewAuthService(b.Users, b.Sessions).WithSessionTTL(cfg.SessionTTL)

	var oidcCfg *adapthttp.OIDCConfig
	if cfg.SSOEnabled() {
		oidcCfg, err = adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			logger.Error("failed to configure sso", "issuer", cfg.OIDCIssuer, "error", err)
			_ = b.Close()
			os.Exit(1)
		}
	}

	httpSrv, err := adapthttp.New(adapthttp.Deps{
		Ledger:           ledger,
		Calendar:         app.NewCalendarService(ledger),
		Auth:             authSvc,
		Health:           adapthttp.NewHealthHandler(b.Store, b.Redis),
		OIDC:             oidcCfg,
		Logger:           logger,
		DefaultGroup:     cfg.DefaultGroup,
		TrustForwardAuth: cfg.TrustForwardAuth,
		SessionTTL:       cfg.SessionTTL,
	})
	if err != nil {
		logger.Error("failed to build http handler", "error", err)
		_ = b.Close()
		os.Exit(1)
	}

	srv := server.New(httpSrv.Handler(), cfg.Addr, cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout, logger)
	srv.OnShutdown("backend", func(context.Context) error { return b.Close() })

	logger.Info("starting server",
		"addr", cfg.Addr,
		"env", cfg.AppEnv,
		"driver", cfg.StoreDriver,
		"default_group", cfg.DefaultGroup,
		"sso", cfg.SSOEnabled(),
	)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
