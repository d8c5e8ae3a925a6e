// Command receiving serves the receive plan lifecycle API for the
// container freight station: plan CRUD, container assignment, gate
// outcomes, lifecycle transitions and report export.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborworks/receiving-go/internal/platform/auditlog"
	"github.com/harborworks/receiving-go/internal/platform/auth"
	"github.com/harborworks/receiving-go/internal/platform/env"
	"github.com/harborworks/receiving-go/internal/platform/httpserver"
	"github.com/harborworks/receiving-go/internal/platform/objectstore"
	"github.com/harborworks/receiving-go/internal/platform/postgres"
	"github.com/harborworks/receiving-go/internal/service/plans"
	"github.com/harborworks/receiving-go/internal/yardcfg"
)

const serviceName = "receiving"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("service exited", "service", serviceName, "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := env.String("RECEIVING_HTTP_ADDR", ":8084")
	shutdownTimeout, err := env.Duration("RECEIVING_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return err
	}

	pgCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		return err
	}
	db, err := postgres.Open(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		return err
	}
	store, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		return err
	}
	{
		bucketCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := objectstore.EnsureReportsBucket(bucketCtx, store, storeCfg); err != nil {
			return err
		}
	}

	bays := yardcfg.Default()
	if path := env.String("RECEIVING_BAYS_FILE", ""); path != "" {
		bays, err = yardcfg.Load(path)
		if err != nil {
			return err
		}
		logger.Info("loaded bay spec", "service", serviceName, "path", path, "bays", len(bays.Bays))
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()

	authenticator, err := buildAuthenticator(ctx, logger, authCfg, mux)
	if err != nil {
		return err
	}

	coord := plans.NewCoordinator()
	api := newReceivingAPI(logger, db, store, storeCfg, coord, bays)
	api.register(mux)

	mux.HandleFunc("GET /healthz", httpserver.Healthz(serviceName))
	mux.HandleFunc("GET /readyz", httpserver.ReadyzWithChecks(serviceName,
		httpserver.ReadinessCheck{Name: "postgres", Check: func(ctx context.Context) error {
			checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
			defer cancel()
			return db.PingContext(checkCtx)
		}},
		httpserver.ReadinessCheck{Name: "objectstore", Check: func(ctx context.Context) error {
			checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
			defer cancel()
			return objectstore.CheckReportsBucket(checkCtx, store, storeCfg)
		}},
	))

	authMw := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Authorize:     auth.MethodRoleAuthorizer(),
		Audit: func(ctx context.Context, event auth.DenyEvent) error {
			return auditlog.InsertAuthDeny(ctx, db, serviceName, event)
		},
		SkipPrefixes: []string{"/healthz", "/readyz", "/auth/"},
	}

	handler := httpserver.Wrap(logger, serviceName, authMw.Wrap(mux))

	logger.Info("starting service", "service", serviceName, "addr", addr, "auth_mode", string(authCfg.Mode))
	return httpserver.Run(ctx, logger, httpserver.Config{
		Service:         serviceName,
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}, handler)
}

// buildAuthenticator constructs the authenticator for the configured
// mode. In oidc mode with a login client configured it also mounts the
// browser login flow under /auth/.
func buildAuthenticator(ctx context.Context, logger *slog.Logger, cfg auth.Config, mux *http.ServeMux) (auth.Authenticator, error) {
	switch cfg.Mode {
	case auth.ModeOIDC:
		svc, err := auth.NewOIDCService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := cfg.ValidateForLogin(); err == nil {
			login, err := svc.LoginHandler()
			if err != nil {
				return nil, err
			}
			callback, err := svc.CallbackHandler()
			if err != nil {
				return nil, err
			}
			mux.HandleFunc("GET /auth/login", login)
			mux.HandleFunc("GET /auth/callback", callback)
			mux.HandleFunc("POST /auth/logout", svc.LogoutHandler())
			mux.HandleFunc("GET /auth/session", svc.SessionHandler())
		} else {
			logger.Info("oidc login flow disabled", "service", serviceName, "reason", err.Error())
		}
		return svc, nil
	case auth.ModeGateway:
		return auth.NewGatewayHeadersAuthenticator(cfg)
	case auth.ModeDev:
		logger.Warn("dev auth mode enabled; not for production", "service", serviceName)
		return auth.NewDevAuthenticator(cfg), nil
	case auth.ModeDisabled:
		logger.Warn("authentication disabled", "service", serviceName)
		return auth.NewDisabledAuthenticator(), nil
	default:
		return auth.NewDisabledAuthenticator(), nil
	}
}
