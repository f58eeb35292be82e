package voxservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/voxlingua/voxlingua/internal/api"
	"github.com/voxlingua/voxlingua/internal/api/recovery"
	"github.com/voxlingua/voxlingua/internal/auth"
	"github.com/voxlingua/voxlingua/internal/config"
	"github.com/voxlingua/voxlingua/internal/conversationlog"
	"github.com/voxlingua/voxlingua/internal/platform/logger"
	"github.com/voxlingua/voxlingua/internal/realtime"
	"github.com/voxlingua/voxlingua/internal/services"
	"github.com/voxlingua/voxlingua/internal/store"
	"github.com/voxlingua/voxlingua/internal/store/postgres"
	"github.com/voxlingua/voxlingua/internal/store/sqlite"
)

// Run starts the voxlingua HTTP service and blocks until shutdown or error.
func Run() error {
	log := logger.New("voxlingua-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := newStore(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Store adapter unavailable")
		return err
	}

	verifier := newVerifier(cfg, log)
	router := buildRouter(st, verifier, cfg, log)

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// newStore selects the storage driver from config.
func newStore(cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		log.Info().Msg("using postgres store")
		return postgres.New(cfg.PostgresDSN)
	case "sqlite":
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		return sqlite.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// newVerifier selects the identity verifier from config. Static mode accepts
// a fixed local token and must never be used outside development.
func newVerifier(cfg *config.Config, log zerolog.Logger) auth.Verifier {
	if cfg.AuthMode == "static" {
		log.Warn().Msg("AUTH_MODE=static: accepting the fixed local dev token")
		return auth.NewStaticVerifier()
	}
	return auth.NewHTTPVerifier(cfg.AuthBaseURL, cfg.AuthAnonKey)
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(st store.Store, verifier auth.Verifier, cfg *config.Config, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	usageSvc := services.NewUsageService(st, cfg.DailyLimitSeconds)
	issuer := realtime.New(cfg.RealtimeBaseURL, cfg.RealtimeAPIKey)
	sessionSvc := services.NewSessionService(verifier, usageSvc, st, issuer, services.SessionConfig{
		Model:           cfg.RealtimeModel,
		Voice:           cfg.RealtimeVoice,
		TranscribeModel: cfg.TranscribeModel,
	}, log)

	// Session broker
	sessionHandler := api.NewSessionHandler(sessionSvc)
	root.HandleFunc("/session", sessionHandler.CreateSession).Methods("POST")

	// Usage ledger
	usageHandler := api.NewUsageHandler(verifier, usageSvc, log)
	root.HandleFunc("/usage/ping", usageHandler.Ping).Methods("POST")
	root.HandleFunc("/usage", usageHandler.Get).Methods("GET")

	// Conversation log
	sink := conversationlog.New(cfg.LogDir, log)
	logHandler := api.NewLogHandler(sink)
	root.HandleFunc("/log", logHandler.AppendEvents).Methods("POST")

	// Situations
	situationSvc := services.NewSituationService(st)
	situationHandler := api.NewSituationHandler(situationSvc, verifier)
	root.HandleFunc("/situations", situationHandler.List).Methods("GET")
	root.HandleFunc("/situations/{id}", situationHandler.Get).Methods("GET")
	root.HandleFunc("/situations/{id}", situationHandler.Update).Methods("PUT")

	// Health
	healthHandler := api.NewHealthHandler(st)
	root.HandleFunc("/health", healthHandler.Check).Methods("GET")
	root.HandleFunc("/health/db", healthHandler.CheckStorage).Methods("GET")

	// Metrics
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return root
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
