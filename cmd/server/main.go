package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"

	"devspaces/internal/audit"
	"devspaces/internal/config"
	"devspaces/internal/db"
	"devspaces/internal/db/migrate"
	"devspaces/internal/memstore"
	"devspaces/internal/platform/logging"
	policyengine "devspaces/internal/policy/engine"
	"devspaces/internal/security"
	"devspaces/internal/server"
	"devspaces/internal/telemetry"
	"devspaces/internal/telemetry/otel"
	"devspaces/internal/telemetry/producer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, otel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.OTELService,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", "error", err)
		}
	}()

	policy, err := loadPolicy(ctx, cfg.AdminPolicyFile)
	if err != nil {
		return fmt.Errorf("admin policy: %w", err)
	}

	opts := server.Options{
		Logger:         logger,
		BootstrapEmail: cfg.BootstrapOwnerEmail,
		BcryptCost:     cfg.BcryptCost,
		Policy:         policy,
		Sessions:       newSessionManager(cfg),
		AllowedOrigins: cfg.AllowedOrigins(),

		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginRateBurst:     cfg.LoginRateBurst,
		TrustedProxy:       cfg.TrustedProxy,
	}
	var sinks []audit.EventSink
	if sink := otel.NewAuditSink(providers.LoggerProvider); sink != nil {
		sinks = append(sinks, sink)
	}
	if kp := producer.NewKafkaProducer(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic); kp != nil {
		stream := telemetry.NewAsyncSink(producer.WithBreaker(kp, 0, logger), logger)
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := stream.Close(drainCtx); err != nil {
				logger.Warn("audit stream close", "error", err)
			}
		}()
		sinks = append(sinks, stream)
		logger.Info("audit stream enabled", "topic", kp.Topic())
	}
	opts.AuditSink = telemetry.FanOut(sinks...)
	if cfg.AuthEnabled() {
		tokens, err := loadTokenProvider(cfg)
		if err != nil {
			return fmt.Errorf("jwt: %w", err)
		}
		opts.Tokens = tokens
	}

	var stores server.Stores
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer conn.Close()
		if cfg.MigrateOnStart {
			if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied")
		}
		stores = server.PostgresStores(conn)
		opts.HealthDB = conn
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory store, data is lost on restart")
		stores = server.MemoryStores(memstore.New())
	}

	handler, err := server.NewApp(stores, opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "bearer_tokens", opts.Tokens != nil, "otlp", providers.Exporting)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadPolicy(ctx context.Context, path string) (*policyengine.OPAEvaluator, error) {
	if path != "" {
		return policyengine.NewOPAEvaluatorFromFile(ctx, path)
	}
	return policyengine.NewOPAEvaluator(ctx, "")
}

func loadTokenProvider(cfg *config.Config) (*security.TokenProvider, error) {
	keys, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return nil, err
	}
	return security.NewTokenProvider(keys, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL()), nil
}

func newSessionManager(cfg *config.Config) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = cfg.SessionTTL()
	sm.Cookie.Name = "devspaces_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SessionCookieSecure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}
