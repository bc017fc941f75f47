package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"gwmux/internal/accounts"
	"gwmux/internal/cache"
	"gwmux/internal/config"
	"gwmux/internal/constants"
	"gwmux/internal/credential"
	"gwmux/internal/crypto"
	"gwmux/internal/gateway"
	"gwmux/internal/logging"
	monenh "gwmux/internal/monitoring"
	tracing "gwmux/internal/monitoring/tracing"
	"gwmux/internal/selector"
	srv "gwmux/internal/server"
	"gwmux/internal/translator"
	"gwmux/internal/upstream"
	"gwmux/internal/upstream/antigravity"
	"gwmux/internal/upstream/codex"
	"gwmux/internal/upstream/gemini"
	"gwmux/internal/upstream/kiro"
	"gwmux/internal/upstream/qwen"
	"gwmux/internal/usage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg := config.LoadWithFile(*configPath)
	if cfg == nil {
		log.Fatal("Failed to load configuration")
	}
	if *debug {
		cfg.Security.Debug = true
		cfg.SyncFromDomains()
	}

	if err := cfg.ValidateAndExpandPaths(); err != nil {
		log.WithError(err).Fatal("invalid configuration paths")
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	traceShutdown, err := tracing.Init(context.Background())
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}
	if traceShutdown != nil {
		defer func() {
			if err := traceShutdown(context.Background()); err != nil {
				log.WithError(err).Warn("failed to shutdown tracing")
			}
		}()
	}
	log.Infof("Starting gwmux gateway (config: %s)", *configPath)

	metrics := monenh.NewEnhancedMetrics()
	monenh.SetDefaultMetrics(metrics)

	translator.ConfigureSanitizer(cfg.ResponseShaping.SanitizerEnabled, cfg.ResponseShaping.SanitizerPatterns)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	box, err := buildSecretBox(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize credential secret box")
	}

	repo, closeRepo, err := buildAccountRepository(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize account repository")
	}
	if closeRepo != nil {
		defer closeRepo()
	}

	kv, err := buildCache(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize cache backend")
	}

	credMgr := credential.NewManager(repo, kv, box)
	sel := selector.New(repo, kv)

	providers := upstream.NewManager(
		codex.NewProvider(cfg),
		gemini.NewProvider(cfg),
		kiro.NewProvider(cfg),
		antigravity.NewProvider(cfg),
		qwen.NewProvider(cfg),
	)

	store, err := buildUsageStore(cfg)
	if err != nil {
		log.WithError(err).Warn("usage store unavailable; usage will not be persisted")
	}
	tracker := usage.NewTracker(store)

	refreshers := map[accounts.Provider]credential.Refresher{
		accounts.ProviderGeminiCLI: gateway.NewGeminiCLIRefresher(cfg),
	}

	gw := gateway.New(cfg, gateway.Dependencies{
		Selector:   sel,
		Credential: credMgr,
		Providers:  providers,
		Translator: translator.Default(),
		Tracker:    tracker,
		Refreshers: refreshers,
	})

	engine := srv.BuildEngine(cfg, gw)

	addr := ":" + cfg.Server.OpenAIPort
	httpSrv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Infof("gwmux gateway listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancelShutdown()

	go func() { _ = httpSrv.Shutdown(shutdownCtx) }()
	time.Sleep(constants.ServerGracefulWait)
	log.Info("Server stopped")
}

// buildSecretBox derives the credential-encryption key from the configured
// management key, since no dedicated encryption-key field exists in
// config.Config (see DESIGN.md). Startup fails fast rather than running
// with unencrypted credential storage.
func buildSecretBox(cfg *config.Config) (*crypto.SecretBox, error) {
	keyMaterial := cfg.Security.ManagementKey
	if keyMaterial == "" {
		return nil, fmt.Errorf("management_key must be set; it also seeds credential encryption")
	}
	return crypto.NewSecretBox(keyMaterial)
}

func buildAccountRepository(cfg *config.Config) (accounts.Repository, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		repo, err := accounts.NewPostgresRepository(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		log.WithField("backend", cfg.Storage.Backend).Warn("using in-memory account repository; accounts do not persist across restarts")
		return accounts.NewMemoryRepository(), nil, nil
	}
}

func buildCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Storage.RedisAddr == "" {
		return cache.NewMemoryCache(time.Minute), nil
	}
	return cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.Storage.RedisAddr,
		Password: cfg.Storage.RedisPassword,
		DB:       cfg.Storage.RedisDB,
		Prefix:   cfg.Storage.RedisPrefix,
	})
}

func buildUsageStore(cfg *config.Config) (usage.Store, error) {
	if cfg.Storage.PostgresDSN == "" {
		return nil, fmt.Errorf("postgres_dsn is not configured")
	}
	return usage.NewPostgresStore(cfg.Storage.PostgresDSN)
}
