package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/davidahmann/lexgen/internal/api"
	"github.com/davidahmann/lexgen/internal/auth"
	"github.com/davidahmann/lexgen/internal/config"
	"github.com/davidahmann/lexgen/internal/generation"
	"github.com/davidahmann/lexgen/internal/logging"
	"github.com/davidahmann/lexgen/internal/metrics"
	"github.com/davidahmann/lexgen/internal/rules"
	"github.com/davidahmann/lexgen/internal/store"
	"github.com/davidahmann/lexgen/internal/store/pgstore"
	"github.com/davidahmann/lexgen/internal/store/sqlstore"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fatalf("env error: %v", err)
	}
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

type envFn func(string) string
type listenFn func(*http.Server) error

// serverFactory builds the server for cfg. The returned closer releases the
// store once the server has stopped.
type serverFactory func(cfg config.Config, logger *zap.Logger) (*http.Server, io.Closer, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("lexgen-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to lexgen config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("LEXGEN_CONFIG_PATH")
	}

	cfg, err := config.LoadWithEnv(cfgFile, getenv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server, closer, err := factory(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closer != nil {
			_ = closer.Close()
		}
	}()

	logger.Info("lexgen-gateway listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("auth", cfg.Auth.Token != ""),
	)
	if err := listen(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServer(cfg config.Config, logger *zap.Logger) (*http.Server, io.Closer, error) {
	set := loadRules(cfg.RulesPath, logger)

	st, err := openStore(cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("store: %w", err)
	}

	model, err := generation.NewModel(generation.ProviderConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("model: %w", err)
	}

	retry := generation.DefaultRetryConfig()
	retry.MaxAttempts = cfg.LLM.MaxAttempts
	if cfg.LLM.BackoffBase > 0 {
		retry.BackoffBase = cfg.LLM.BackoffBase
	}
	client := generation.NewClient(model,
		generation.WithOptions(generation.Options{
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		}),
		generation.WithRetryConfig(retry),
		generation.WithTimeout(cfg.LLM.Timeout),
		generation.WithLogger(logger.Named("generation")),
	)

	service, err := api.NewContractService(api.NewContractServiceInput{
		Rules:     set,
		Generator: client,
		Store:     st,
		Logger:    logger.Named("contracts"),
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	handler := api.NewRouter(api.RouterConfig{
		Service:        service,
		Auth:           auth.NewStaticToken(cfg.Auth.Token),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger.Named("http"),
	})
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}, st, nil
}

// loadRules never fails: an unreadable rule file leaves the service running
// with an empty rule set so every request is rejected as unknown.
func loadRules(path string, logger *zap.Logger) *rules.RuleSet {
	set, err := rules.Load(path)
	if err != nil {
		logger.Warn("rules unavailable, running with an empty rule set", zap.String("path", path), zap.Error(err))
	} else {
		logger.Info("rules loaded",
			zap.String("path", path),
			zap.Int("jurisdictions", len(set.JurisdictionCodes())),
			zap.Int("contract_types", len(set.ContractTypeCodes())),
			zap.String("digest", set.Digest()),
		)
	}
	metrics.RulesLoaded.WithLabelValues("jurisdiction").Set(float64(len(set.JurisdictionCodes())))
	metrics.RulesLoaded.WithLabelValues("contract_type").Set(float64(len(set.ContractTypeCodes())))
	return set
}

func openStore(cfg config.DBConfig) (store.Store, error) {
	switch driver := strings.ToLower(cfg.Driver); driver {
	case "", "memory":
		return store.NewInMemoryStore(), nil
	case "sqlite":
		st, err := sqlstore.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(st.DB(), store.DialectSQLite); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	case pgstore.DriverPQ, pgstore.DriverPGX:
		st, err := pgstore.OpenPostgres(driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(st.DB(), store.DialectPostgres); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", cfg.Driver)
	}
}

// listenAndServe serves until SIGINT or SIGTERM, then drains for up to 15s.
func listenAndServe(server *http.Server) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return http.ErrServerClosed
}
