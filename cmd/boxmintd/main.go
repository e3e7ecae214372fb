package main

import (
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"boxchain/config"
	"boxchain/core/state"
	"boxchain/native/assets"
	"boxchain/native/boxmint"
	"boxchain/observability/logging"
	"boxchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("BOXMINT_ENV"))
	logger := logging.Setup("boxmintd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	engine := boxmint.NewEngine(state.NewFrameFactory(db))

	if _, err := engine.Config(); err != nil {
		if !errors.Is(err, boxmint.ErrNotInitialized) {
			logger.Error("failed to read ledger config", slog.Any("error", err))
			os.Exit(1)
		}
		params, err := cfg.Ledger.Params()
		if err != nil {
			logger.Error("invalid ledger config", slog.Any("error", err))
			os.Exit(1)
		}
		created, err := engine.Initialize(params)
		if err != nil {
			logger.Error("failed to initialize ledger", slog.Any("error", err))
			os.Exit(1)
		}
		if err := registerCollections(db, created); err != nil {
			logger.Error("failed to register collections", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("ledger initialized",
			slog.Uint64("maxSupply", uint64(created.MaxSupply)),
			slog.String("price", created.Price.String()),
		)
	} else {
		logger.Info("ledger already initialized")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
	go func() {
		logger.Info("metrics listening", slog.String("address", cfg.MetricsAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	_ = server.Close()
}

// registerCollections seeds the box, figure and receipt collections with the
// config record's derived address as their authority, so the engine's adapter
// calls carry a valid delegated signer.
func registerCollections(db storage.Database, cfg *boxmint.Config) error {
	registry := assets.NewRegistry(state.NewManager(db))
	for _, col := range []struct {
		id   [32]byte
		name string
	}{
		{cfg.BoxCollection, "Boxes"},
		{cfg.FigureCollection, "Figures"},
		{cfg.ReceiptCollection, "Receipts"},
	} {
		err := registry.RegisterCollection(col.id, cfg.Address, col.name)
		if err != nil && !errors.Is(err, assets.ErrCollectionExists) {
			return err
		}
	}
	return nil
}
