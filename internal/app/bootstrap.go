package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alphinex07/UpstoX-Trader/internal/infra"
	"github.com/alphinex07/UpstoX-Trader/internal/instruments"
	"github.com/alphinex07/UpstoX-Trader/internal/ledger"
	"github.com/alphinex07/UpstoX-Trader/internal/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Store    *storage.LedgerStore
	Ledger   *ledger.Ledger
	Resolver *instruments.Resolver

	unlock func()
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, dirs, DB, symbols).
func (b *Bootstrap) Initialize(ctx context.Context) error {
	slog.Info("🚀 Bootstrapping Upstox Trader...")

	// 1. Load Config (Dynamic Path Resolution)
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Data Isolation: _workspace/data/{mode}/ledger.db
	mode := strings.ToLower(cfg.Trading.Mode)

	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	logDir := filepath.Join(workDir, "logs", mode)

	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := infra.EnsureDir(logDir); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	// 3.1 Singleton Instance Lock
	// Two processes sharing one ledger DB would corrupt the order history.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	// 4. Ledger store (WAL-mode sqlite) and in-memory replay
	dbPath := filepath.Join(dataDir, "ledger.db")
	store, err := storage.NewLedgerStore(dbPath)
	if err != nil {
		return err
	}
	b.Store = store
	slog.Info("✅ LedgerStore initialized (WAL-mode)", "path", dbPath, "mode", mode)

	b.Ledger = ledger.New(store)
	if err := b.Ledger.Restore(ctx); err != nil {
		return err
	}

	// 5. Instrument table (NSE symbol -> token)
	if file := cfg.Instruments.File; file != "" {
		resolver, err := instruments.Load(file)
		if err != nil {
			return fmt.Errorf("failed to load instrument table: %w", err)
		}
		b.Resolver = resolver
	} else {
		slog.Warn("No instrument table configured, orders must carry explicit tokens")
		b.Resolver = instruments.NewStatic(nil)
	}

	return nil
}

// Shutdown releases the resources acquired by Initialize.
func (b *Bootstrap) Shutdown() {
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			slog.Error("Ledger store close failed", slog.Any("error", err))
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
	slog.Info("👋 Shutdown complete")
}
