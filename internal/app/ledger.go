package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mstarsupply/mstarsupply/internal/inventory"
	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/platform/db"
	"github.com/mstarsupply/mstarsupply/internal/shared"
)

// Ledger bundles the configured store with the audit sink matching it.
type Ledger struct {
	Store ledger.Store
	Audit inventory.AuditPort
	close func()
}

// Close releases the underlying connection pool, when there is one.
func (l *Ledger) Close() {
	if l != nil && l.close != nil {
		l.close()
	}
}

// OpenLedger connects the store selected by LEDGER_DRIVER. The postgres
// driver applies the schema when PG_AUTO_MIGRATE is set.
func OpenLedger(ctx context.Context, cfg *Config, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.LedgerDriver {
	case DriverMemory:
		logger.Warn("using in-memory ledger, data is lost on restart")
		return &Ledger{Store: ledger.NewMemoryStore(), Audit: shared.NewSlogAuditor(logger)}, nil
	case DriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := ledger.NewPostgresStore(pool)
		if cfg.PGAutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate ledger: %w", err)
			}
		}
		return &Ledger{Store: store, Audit: shared.NewAuditLogger(pool), close: pool.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", cfg.LedgerDriver)
	}
}
