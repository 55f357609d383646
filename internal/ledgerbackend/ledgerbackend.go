// Package ledgerbackend opens the sales ledger selected by LEDGER_BACKEND.
package ledgerbackend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/config"
	"github.com/mamadbah2/salestracker/internal/repository/memory"
	"github.com/mamadbah2/salestracker/internal/repository/sheets"
	"github.com/mamadbah2/salestracker/internal/service/tracker"
	"github.com/mamadbah2/salestracker/pkg/clients/ledger"
)

// Open builds the ledger for cfg.Ledger.Backend.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (tracker.Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Ledger.Backend {
	case config.LedgerBackendScript, "":
		client, err := ledger.NewClient(cfg.Ledger, logger.Named("script"))
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.LedgerBackendSheets:
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named("sheets"))
		if err != nil {
			return nil, err
		}
		sheetLedger, err := sheets.NewLedger(repo, cfg.Sheets.Range, logger.Named("sheets"))
		if err != nil {
			return nil, err
		}
		return sheetLedger, nil
	case config.LedgerBackendMemory:
		logger.Warn("using in-memory ledger, sales are lost on restart")
		return memory.NewLedger(nil), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", cfg.Ledger.Backend)
	}
}
