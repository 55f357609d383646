package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/config"
	"github.com/mamadbah2/salestracker/internal/ledgerbackend"
	"github.com/mamadbah2/salestracker/internal/service/tracker"
	"github.com/mamadbah2/salestracker/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	a := &app{
		settleDelay: cfg.Ledger.SettleDelay,
		location:    cfg.Reporting.Location(),
		logger:      baseLogger,
		openLedger: func(ctx context.Context) (tracker.Ledger, error) {
			return ledgerbackend.Open(ctx, *cfg, logger.Named(baseLogger, "ledger"))
		},
	}

	if err := newRootCmd(a).Execute(); err != nil {
		baseLogger.Debug("command execution failed", zap.Error(err))
		os.Exit(1)
	}
}
