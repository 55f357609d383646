package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/config"
	"github.com/mamadbah2/salestracker/internal/ledgerbackend"
	"github.com/mamadbah2/salestracker/internal/repository/mongodb"
	"github.com/mamadbah2/salestracker/internal/scheduler"
	"github.com/mamadbah2/salestracker/internal/server/handlers"
	"github.com/mamadbah2/salestracker/internal/server/router"
	reportingsvc "github.com/mamadbah2/salestracker/internal/service/reporting"
	"github.com/mamadbah2/salestracker/internal/service/tracker"
	whatsappsvc "github.com/mamadbah2/salestracker/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/salestracker/pkg/clients/whatsapp"
	"github.com/mamadbah2/salestracker/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := ledgerbackend.Open(ctx, *cfg, baseLogger.Named("ledger"))
	if err != nil {
		baseLogger.Fatal("failed to init ledger", zap.String("backend", cfg.Ledger.Backend), zap.Error(err))
	}

	location := cfg.Reporting.Location()
	trackerSvc := tracker.NewService(ledger, cfg.Ledger.SettleDelay, location, baseLogger.Named("svc.tracker"))
	if _, err := trackerSvc.Refresh(ctx); err != nil {
		baseLogger.Warn("initial load failed, serving empty state", zap.Error(err))
	}

	reportingSvc := reportingsvc.NewService(ledger, location, baseLogger.Named("svc.reporting"))

	opts := []scheduler.Option{
		scheduler.WithRefresher(scheduler.RefreshFunc(func(ctx context.Context) error {
			_, err := trackerSvc.Refresh(ctx)
			return err
		})),
	}

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		opts = append(opts, scheduler.WithArchive(mongoRepo))
		baseLogger.Info("daily report archive enabled", zap.String("db", cfg.MongoDB.DBName))
	} else {
		baseLogger.Warn("MONGODB_URI missing, daily reports will not be archived")
	}

	var webhookHandler *handlers.WebhookHandler
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		opts = append(opts, scheduler.WithMessenger(whatsClient, cfg.WhatsApp.Recipient))
		baseLogger.Info("whatsapp daily report enabled")

		if cfg.WhatsApp.WebhookEnabled() {
			messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, reportingSvc, baseLogger.Named("svc.whatsapp"))
			webhookHandler = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
			baseLogger.Info("whatsapp report commands enabled")
		}
	} else {
		baseLogger.Warn("whatsapp settings missing, daily reports will not be sent")
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"), opts...)
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	settleTimeout := cfg.Ledger.SettleDelay + cfg.Ledger.Timeout
	salesHandler := handlers.NewSalesHandler(trackerSvc, settleTimeout, baseLogger.Named("handlers.sales"))
	engine := router.New(salesHandler, webhookHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: settleTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("ledger", cfg.Ledger.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
