package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coldstore/internal/config"
	"github.com/mamadbah2/coldstore/internal/repository/mongodb"
	"github.com/mamadbah2/coldstore/internal/repository/sheets"
	"github.com/mamadbah2/coldstore/internal/scheduler"
	"github.com/mamadbah2/coldstore/internal/server/handlers"
	"github.com/mamadbah2/coldstore/internal/server/router"
	commandsvc "github.com/mamadbah2/coldstore/internal/service/commands"
	receiptsvc "github.com/mamadbah2/coldstore/internal/service/receipts"
	reportingsvc "github.com/mamadbah2/coldstore/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/coldstore/internal/service/whatsapp"
	withdrawalsvc "github.com/mamadbah2/coldstore/internal/service/withdrawal"
	whatsappclient "github.com/mamadbah2/coldstore/pkg/clients/whatsapp"
	"github.com/mamadbah2/coldstore/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Development))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := mongoRepo.EnsureIndexes(startupCtx); err != nil {
		baseLogger.Fatal("failed to create mongodb indexes", zap.Error(err))
	}

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, stock export disabled")
	}

	sizes := cfg.Inventory.Sizes
	reportingSvc := reportingsvc.NewService(mongoRepo, mongoRepo, sheetsRepo, sizes, baseLogger.Named("svc.reporting"))
	receiptSvc := receiptsvc.NewService(mongoRepo, baseLogger.Named("svc.receipts"))
	sessions := withdrawalsvc.NewSessionManager()
	withdrawalSvc := withdrawalsvc.NewService(mongoRepo, mongoRepo, sessions, sizes, baseLogger.Named("svc.withdrawal"))
	commandDispatcher := commandsvc.NewService(reportingSvc, baseLogger.Named("svc.commands"))

	routes := router.Handlers{
		Stock:    handlers.NewStockHandler(reportingSvc, receiptSvc, baseLogger.Named("handlers.stock")),
		Sessions: handlers.NewSessionHandler(withdrawalSvc, baseLogger.Named("handlers.sessions")),
	}

	var notifier scheduler.ManagerNotifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp, baseLogger.Named("client.whatsapp"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		withdrawalSvc.SetNotifier(messagingSvc)
		notifier = messagingSvc
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp token missing, chat commands and notifications disabled")
	}

	engine := router.New(routes, baseLogger.Named("router"))

	location, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}
	sched := scheduler.NewScheduler(scheduler.Options{
		ReportSpec: cfg.Reporting.CronSchedule,
		Location:   location,
		SessionTTL: cfg.Inventory.SessionTTL,
	}, reportingSvc, notifier, withdrawalSvc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.Strings("sizes", sizes))
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
