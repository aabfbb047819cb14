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

	"github.com/mamadbah2/stockdesk/internal/bootstrap"
	"github.com/mamadbah2/stockdesk/internal/config"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/scheduler"
	"github.com/mamadbah2/stockdesk/internal/server/handlers"
	"github.com/mamadbah2/stockdesk/internal/server/router"
	analyticssvc "github.com/mamadbah2/stockdesk/internal/service/analytics"
	dashboardsvc "github.com/mamadbah2/stockdesk/internal/service/dashboard"
	inventorysvc "github.com/mamadbah2/stockdesk/internal/service/inventory"
	ordersvc "github.com/mamadbah2/stockdesk/internal/service/orders"
	reportingsvc "github.com/mamadbah2/stockdesk/internal/service/reporting"
	usersvc "github.com/mamadbah2/stockdesk/internal/service/users"
	"github.com/mamadbah2/stockdesk/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateServer(); err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := bootstrap.OpenStore(cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init data store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close data store", zap.Error(err))
		}
	}()

	loc := cfg.Location()
	parser := models.LegacyDetailsParser{}

	analyticsSvc := analyticssvc.NewService(store, analyticssvc.Options{
		LowStockThreshold: cfg.Analytics.LowStockThreshold,
		Location:          loc,
		Parser:            parser,
	}, baseLogger.Named("svc.analytics"))
	orderSvc := ordersvc.NewService(store, ordersvc.Options{Location: loc, Parser: parser}, baseLogger.Named("svc.orders"))
	dashboardSvc := dashboardsvc.NewService(store, parser, baseLogger.Named("svc.dashboard"))
	inventorySvc := inventorysvc.NewService(store, baseLogger.Named("svc.inventory"))
	userSvc := usersvc.NewService(store, baseLogger.Named("svc.users"))

	sinks, closeSinks := bootstrap.Sinks(context.Background(), cfg, baseLogger)
	defer closeSinks()
	reportingSvc := reportingsvc.NewService(analyticsSvc, sinks, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Analytics: handlers.NewAnalyticsHandler(analyticsSvc, baseLogger.Named("handlers.analytics")),
		Orders:    handlers.NewOrdersHandler(orderSvc, baseLogger.Named("handlers.orders")),
		Dashboard: handlers.NewDashboardHandler(dashboardSvc, baseLogger.Named("handlers.dashboard")),
		Inventory: handlers.NewInventoryHandler(inventorySvc, baseLogger.Named("handlers.inventory")),
		Users:     handlers.NewUsersHandler(userSvc, baseLogger.Named("handlers.users")),
		Reports:   handlers.NewReportsHandler(reportingSvc, loc, baseLogger.Named("handlers.reports")),
	}, cfg.Auth.JWTSecret, baseLogger.Named("router"))

	if cfg.Reporting.Enabled {
		sched := scheduler.NewScheduler(cfg.Reporting, loc, scheduler.ReporterFunc(func(ctx context.Context, day time.Time) error {
			_, err := reportingSvc.RunDaily(ctx, day)
			return err
		}), baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	} else {
		baseLogger.Warn("daily report schedule disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
