package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/config"
	"github.com/mamadbah2/stockdesk/internal/repository"
	"github.com/mamadbah2/stockdesk/internal/repository/mongodb"
	"github.com/mamadbah2/stockdesk/internal/repository/postgres"
	"github.com/mamadbah2/stockdesk/internal/repository/sheets"
	"github.com/mamadbah2/stockdesk/internal/repository/supabase"
	"github.com/mamadbah2/stockdesk/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/stockdesk/pkg/clients/whatsapp"
)

// OpenStore builds the data store selected by STORE_DRIVER.
func OpenStore(cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSupabase:
		logger.Info("using supabase store", zap.String("url", cfg.Supabase.URL))
		return supabase.NewStore(cfg.Supabase, logger.Named("repo.supabase")), nil
	case config.StoreDriverPostgres:
		store, err := postgres.Open(cfg.Postgres.DSN, logger.Named("repo.postgres"))
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(store.DB()); err != nil {
				_ = store.Close()
				return nil, err
			}
			logger.Info("postgres schema migrated")
		}
		logger.Info("using postgres store")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// Sinks connects the optional snapshot destinations. A sink that is not
// configured or fails to connect is left nil and reported with a warning.
// The returned cleanup closes whatever was opened.
func Sinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) (reporting.Sinks, func()) {
	var sinks reporting.Sinks
	cleanup := func() {}

	if cfg.MongoDB.URI != "" {
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			logger.Warn("mongodb unavailable, snapshot archive disabled", zap.Error(err))
		} else {
			sinks.Archive = repo
			cleanup = func() {
				if err := repo.Close(context.Background()); err != nil {
					logger.Error("failed to close mongodb connection", zap.Error(err))
				}
			}
		}
	} else {
		logger.Warn("MONGODB_URI missing, snapshot archive disabled")
	}

	if cfg.SheetsEnabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named("repo.sheets"))
		if err != nil {
			logger.Warn("google sheets unavailable, snapshot sheet disabled", zap.Error(err))
		} else {
			sinks.Sheet = repo
		}
	} else {
		logger.Warn("google sheets settings missing, snapshot sheet disabled")
	}

	if cfg.WhatsAppEnabled() {
		sinks.Messenger = whatsappclient.NewClient(cfg.WhatsApp)
		sinks.Recipients = cfg.WhatsApp.ReportRecipients
	} else {
		logger.Warn("whatsapp settings missing, snapshot message disabled")
	}

	return sinks, cleanup
}
