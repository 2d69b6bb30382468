package app

import (
	"fmt"
	"os"
	"path/filepath"

	"rd-card-scraper/internal/apperr"
	"rd-card-scraper/internal/config"
	"rd-card-scraper/internal/observability"
	"rd-card-scraper/internal/storage"
	"rd-card-scraper/internal/storage/jsonfile"
	"rd-card-scraper/internal/storage/mssql"
	"rd-card-scraper/internal/storage/sqlite"
)

var (
	_ storage.StateStore = (*jsonfile.Store)(nil)
	_ storage.StateStore = (*sqlite.Store)(nil)
	_ storage.StateStore = (*mssql.Repository)(nil)
)

// OpenStateStore открывает хранилище состояния по storage.driver
func OpenStateStore(cfg *config.Config, logger *observability.Logger) (storage.StateStore, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	var (
		store storage.StateStore
		err   error
	)
	switch cfg.Storage.Driver {
	case config.DriverJSON:
		store, err = openJSON(filepath.Join(cfg.Storage.DataDir, cfg.Storage.StateFile), logger)
	case config.DriverSQLite:
		store, err = openSQLite(cfg, logger)
	case config.DriverMSSQL:
		store, err = openMSSQL(cfg, logger)
	default:
		err = fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, apperr.NewStorage("", "failed to open state store", err)
	}
	return store, nil
}

func openJSON(path string, logger *observability.Logger) (storage.StateStore, error) {
	s, err := jsonfile.Open(path, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openSQLite(cfg *config.Config, logger *observability.Logger) (storage.StateStore, error) {
	s, err := sqlite.Open(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openMSSQL(cfg *config.Config, logger *observability.Logger) (storage.StateStore, error) {
	r, err := mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
	if err != nil {
		return nil, err
	}
	return r, nil
}
