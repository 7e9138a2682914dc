package storage

import (
	"context"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"
)

// NewDatabase opens and initializes the backend selected by storage.db_type.
func NewDatabase(ctx context.Context, cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	var db interfaces.IDatabase
	switch cfg.Storage.DBType {
	case "sqlite":
		db = NewSQLiteDB(cfg, log)
	case "postgres":
		db = NewPostgresDB(cfg, log)
	default:
		return nil, helpers.NewConfigurationError("unsupported db_type: " + cfg.Storage.DBType)
	}

	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return nil, helpers.NewDatabaseError("failed to initialize "+cfg.Storage.DBType, err)
	}
	return db, nil
}
