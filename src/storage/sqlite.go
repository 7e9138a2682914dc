package storage

import (
	"context"
	"fmt"

	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		preferences TEXT NOT NULL DEFAULT '{}',
		onboarding_completed BOOLEAN NOT NULL DEFAULT 0,
		token_version INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		section TEXT NOT NULL,
		content_id TEXT NOT NULL,
		vote TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, section, content_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_user_created ON feedback (user_id, created_at DESC)`,
}

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	SQLStore
	Config *models.MConfig
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		SQLStore: SQLStore{Logger: log},
		Config:   cfg,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBPath

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return errors.Wrapf(err, "open sqlite %s", dsn)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.Wrapf(err, "ping sqlite %s", dsn)
	}

	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	d.DB = db

	for _, pragma := range []string{"PRAGMA journal_mode = WAL;", "PRAGMA synchronous = NORMAL;", "PRAGMA foreign_keys = ON;"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			d.Logger.Warning("Failed to apply %s: %v", pragma, err)
		}
	}

	for i, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, fmt.Sprintf("apply sqlite schema step %d", i+1))
		}
	}

	d.Logger.Info("SQLite initialized at %s", dsn)
	return nil
}
