package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	SQLStore
	Config *models.MConfig
	Schema string
}

// -----------------------------------------------------------------------------

// NewPostgresDB keeps all tables in a schema named after the application.
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) *PostgresDB {
	schema := SchemaName(cfg.Name)
	return &PostgresDB{
		SQLStore: SQLStore{Logger: log, schema: schema},
		Config:   cfg,
		Schema:   schema,
	}
}

// SchemaName turns an application name into a safe identifier.
func SchemaName(name string) string {
	s := unsafeIdent.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "crypto_advisor"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize(ctx context.Context) error {
	if d.DB == nil {
		db, err := sqlx.Open("postgres", d.Config.Storage.DBConnectionString)
		if err != nil {
			return errors.Wrap(err, "open postgres")
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return errors.Wrap(err, "ping postgres")
		}
		d.DB = db
	}

	for i, stmt := range d.schemaStatements() {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, fmt.Sprintf("apply postgres schema step %d", i+1))
		}
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) schemaStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema),
		`CREATE TABLE IF NOT EXISTS ` + d.table("users") + ` (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
			onboarding_completed BOOLEAN NOT NULL DEFAULT FALSE,
			token_version INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + d.table("feedback") + ` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES ` + d.table("users") + `(id) ON DELETE CASCADE,
			section TEXT NOT NULL,
			content_id TEXT NOT NULL,
			vote TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, section, content_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user_created ON ` + d.table("feedback") + ` (user_id, created_at DESC)`,
	}
}
