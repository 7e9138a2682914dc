package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// -----------------------------------------------------------------------------
// SQLStore holds the queries shared by the sqlite and postgres backends.
// Statements are written with ? placeholders and rebound per driver.
// -----------------------------------------------------------------------------

type SQLStore struct {
	DB     *sqlx.DB
	Logger *logger.Logger
	schema string
	now    func() time.Time
}

type userRow struct {
	ID                  string    `db:"id"`
	Email               string    `db:"email"`
	Name                string    `db:"name"`
	PasswordHash        string    `db:"password_hash"`
	Preferences         string    `db:"preferences"`
	OnboardingCompleted bool      `db:"onboarding_completed"`
	TokenVersion        int       `db:"token_version"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

const userColumns = "id, email, name, password_hash, preferences, onboarding_completed, token_version, created_at, updated_at"
const feedbackColumns = "id, user_id, section, content_id, vote, created_at, updated_at"

// -----------------------------------------------------------------------------

// table qualifies name with the postgres schema when one is set.
func (s *SQLStore) table(name string) string {
	if s.schema == "" {
		return name
	}
	return `"` + s.schema + `".` + name
}

func (s *SQLStore) q(query string) string {
	return s.DB.Rebind(query)
}

func (s *SQLStore) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// -----------------------------------------------------------------------------

func (s *SQLStore) Ping(ctx context.Context) error {
	if s.DB == nil {
		return helpers.NewDatabaseError("database not initialized", nil)
	}
	return errors.Wrap(s.DB.PingContext(ctx), "ping")
}

// -----------------------------------------------------------------------------

func (s *SQLStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func (s *SQLStore) CreateUser(ctx context.Context, u *models.MUser) error {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return errors.Wrap(err, "encode preferences")
	}

	now := s.clock()
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now
	u.UpdatedAt = now

	query := s.q("INSERT INTO " + s.table("users") + " (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, err = s.DB.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.PasswordHash, string(prefs),
		u.OnboardingCompleted, u.TokenVersion, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return helpers.NewConflict("Email already registered")
	}
	return errors.Wrap(err, "insert user")
}

// -----------------------------------------------------------------------------

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (*models.MUser, error) {
	return s.findUser(ctx, "id", id)
}

// -----------------------------------------------------------------------------

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*models.MUser, error) {
	return s.findUser(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

// -----------------------------------------------------------------------------

func (s *SQLStore) findUser(ctx context.Context, column, value string) (*models.MUser, error) {
	var row userRow
	query := s.q("SELECT " + userColumns + " FROM " + s.table("users") + " WHERE " + column + " = ?")
	err := s.DB.GetContext(ctx, &row, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, helpers.NewNotFound("User not found")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select user by %s", column)
	}
	return row.toModel()
}

// -----------------------------------------------------------------------------

func (s *SQLStore) UpdatePreferences(ctx context.Context, id string, prefs models.MUserPreferences) (*models.MUser, error) {
	encoded, err := json.Marshal(prefs)
	if err != nil {
		return nil, errors.Wrap(err, "encode preferences")
	}

	query := s.q("UPDATE " + s.table("users") + " SET preferences = ?, onboarding_completed = ?, updated_at = ? WHERE id = ?")
	res, err := s.DB.ExecContext(ctx, query, string(encoded), true, s.clock(), id)
	if err != nil {
		return nil, errors.Wrap(err, "update preferences")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, helpers.NewNotFound("User not found")
	}
	return s.FindUserByID(ctx, id)
}

// -----------------------------------------------------------------------------

func (r userRow) toModel() (*models.MUser, error) {
	u := &models.MUser{
		ID:                  r.ID,
		Email:               r.Email,
		Name:                r.Name,
		PasswordHash:        r.PasswordHash,
		OnboardingCompleted: r.OnboardingCompleted,
		TokenVersion:        r.TokenVersion,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.Preferences != "" {
		if err := json.Unmarshal([]byte(r.Preferences), &u.Preferences); err != nil {
			return nil, errors.Wrapf(err, "decode preferences of user %s", r.ID)
		}
	}
	return u, nil
}

// -----------------------------------------------------------------------------
// Feedback
// -----------------------------------------------------------------------------

func (s *SQLStore) UpsertFeedback(ctx context.Context, f *models.MFeedback) error {
	now := s.clock()
	query := s.q("INSERT INTO " + s.table("feedback") + " (" + feedbackColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?) " +
		"ON CONFLICT (user_id, section, content_id) DO UPDATE SET vote = excluded.vote, updated_at = excluded.updated_at")
	if _, err := s.DB.ExecContext(ctx, query,
		uuid.NewString(), f.UserID, f.Section, f.ContentID, f.Vote, now, now); err != nil {
		return errors.Wrap(err, "upsert feedback")
	}

	sel := s.q("SELECT " + feedbackColumns + " FROM " + s.table("feedback") +
		" WHERE user_id = ? AND section = ? AND content_id = ?")
	return errors.Wrap(s.DB.GetContext(ctx, f, sel, f.UserID, f.Section, f.ContentID), "reload feedback")
}

// -----------------------------------------------------------------------------

func (s *SQLStore) ListFeedback(ctx context.Context, userID string, limit int) ([]models.MFeedback, error) {
	out := []models.MFeedback{}
	query := s.q("SELECT " + feedbackColumns + " FROM " + s.table("feedback") +
		" WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?")
	if err := s.DB.SelectContext(ctx, &out, query, userID, limit); err != nil {
		return nil, errors.Wrap(err, "list feedback")
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
