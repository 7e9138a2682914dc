package interfaces

import (
	"context"

	"crypto-advisor/src/models"
)

// -----------------------------------------------------------------------------
// IUserStore persists accounts and onboarding preferences.
// -----------------------------------------------------------------------------

type IUserStore interface {

	// CreateUser inserts u, assigning ID and timestamps. Returns a
	// ConflictError when the email is taken.
	CreateUser(ctx context.Context, u *models.MUser) error

	// -----------------------------------------------------------------------------

	// FindUserByID returns a NotFoundError when absent.
	FindUserByID(ctx context.Context, id string) (*models.MUser, error)

	// -----------------------------------------------------------------------------

	// FindUserByEmail matches case-insensitively.
	FindUserByEmail(ctx context.Context, email string) (*models.MUser, error)

	// -----------------------------------------------------------------------------

	// UpdatePreferences stores prefs and marks onboarding complete.
	UpdatePreferences(ctx context.Context, id string, prefs models.MUserPreferences) (*models.MUser, error)
}

// -----------------------------------------------------------------------------
// IFeedbackStore persists up/down votes on dashboard items.
// -----------------------------------------------------------------------------

type IFeedbackStore interface {

	// UpsertFeedback creates or replaces the vote for
	// (UserID, Section, ContentID).
	UpsertFeedback(ctx context.Context, f *models.MFeedback) error

	// -----------------------------------------------------------------------------

	// ListFeedback returns up to limit votes by userID, newest first.
	ListFeedback(ctx context.Context, userID string, limit int) ([]models.MFeedback, error)
}

// -----------------------------------------------------------------------------
// IDatabase is the full storage backend.
// -----------------------------------------------------------------------------

type IDatabase interface {
	IUserStore
	IFeedbackStore

	// Initialize creates the schema if needed.
	Initialize(ctx context.Context) error

	// Ping checks connectivity for readiness probes.
	Ping(ctx context.Context) error

	Close() error
}
