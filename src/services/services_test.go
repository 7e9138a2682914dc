package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"crypto-advisor/src/auth"
	"crypto-advisor/src/helpers"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"
	"crypto-advisor/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	db       *storage.SQLiteDB
	auth     *AuthService
	users    *UserService
	feedback *FeedbackService
	tokens   *auth.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewLoggerWithWriter(io.Discard, "services", "ERROR", nil)
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "sqlite", DBPath: filepath.Join(t.TempDir(), "svc.db")}}
	db := storage.NewSQLiteDB(cfg, log)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })

	tokens := auth.NewTokenManager(models.MAuthConfig{JWTSecret: "s", Issuer: "i", Audience: "a"}, time.Hour)
	return &fixture{
		db:       db,
		auth:     NewAuthService(db, tokens, bcrypt.MinCost, log),
		users:    NewUserService(db, log),
		feedback: NewFeedbackService(db, log),
		tokens:   tokens,
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var v *helpers.ValidationError
	require.True(t, errors.As(err, &v), "expected validation error, got %v", err)
	var out []string
	for _, f := range v.Fields {
		out = append(out, f.Field)
	}
	return out
}

// -----------------------------------------------------------------------------

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "Ada@Example.com", "Ada", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.False(t, reg.User.OnboardingCompleted)
	assert.Equal(t, []string{}, reg.User.Preferences.Assets)

	claims, err := f.tokens.Verify(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.ID)

	login, err := f.auth.Login(ctx, "ADA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "ada@example.com", "Ada", "password123")
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, "ADA@example.com", "Other", "password123")
	require.Error(t, err)
	assert.Equal(t, MsgEmailTaken, err.Error())
	assert.Equal(t, 400, helpers.HTTPStatus(err))

	_, err = f.auth.Register(ctx, "not-an-email", "A", "short")
	assert.ElementsMatch(t, []string{"email", "name", "password"}, fieldsOf(t, err))
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "ada@example.com", "Ada", "password123")
	require.NoError(t, err)

	_, wrongPassword := f.auth.Login(ctx, "ada@example.com", "nope-nope")
	_, unknownEmail := f.auth.Login(ctx, "bob@example.com", "password123")

	for _, err := range []error{wrongPassword, unknownEmail} {
		require.Error(t, err)
		assert.Equal(t, MsgInvalidCredentials, err.Error())
		assert.Equal(t, 401, helpers.HTTPStatus(err))
	}
}

func TestUpdateOnboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.auth.Register(ctx, "ada@example.com", "Ada", "password123")
	require.NoError(t, err)

	user, err := f.users.UpdateOnboarding(ctx, reg.User.ID, models.MUserPreferences{
		Assets:       []string{" bitcoin ", "ethereum"},
		InvestorType: models.InvestorDayTrader,
		ContentTypes: []string{models.ContentCharts},
	})
	require.NoError(t, err)
	assert.True(t, user.OnboardingCompleted)
	assert.Equal(t, []string{"bitcoin", "ethereum"}, user.Preferences.Assets)

	profile, err := f.users.GetProfile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvestorDayTrader, profile.Preferences.InvestorType)
}

func TestUpdateOnboardingValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.UpdateOnboarding(context.Background(), "u1", models.MUserPreferences{
		Assets:       []string{""},
		InvestorType: "whale",
		ContentTypes: []string{"gossip"},
	})
	assert.ElementsMatch(t,
		[]string{"preferences.assets", "preferences.investorType", "preferences.contentTypes"},
		fieldsOf(t, err))

	_, err = f.users.UpdateOnboarding(context.Background(), "ghost", models.MUserPreferences{
		Assets: []string{"bitcoin"}, InvestorType: models.InvestorHodler, ContentTypes: []string{"news"},
	})
	assert.Equal(t, 404, helpers.HTTPStatus(err))

	_, err = f.users.GetProfile(context.Background(), "ghost")
	assert.Equal(t, 404, helpers.HTTPStatus(err))
}

func TestFeedbackSubmitAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, err := f.auth.Register(ctx, "ada@example.com", "Ada", "password123")
	require.NoError(t, err)
	uid := reg.User.ID

	first, err := f.feedback.Submit(ctx, uid, models.SectionInsight, "insight_u1_2026-01-01", models.VoteUp)
	require.NoError(t, err)
	second, err := f.feedback.Submit(ctx, uid, models.SectionInsight, "insight_u1_2026-01-01", models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := f.feedback.ListForUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.VoteDown, list[0].Vote)

	_, err = f.feedback.Submit(ctx, uid, "weather", " ", "sideways")
	assert.ElementsMatch(t, []string{"section", "contentId", "vote"}, fieldsOf(t, err))
}
