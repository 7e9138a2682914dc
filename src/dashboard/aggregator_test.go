package dashboard

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]*models.MUser
}

func (f *fakeUsers) CreateUser(context.Context, *models.MUser) error { return nil }

func (f *fakeUsers) FindUserByID(_ context.Context, id string) (*models.MUser, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, helpers.NewNotFound("no row")
}

func (f *fakeUsers) FindUserByEmail(context.Context, string) (*models.MUser, error) {
	return nil, helpers.NewNotFound("no row")
}

func (f *fakeUsers) UpdatePreferences(context.Context, string, models.MUserPreferences) (*models.MUser, error) {
	return nil, nil
}

// providers record calls and optionally block on a shared barrier so the
// test can prove they run concurrently.
type fakeProviders struct {
	calls   int32
	barrier *sync.WaitGroup
	prices  models.MPriceQuoteSet
	news    models.MNewsItemSet
	insight models.MInsight
	meme    models.MMeme
}

func (f *fakeProviders) arrive() {
	atomic.AddInt32(&f.calls, 1)
	if f.barrier != nil {
		f.barrier.Done()
		f.barrier.Wait()
	}
}

func (f *fakeProviders) GetPrices(context.Context, []string) models.MPriceQuoteSet {
	f.arrive()
	return f.prices
}

func (f *fakeProviders) GetNews(context.Context, []string) models.MNewsItemSet {
	f.arrive()
	return f.news
}

func (f *fakeProviders) GetInsight(context.Context, string, models.MUserPreferences) models.MInsight {
	f.arrive()
	return f.insight
}

func (f *fakeProviders) GetMeme(context.Context) models.MMeme {
	f.arrive()
	return f.meme
}

func newAggregator(users map[string]*models.MUser, p *fakeProviders) *Aggregator {
	log := logger.NewLoggerWithWriter(io.Discard, "dashboard", "ERROR", nil)
	return NewAggregator(&fakeUsers{users: users}, p, p, p, p, log)
}

var onboarded = &models.MUser{
	ID:   "u1",
	Name: "Ada",
	Preferences: models.MUserPreferences{
		Assets:       []string{"bitcoin", "ethereum"},
		InvestorType: models.InvestorHodler,
		ContentTypes: []string{models.ContentNews},
	},
	OnboardingCompleted: true,
}

// -----------------------------------------------------------------------------

func TestGetDashboardUnknownUser(t *testing.T) {
	p := &fakeProviders{}
	_, err := newAggregator(nil, p).GetDashboard(context.Background(), "ghost")

	require.Error(t, err)
	assert.Equal(t, 404, helpers.HTTPStatus(err))
	assert.Equal(t, MsgUserNotFound, err.Error())
	assert.Equal(t, int32(0), p.calls)
}

func TestGetDashboardRequiresOnboarding(t *testing.T) {
	p := &fakeProviders{}
	users := map[string]*models.MUser{"u1": {ID: "u1", Name: "Ada"}}

	_, err := newAggregator(users, p).GetDashboard(context.Background(), "u1")

	var pre *helpers.PreconditionFailedError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, MsgOnboardingRequired, err.Error())
	assert.Equal(t, 400, helpers.HTTPStatus(err))
	assert.Equal(t, int32(0), p.calls)
}

func TestGetDashboardComposesSections(t *testing.T) {
	price := 64000.0
	p := &fakeProviders{
		prices: models.MPriceQuoteSet{
			Prices:    []models.MPriceQuote{{ID: "bitcoin", CurrentPrice: &price}, {ID: "ethereum"}},
			FromCache: true,
		},
		news: models.MNewsItemSet{
			News:       []models.MNewsItem{{ID: "fallback-1"}, {ID: "fallback-2"}, {ID: "fallback-3"}},
			IsFallback: true,
		},
		insight: models.MInsight{ID: "insight_u1_2026-01-01", Content: "Stay patient.", IsFallback: true, FromCache: true},
		meme:    models.MMeme{ID: "meme-1", Title: "HODL!"},
	}

	got, err := newAggregator(map[string]*models.MUser{"u1": onboarded}, p).GetDashboard(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, int32(4), p.calls)
	assert.Len(t, got.Prices, 2)
	assert.Len(t, got.News, 3)
	assert.Equal(t, "Stay patient.", got.Insight.Content)
	assert.Equal(t, "meme-1", got.Meme.ID)
	assert.Equal(t, "Ada", got.User.Name)
	assert.Equal(t, onboarded.Preferences, got.User.Preferences)

	md := got.Metadata
	assert.Equal(t, models.MSectionMetadata{FromCache: true, IsFallback: false, Count: 2}, md.Prices)
	assert.Equal(t, models.MSectionMetadata{FromCache: false, IsFallback: true, Count: 3}, md.News)
	assert.Equal(t, models.MSectionMetadata{FromCache: true, IsFallback: true, Count: 1}, md.Insight)
	assert.Equal(t, models.MSectionMetadata{Count: 1}, md.Meme)
}

func TestGetDashboardRunsProvidersConcurrently(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(4)
	p := &fakeProviders{barrier: &barrier, meme: models.MMeme{ID: "m"}}
	agg := newAggregator(map[string]*models.MUser{"u1": onboarded}, p)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := agg.GetDashboard(context.Background(), "u1")
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("providers were not invoked concurrently")
	}
}

func TestGetDashboardNeverReturnsNilSlices(t *testing.T) {
	p := &fakeProviders{}
	got, err := newAggregator(map[string]*models.MUser{"u1": onboarded}, p).GetDashboard(context.Background(), "u1")
	require.NoError(t, err)

	assert.NotNil(t, got.Prices)
	assert.NotNil(t, got.News)
	assert.Equal(t, 0, got.Metadata.Insight.Count)
}
