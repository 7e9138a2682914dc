package dashboard

import (
	"context"
	"errors"
	"time"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/metrics"
	"crypto-advisor/src/models"

	"golang.org/x/sync/errgroup"
)

const (
	MsgUserNotFound       = "User not found"
	MsgOnboardingRequired = "Please complete onboarding first"
)

// -----------------------------------------------------------------------------
// Aggregator composes a user's dashboard from the four section providers.
// -----------------------------------------------------------------------------

type Aggregator struct {
	Users   interfaces.IUserStore
	Prices  interfaces.IPriceProvider
	News    interfaces.INewsProvider
	Insight interfaces.IInsightProvider
	Memes   interfaces.IMemeProvider
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAggregator(
	users interfaces.IUserStore,
	prices interfaces.IPriceProvider,
	news interfaces.INewsProvider,
	insight interfaces.IInsightProvider,
	memes interfaces.IMemeProvider,
	log *logger.Logger,
) *Aggregator {
	return &Aggregator{
		Users:   users,
		Prices:  prices,
		News:    news,
		Insight: insight,
		Memes:   memes,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// GetDashboard loads userID and fans out to every provider concurrently. Only
// identity and onboarding problems are returned as errors; provider failures
// arrive as fallback-tagged sections.
func (a *Aggregator) GetDashboard(ctx context.Context, userID string) (*models.MDashboardPayload, error) {
	user, err := a.Users.FindUserByID(ctx, userID)
	if err != nil {
		var nf *helpers.NotFoundError
		if errors.As(err, &nf) {
			return nil, helpers.NewNotFound(MsgUserNotFound)
		}
		return nil, err
	}
	if !user.OnboardingCompleted {
		return nil, helpers.NewPreconditionFailed(MsgOnboardingRequired)
	}

	start := time.Now()
	prefs := user.Preferences
	log := a.Logger.With("user_id", userID)
	log.Info("building dashboard (%d assets)", len(prefs.Assets))

	var (
		prices  models.MPriceQuoteSet
		news    models.MNewsItemSet
		insight models.MInsight
		meme    models.MMeme
	)

	// Every provider degrades internally, so no branch returns an error.
	var g errgroup.Group
	g.Go(func() error {
		prices = a.Prices.GetPrices(ctx, prefs.Assets)
		return nil
	})
	g.Go(func() error {
		news = a.News.GetNews(ctx, prefs.Assets)
		return nil
	})
	g.Go(func() error {
		insight = a.Insight.GetInsight(ctx, userID, prefs)
		return nil
	})
	g.Go(func() error {
		meme = a.Memes.GetMeme(ctx)
		return nil
	})
	_ = g.Wait()

	payload := &models.MDashboardPayload{
		Prices:  nonNil(prices.Prices),
		News:    nonNil(news.News),
		Insight: insight,
		Meme:    meme,
		User: models.MDashboardUser{
			Name:        user.Name,
			Preferences: user.Public().Preferences,
		},
		Metadata: BuildMetadata(prices, news, insight, meme),
	}

	elapsed := time.Since(start)
	metrics.DashboardDuration.Observe(elapsed.Seconds())
	log.Debug("dashboard built in %s", elapsed)
	return payload, nil
}

// -----------------------------------------------------------------------------

// BuildMetadata records how each section was produced.
func BuildMetadata(prices models.MPriceQuoteSet, news models.MNewsItemSet, insight models.MInsight, meme models.MMeme) models.MDashboardMetadata {
	insightCount := 0
	if insight.Content != "" {
		insightCount = 1
	}
	memeCount := 0
	if meme.ID != "" {
		memeCount = 1
	}

	return models.MDashboardMetadata{
		Prices: models.MSectionMetadata{
			FromCache:  prices.FromCache,
			IsFallback: prices.IsFallback,
			Count:      len(prices.Prices),
		},
		News: models.MSectionMetadata{
			FromCache:  news.FromCache,
			IsFallback: news.IsFallback,
			Count:      len(news.News),
		},
		Insight: models.MSectionMetadata{
			FromCache:  insight.FromCache,
			IsFallback: insight.IsFallback,
			Count:      insightCount,
		},
		Meme: models.MSectionMetadata{Count: memeCount},
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
