package interfaces

import (
	"context"

	"crypto-advisor/src/models"
)

// -----------------------------------------------------------------------------
// Dashboard section providers. Implementations never fail: upstream problems
// are reported through the IsFallback flag of the returned value.
// -----------------------------------------------------------------------------

type IPriceProvider interface {
	GetPrices(ctx context.Context, assets []string) models.MPriceQuoteSet
}

type INewsProvider interface {
	GetNews(ctx context.Context, assets []string) models.MNewsItemSet
}

type IInsightProvider interface {
	GetInsight(ctx context.Context, userID string, prefs models.MUserPreferences) models.MInsight
}

type IMemeProvider interface {
	GetMeme(ctx context.Context) models.MMeme
}
