package cryptopanic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	datasource "crypto-advisor/src/data_source"
	"crypto-advisor/src/helpers"
	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/metrics"
	"crypto-advisor/src/models"
	"crypto-advisor/src/utils"

	"github.com/tidwall/gjson"
)

const (
	maxItems        = 10
	fallbackMessage = "News data temporarily unavailable"
)

var (
	errNotConfigured = errors.New("cryptopanic api key not configured")
	errEmptyResults  = errors.New("cryptopanic returned no results")
)

// -----------------------------------------------------------------------------
// CryptoPanicSource serves "hot" headlines for the user's assets.
// -----------------------------------------------------------------------------

type CryptoPanicSource struct {
	BaseURL string
	APIKey  string
	Network interfaces.INetworkManager
	Cache   *utils.TTLCache[models.MNewsItemSet]
	Logger  *logger.Logger
	now     func() time.Time
}

// -----------------------------------------------------------------------------

func NewCryptoPanicSource(upstream models.MUpstreamConfig, netMgr interfaces.INetworkManager,
	cache *utils.TTLCache[models.MNewsItemSet], log *logger.Logger) *CryptoPanicSource {
	return &CryptoPanicSource{
		BaseURL: strings.TrimRight(upstream.BaseURL, "/"),
		APIKey:  upstream.APIKey,
		Network: netMgr,
		Cache:   cache,
		Logger:  log,
		now:     time.Now,
	}
}

// -----------------------------------------------------------------------------

// GetNews returns up to ten headlines. Failures, a missing key and empty
// responses all yield the fixed fallback set, which is never cached.
func (s *CryptoPanicSource) GetNews(ctx context.Context, assets []string) models.MNewsItemSet {
	key := datasource.CacheKey("news", assets)

	if cached, ok := s.Cache.Get(key); ok {
		s.Logger.Debug("cache hit for %s", key)
		cached.FromCache = true
		return cached
	}

	set, err := s.fetchNews(ctx, datasource.NormalizeAssets(assets))
	if err != nil {
		reason := "upstream_error"
		switch {
		case errors.Is(err, errNotConfigured):
			reason = "not_configured"
			s.Logger.Info("CryptoPanic API key not configured, using fallback")
		case errors.Is(err, errEmptyResults):
			reason = "empty_response"
			s.Logger.Info("CryptoPanic returned empty results, using fallback")
		default:
			s.Logger.Error("CryptoPanic API error: %v", err)
		}
		metrics.ProviderFallbacks.WithLabelValues(models.SectionNews, reason).Inc()
		return FallbackNews(s.now())
	}

	s.Cache.Set(key, set, 0)
	s.Logger.Info("fetched %d news items from CryptoPanic", len(set.News))
	return set
}

// -----------------------------------------------------------------------------

func (s *CryptoPanicSource) fetchNews(ctx context.Context, assets []string) (models.MNewsItemSet, error) {
	if s.APIKey == "" {
		return models.MNewsItemSet{}, errNotConfigured
	}

	currencies := make([]string, 0, len(assets))
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		c := datasource.NewsCurrency(a)
		if !seen[c] {
			seen[c] = true
			currencies = append(currencies, c)
		}
	}

	body, err := s.Network.Get(ctx, s.BaseURL+"/posts/", map[string]string{
		"auth_token": s.APIKey,
		"currencies": strings.Join(currencies, ","),
		"filter":     "hot",
	})
	if err != nil {
		return models.MNewsItemSet{}, err
	}

	if !gjson.ValidBytes(body) {
		return models.MNewsItemSet{}, helpers.NewDataSourceError("malformed /posts response", nil)
	}
	results := gjson.GetBytes(body, "results")
	if !results.IsArray() {
		return models.MNewsItemSet{}, helpers.NewDataSourceError("unexpected /posts response structure", nil)
	}

	items := results.Array()
	if len(items) == 0 {
		return models.MNewsItemSet{}, errEmptyResults
	}
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	now := s.now()
	stamp := now.UnixMilli()
	set := models.MNewsItemSet{News: make([]models.MNewsItem, 0, len(items))}
	for i, item := range items {
		set.News = append(set.News, models.MNewsItem{
			ID:          fmt.Sprintf("news-%d-%d", stamp, i),
			Title:       stringOr(item.Get("title"), "Untitled"),
			Description: stringOr(item.Get("description"), ""),
			PublishedAt: stringOr(item.Get("published_at"), isoTime(now)),
			Kind:        stringOr(item.Get("kind"), "news"),
		})
	}
	return set, nil
}

func stringOr(r gjson.Result, def string) string {
	if s := r.String(); s != "" {
		return s
	}
	return def
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// -----------------------------------------------------------------------------

var fallbackItems = []models.MNewsItem{
	{
		ID:          "fallback-1",
		Title:       "Bitcoin continues to show strength amid market volatility",
		Description: "Bitcoin has maintained its position as the leading cryptocurrency, showing resilience during recent market fluctuations. Analysts suggest institutional adoption continues to drive long-term value.",
	},
	{
		ID:          "fallback-2",
		Title:       "Ethereum ecosystem sees growing DeFi adoption",
		Description: "The Ethereum network continues to dominate decentralized finance with increasing total value locked across major protocols. Layer 2 solutions are helping address scalability concerns.",
	},
	{
		ID:          "fallback-3",
		Title:       "Institutional investors show renewed interest in crypto",
		Description: "Major financial institutions are expanding their cryptocurrency offerings as regulatory clarity improves. Several banks have announced plans to offer crypto custody services.",
	},
	{
		ID:          "fallback-4",
		Title:       "Layer 2 solutions gaining traction for scalability",
		Description: "Rollup technologies and sidechains are seeing increased adoption as users seek lower transaction fees. Projects like Arbitrum and Optimism report record transaction volumes.",
	},
	{
		ID:          "fallback-5",
		Title:       "NFT market shows signs of maturation",
		Description: "The NFT space is evolving beyond digital art into utility-focused applications. Gaming, ticketing, and identity verification use cases are driving new adoption.",
	},
}

// FallbackNews returns the five fixed headlines stamped with now.
func FallbackNews(now time.Time) models.MNewsItemSet {
	set := models.MNewsItemSet{
		News:       make([]models.MNewsItem, len(fallbackItems)),
		IsFallback: true,
		Error:      fallbackMessage,
	}
	for i, item := range fallbackItems {
		item.PublishedAt = isoTime(now)
		item.Kind = "news"
		set.News[i] = item
	}
	return set
}
