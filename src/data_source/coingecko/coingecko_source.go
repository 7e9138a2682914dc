package coingecko

import (
	"context"
	"encoding/json"
	"strings"

	datasource "crypto-advisor/src/data_source"
	"crypto-advisor/src/helpers"
	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/metrics"
	"crypto-advisor/src/models"
	"crypto-advisor/src/utils"
)

const (
	fallbackMessage    = "Price data temporarily unavailable"
	unsupportedMessage = "None of the requested assets are supported"
)

// marketCoin is one row of /coins/markets.
type marketCoin struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    *string  `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	MarketCap                *float64 `json:"market_cap"`
	TotalVolume              *float64 `json:"total_volume"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
}

// -----------------------------------------------------------------------------
// CoinGeckoSource serves price quotes for a set of assets, memoized per
// normalized asset set.
// -----------------------------------------------------------------------------

type CoinGeckoSource struct {
	BaseURL string
	Network interfaces.INetworkManager
	Cache   *utils.TTLCache[models.MPriceQuoteSet]
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCoinGeckoSource(upstream models.MUpstreamConfig, netMgr interfaces.INetworkManager,
	cache *utils.TTLCache[models.MPriceQuoteSet], log *logger.Logger) *CoinGeckoSource {
	return &CoinGeckoSource{
		BaseURL: strings.TrimRight(upstream.BaseURL, "/"),
		Network: netMgr,
		Cache:   cache,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// GetPrices returns one quote per requested asset, in request order. It never
// fails: upstream problems produce a placeholder set tagged IsFallback.
func (s *CoinGeckoSource) GetPrices(ctx context.Context, assets []string) models.MPriceQuoteSet {
	unique := datasource.NormalizeAssets(assets)
	key := datasource.CacheKey("prices", assets)

	if cached, ok := s.Cache.Get(key); ok {
		s.Logger.Debug("cache hit for %s", key)
		out := project(cached, unique, assets)
		out.FromCache = true
		return out
	}

	set, err := s.fetchPrices(ctx, unique)
	if err != nil {
		s.Logger.Error("CoinGecko API error: %v", err)
		metrics.ProviderFallbacks.WithLabelValues(models.SectionPrices, "upstream_error").Inc()
		return FallbackPrices(assets)
	}

	if set.IsFallback {
		metrics.ProviderFallbacks.WithLabelValues(models.SectionPrices, "no_supported_assets").Inc()
	} else {
		s.Cache.Set(key, set, 0)
		s.Logger.Info("fetched %d prices from CoinGecko", len(set.Prices))
	}
	return project(set, unique, assets)
}

// -----------------------------------------------------------------------------

// fetchPrices resolves unique (normalized, sorted) assets. The returned set
// holds exactly one entry per element of unique, in the same order.
func (s *CoinGeckoSource) fetchPrices(ctx context.Context, unique []string) (models.MPriceQuoteSet, error) {
	ids := make([]string, len(unique))
	valid := make([]bool, len(unique))
	var batch []string
	seen := make(map[string]bool)
	var unknown []string

	for i, asset := range unique {
		ids[i], valid[i] = datasource.ResolveCoinID(asset)
		if !valid[i] {
			unknown = append(unknown, asset)
			continue
		}
		if !seen[ids[i]] {
			seen[ids[i]] = true
			batch = append(batch, ids[i])
		}
	}

	if len(unknown) > 0 {
		s.Logger.Warning("unknown assets requested: %s", strings.Join(unknown, ","))
	}

	if len(batch) == 0 {
		set := models.MPriceQuoteSet{
			Prices:         make([]models.MPriceQuote, len(unique)),
			IsFallback:     true,
			HasUnsupported: len(unique) > 0,
			Error:          unsupportedMessage,
		}
		for i, asset := range unique {
			set.Prices[i] = placeholder(asset, true)
		}
		return set, nil
	}

	body, err := s.Network.Get(ctx, s.BaseURL+"/coins/markets", map[string]string{
		"vs_currency":             "usd",
		"ids":                     strings.Join(batch, ","),
		"order":                   "market_cap_desc",
		"per_page":                "20",
		"page":                    "1",
		"sparkline":               "false",
		"price_change_percentage": "24h",
	})
	if err != nil {
		return models.MPriceQuoteSet{}, err
	}

	var coins []marketCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return models.MPriceQuoteSet{}, helpers.NewDataSourceError("malformed /coins/markets response", err)
	}

	byID := make(map[string]marketCoin, len(coins))
	for _, c := range coins {
		byID[c.ID] = c
	}

	set := models.MPriceQuoteSet{Prices: make([]models.MPriceQuote, len(unique))}
	for i, asset := range unique {
		if !valid[i] {
			set.Prices[i] = placeholder(asset, true)
			set.HasUnsupported = true
			continue
		}
		coin, ok := byID[ids[i]]
		if !ok {
			set.Prices[i] = placeholder(asset, false)
			continue
		}
		set.Prices[i] = toQuote(coin)
	}
	return set, nil
}

// -----------------------------------------------------------------------------

func toQuote(c marketCoin) models.MPriceQuote {
	return models.MPriceQuote{
		ID:             c.ID,
		Symbol:         strings.ToUpper(c.Symbol),
		Name:           c.Name,
		Image:          c.Image,
		CurrentPrice:   c.CurrentPrice,
		PriceChange24h: c.PriceChangePercentage24h,
		MarketCap:      c.MarketCap,
		Volume24h:      c.TotalVolume,
		High24h:        c.High24h,
		Low24h:         c.Low24h,
	}
}

func placeholder(asset string, unsupported bool) models.MPriceQuote {
	asset = strings.TrimSpace(asset)
	return models.MPriceQuote{
		ID:          strings.ToLower(asset),
		Symbol:      strings.ToUpper(asset),
		Name:        asset,
		Unsupported: unsupported,
	}
}

// -----------------------------------------------------------------------------

// project expands a set aligned to unique back onto the caller's asset list,
// keeping duplicates and request order.
func project(set models.MPriceQuoteSet, unique, assets []string) models.MPriceQuoteSet {
	byAsset := make(map[string]models.MPriceQuote, len(unique))
	for i, asset := range unique {
		if i < len(set.Prices) {
			byAsset[asset] = set.Prices[i]
		}
	}

	out := set
	out.Prices = make([]models.MPriceQuote, 0, len(assets))
	for _, asset := range assets {
		q, ok := byAsset[strings.ToLower(strings.TrimSpace(asset))]
		switch {
		case !ok:
			q = placeholder(asset, true)
			out.HasUnsupported = true
		case q.Unsupported:
			q = placeholder(asset, true)
		}
		out.Prices = append(out.Prices, q)
	}
	return out
}

// -----------------------------------------------------------------------------

// FallbackPrices is the degraded result: one null-valued entry per asset.
func FallbackPrices(assets []string) models.MPriceQuoteSet {
	set := models.MPriceQuoteSet{
		Prices:     make([]models.MPriceQuote, 0, len(assets)),
		IsFallback: true,
		Error:      fallbackMessage,
	}
	for _, asset := range assets {
		set.Prices = append(set.Prices, placeholder(asset, false))
	}
	return set
}
