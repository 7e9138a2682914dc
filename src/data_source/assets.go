package datasource

import (
	"fmt"
	"sort"
	"strings"
)

// MAsset describes one supported coin.
type MAsset struct {
	Symbol string
	CoinID string
	Name   string
}

var supportedAssets = []MAsset{
	{Symbol: "BTC", CoinID: "bitcoin", Name: "Bitcoin"},
	{Symbol: "ETH", CoinID: "ethereum", Name: "Ethereum"},
	{Symbol: "SOL", CoinID: "solana", Name: "Solana"},
	{Symbol: "ADA", CoinID: "cardano", Name: "Cardano"},
	{Symbol: "DOT", CoinID: "polkadot", Name: "Polkadot"},
	{Symbol: "DOGE", CoinID: "dogecoin", Name: "Dogecoin"},
	{Symbol: "XRP", CoinID: "ripple", Name: "XRP"},
	{Symbol: "AVAX", CoinID: "avalanche-2", Name: "Avalanche"},
	{Symbol: "MATIC", CoinID: "matic-network", Name: "Polygon"},
	{Symbol: "LINK", CoinID: "chainlink", Name: "Chainlink"},
	{Symbol: "UNI", CoinID: "uniswap", Name: "Uniswap"},
	{Symbol: "ATOM", CoinID: "cosmos", Name: "Cosmos"},
	{Symbol: "LTC", CoinID: "litecoin", Name: "Litecoin"},
	{Symbol: "SHIB", CoinID: "shiba-inu", Name: "Shiba Inu"},
	{Symbol: "BNB", CoinID: "binancecoin", Name: "BNB"},
}

var (
	bySymbol = make(map[string]MAsset, len(supportedAssets))
	byCoinID = make(map[string]MAsset, len(supportedAssets))

	// aliases users commonly type that are neither a ticker nor a coin id.
	aliases = map[string]string{
		"avalanche": "avalanche-2",
		"polygon":   "matic-network",
	}
)

func init() {
	for _, a := range supportedAssets {
		bySymbol[a.Symbol] = a
		byCoinID[a.CoinID] = a
	}
}

// -----------------------------------------------------------------------------

// ResolveCoinID maps a user-facing asset to its market-data identifier.
// Unknown tickers pass through lower-cased; ok reports whether the result is
// an identifier the backend knows.
func ResolveCoinID(asset string) (string, bool) {
	asset = strings.TrimSpace(asset)
	if a, ok := bySymbol[strings.ToUpper(asset)]; ok {
		return a.CoinID, true
	}

	id := strings.ToLower(asset)
	if alias, ok := aliases[id]; ok {
		return alias, true
	}
	_, ok := byCoinID[id]
	return id, ok
}

// -----------------------------------------------------------------------------

// NewsCurrency maps an asset to the ticker the news backend filters on.
func NewsCurrency(asset string) string {
	if id, ok := ResolveCoinID(asset); ok {
		return byCoinID[id].Symbol
	}
	return strings.ToUpper(strings.TrimSpace(asset))
}

// -----------------------------------------------------------------------------

// DisplayName renders an asset as "Name (TICKER)" when known.
func DisplayName(asset string) string {
	if id, ok := ResolveCoinID(asset); ok {
		a := byCoinID[id]
		return fmt.Sprintf("%s (%s)", a.Name, a.Symbol)
	}
	return asset
}

// -----------------------------------------------------------------------------

// NormalizeAssets trims, lower-cases, de-duplicates and sorts assets so that
// any ordering or casing of the same set yields the same slice.
func NormalizeAssets(assets []string) []string {
	seen := make(map[string]struct{}, len(assets))
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		key := strings.ToLower(strings.TrimSpace(a))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// CacheKey builds "<prefix>_<a>_<b>..." over the normalized asset set.
func CacheKey(prefix string, assets []string) string {
	return prefix + "_" + strings.Join(NormalizeAssets(assets), "_")
}
