package models

// MPriceQuote is one market-data row. Numeric fields are nil for
// placeholder entries the upstream could not resolve.
type MPriceQuote struct {
	ID             string   `json:"id"`
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	Image          *string  `json:"image"`
	CurrentPrice   *float64 `json:"currentPrice"`
	PriceChange24h *float64 `json:"priceChange24h"`
	MarketCap      *float64 `json:"marketCap"`
	Volume24h      *float64 `json:"volume24h"`
	High24h        *float64 `json:"high24h"`
	Low24h         *float64 `json:"low24h"`
	Unsupported    bool     `json:"unsupported,omitempty"`
}

// -----------------------------------------------------------------------------

// MPriceQuoteSet holds one entry per requested asset, in request order.
type MPriceQuoteSet struct {
	Prices         []MPriceQuote `json:"prices"`
	FromCache      bool          `json:"fromCache"`
	IsFallback     bool          `json:"isFallback"`
	HasUnsupported bool          `json:"hasUnsupported"`
	Error          string        `json:"error,omitempty"`
}
