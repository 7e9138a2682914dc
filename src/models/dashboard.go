package models

// -----------------------------------------------------------------------------
// Dashboard payload (built per request, never persisted)
// -----------------------------------------------------------------------------

type MDashboardPayload struct {
	Prices   []MPriceQuote      `json:"prices"`
	News     []MNewsItem        `json:"news"`
	Insight  MInsight           `json:"insight"`
	Meme     MMeme              `json:"meme"`
	User     MDashboardUser     `json:"user"`
	Metadata MDashboardMetadata `json:"_metadata"`
}

type MDashboardUser struct {
	Name        string           `json:"name"`
	Preferences MUserPreferences `json:"preferences"`
}

// -----------------------------------------------------------------------------
// Provenance
// -----------------------------------------------------------------------------

type MDashboardMetadata struct {
	Prices  MSectionMetadata `json:"prices"`
	News    MSectionMetadata `json:"news"`
	Insight MSectionMetadata `json:"insight"`
	Meme    MSectionMetadata `json:"meme"`
}

type MSectionMetadata struct {
	FromCache  bool `json:"fromCache"`
	IsFallback bool `json:"isFallback"`
	Count      int  `json:"count"`
}
