package models

type MNewsItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
	Kind        string `json:"kind"`
}

// -----------------------------------------------------------------------------

type MNewsItemSet struct {
	News       []MNewsItem `json:"news"`
	FromCache  bool        `json:"fromCache"`
	IsFallback bool        `json:"isFallback"`
	Error      string      `json:"error,omitempty"`
}
