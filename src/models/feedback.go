package models

import "time"

// Dashboard sections a vote can target.
const (
	SectionNews    = "news"
	SectionPrices  = "prices"
	SectionInsight = "insight"
	SectionMeme    = "meme"
)

const (
	VoteUp   = "up"
	VoteDown = "down"
)

// -----------------------------------------------------------------------------

type MFeedback struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Section   string    `json:"section" db:"section"`
	ContentID string    `json:"contentId" db:"content_id"`
	Vote      string    `json:"vote" db:"vote"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
