package models

import "time"

// Investor types accepted during onboarding.
const (
	InvestorHodler       = "hodler"
	InvestorDayTrader    = "dayTrader"
	InvestorNFTCollector = "nftCollector"
)

// Content types accepted during onboarding.
const (
	ContentNews   = "news"
	ContentCharts = "charts"
	ContentSocial = "social"
	ContentFun    = "fun"
)

// -----------------------------------------------------------------------------

type MUserPreferences struct {
	Assets       []string `json:"assets"`
	InvestorType string   `json:"investorType"`
	ContentTypes []string `json:"contentTypes"`
}

// -----------------------------------------------------------------------------

// MUser is the stored account. PasswordHash and TokenVersion never leave the
// service layer; use Public for responses.
type MUser struct {
	ID                  string           `json:"id"`
	Email               string           `json:"email"`
	Name                string           `json:"name"`
	PasswordHash        string           `json:"-"`
	Preferences         MUserPreferences `json:"preferences"`
	OnboardingCompleted bool             `json:"onboardingCompleted"`
	TokenVersion        int              `json:"-"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// -----------------------------------------------------------------------------

type MPublicUser struct {
	ID                  string           `json:"id"`
	Email               string           `json:"email"`
	Name                string           `json:"name"`
	Preferences         MUserPreferences `json:"preferences"`
	OnboardingCompleted bool             `json:"onboardingCompleted"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

func (u *MUser) Public() MPublicUser {
	prefs := u.Preferences
	if prefs.Assets == nil {
		prefs.Assets = []string{}
	}
	if prefs.ContentTypes == nil {
		prefs.ContentTypes = []string{}
	}
	return MPublicUser{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		Preferences:         prefs,
		OnboardingCompleted: u.OnboardingCompleted,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}
