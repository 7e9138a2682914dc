package models

import "time"

// MInsight is the "insight of the day" for one user.
type MInsight struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	GeneratedAt  time.Time `json:"generatedAt"`
	InvestorType string    `json:"investorType"`
	Assets       []string  `json:"assets"`
	IsFallback   bool      `json:"isFallback"`
	FromCache    bool      `json:"fromCache"`
}
