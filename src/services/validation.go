package services

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/models"
)

const MsgValidationFailed = "Validation failed"

var (
	investorTypes = map[string]bool{
		models.InvestorHodler:       true,
		models.InvestorDayTrader:    true,
		models.InvestorNFTCollector: true,
	}
	contentTypes = map[string]bool{
		models.ContentNews:   true,
		models.ContentCharts: true,
		models.ContentSocial: true,
		models.ContentFun:    true,
	}
	sections = map[string]bool{
		models.SectionNews:    true,
		models.SectionPrices:  true,
		models.SectionInsight: true,
		models.SectionMeme:    true,
	}
)

// fieldErrors collects rejected fields and renders a ValidationError.
type fieldErrors []helpers.FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, helpers.FieldError{Field: field, Message: msg})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return helpers.NewValidation(MsgValidationFailed, f...)
}

// -----------------------------------------------------------------------------

// NormalizePreferences trims entries and validates the onboarding answers.
func NormalizePreferences(p models.MUserPreferences) (models.MUserPreferences, error) {
	var errs fieldErrors
	out := models.MUserPreferences{InvestorType: p.InvestorType}

	if len(p.Assets) == 0 {
		errs.add("preferences.assets", "Please select at least one crypto asset")
	}
	for _, a := range p.Assets {
		a = strings.TrimSpace(a)
		if a == "" {
			errs.add("preferences.assets", "Asset name must be a non-empty string")
			continue
		}
		out.Assets = append(out.Assets, a)
	}

	if !investorTypes[p.InvestorType] {
		errs.add("preferences.investorType", "Invalid investor type")
	}

	if len(p.ContentTypes) == 0 {
		errs.add("preferences.contentTypes", "Please select at least one content type")
	}
	for _, c := range p.ContentTypes {
		if !contentTypes[c] {
			errs.add("preferences.contentTypes", "Invalid content type")
			continue
		}
		out.ContentTypes = append(out.ContentTypes, c)
	}

	return out, errs.err()
}

// -----------------------------------------------------------------------------

func validateRegistration(email, name, password string) error {
	var errs fieldErrors
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") || strings.ContainsAny(email, " <>") {
		errs.add("email", "Please provide a valid email")
	}
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		errs.add("name", "Name must be between 2 and 50 characters")
	}
	if len(password) < 8 {
		errs.add("password", "Password must be at least 8 characters")
	}
	return errs.err()
}

func validateFeedback(section, contentID, vote string) error {
	var errs fieldErrors
	if !sections[section] {
		errs.add("section", "Invalid section. Must be: news, prices, insight, or meme")
	}
	if strings.TrimSpace(contentID) == "" {
		errs.add("contentId", "Content ID is required")
	}
	if vote != models.VoteUp && vote != models.VoteDown {
		errs.add("vote", `Vote must be either "up" or "down"`)
	}
	return errs.err()
}
