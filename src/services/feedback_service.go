package services

import (
	"context"
	"strings"

	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"
)

const feedbackListLimit = 100

type FeedbackService struct {
	Store  interfaces.IFeedbackStore
	Logger *logger.Logger
}

func NewFeedbackService(store interfaces.IFeedbackStore, log *logger.Logger) *FeedbackService {
	return &FeedbackService{Store: store, Logger: log}
}

// -----------------------------------------------------------------------------

// Submit records the user's vote, replacing any earlier vote on the same item.
func (s *FeedbackService) Submit(ctx context.Context, userID, section, contentID, vote string) (*models.MFeedback, error) {
	contentID = strings.TrimSpace(contentID)
	if err := validateFeedback(section, contentID, vote); err != nil {
		return nil, err
	}

	f := &models.MFeedback{UserID: userID, Section: section, ContentID: contentID, Vote: vote}
	if err := s.Store.UpsertFeedback(ctx, f); err != nil {
		return nil, err
	}
	s.Logger.Debug("feedback %s on %s/%s by %s", vote, section, contentID, userID)
	return f, nil
}

// -----------------------------------------------------------------------------

func (s *FeedbackService) ListForUser(ctx context.Context, userID string) ([]models.MFeedback, error) {
	return s.Store.ListFeedback(ctx, userID, feedbackListLimit)
}
