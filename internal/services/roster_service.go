package services

import (
	"context"
	"fmt"

	"feed-sync-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// VariantLister is the roster refresh surface of the platform client
type VariantLister interface {
	AllVariantSKUs(ctx context.Context, pageSize int) ([]string, error)
}

// RosterService refreshes the cached roster of SKUs known to the shop. The
// roster is refreshed independently of feed runs and consumed as an
// allow-list by full catalog feeds.
type RosterService struct {
	variants   VariantLister
	rosterRepo repository.RosterRepositoryInterface
	pageSize   int
	logger     *logrus.Entry
}

// NewRosterService creates a new roster service
func NewRosterService(variants VariantLister, rosterRepo repository.RosterRepositoryInterface, pageSize int, logger *logrus.Logger) *RosterService {
	if pageSize <= 0 {
		pageSize = 250
	}
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RosterService{
		variants:   variants,
		rosterRepo: rosterRepo,
		pageSize:   pageSize,
		logger:     log.WithField("component", "roster"),
	}
}

// Refresh fetches every variant SKU from the shop and replaces the cached
// roster wholesale. Returns the number of SKUs stored.
func (s *RosterService) Refresh(ctx context.Context) (int, error) {
	skus, err := s.variants.AllVariantSKUs(ctx, s.pageSize)
	if err != nil {
		return 0, fmt.Errorf("fetching shop SKUs: %w", err)
	}

	if err := s.rosterRepo.Replace(ctx, skus); err != nil {
		return 0, fmt.Errorf("storing shop SKUs: %w", err)
	}

	s.logger.WithField("skus", len(skus)).Info("Shop roster refreshed")
	return len(skus), nil
}
