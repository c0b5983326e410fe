package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"feed-sync-service/internal/clients/shopify"
	"feed-sync-service/internal/feeds"
	"feed-sync-service/internal/models"
	"feed-sync-service/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrRunInProgress is returned when a sync run is requested for a feed that
// already has one running
var ErrRunInProgress = errors.New("sync run already in progress")

// FeedFetcher downloads and parses one supplier feed
type FeedFetcher interface {
	Fetch(ctx context.Context, spec models.FeedSpec) ([]models.FeedRecord, error)
}

// HandleResolver maps SKUs to platform inventory item handles
type HandleResolver interface {
	Resolve(ctx context.Context, skus []string) (map[string]string, error)
}

// UpdateApplier writes resolved updates back to the platform in batches
type UpdateApplier interface {
	Apply(ctx context.Context, locationID string, updates []models.ResolvedUpdate) BatchReport
}

// PriceWriter exports changed prices as an import file
type PriceWriter interface {
	Export(feed string, changes []models.FeedRecord) (string, error)
}

// LocationLister lists the shop's inventory locations
type LocationLister interface {
	ListLocations(ctx context.Context) ([]shopify.Location, error)
}

// SyncService orchestrates feed sync runs: load snapshot, fetch feed, diff,
// resolve changed SKUs, apply batches, save the new snapshot. Fatal step
// failures abort the run; unresolved SKUs and failed batches are folded into
// the run's stats and the run still completes.
type SyncService struct {
	specs        map[string]models.FeedSpec
	reader       FeedFetcher
	resolver     HandleResolver
	mutator      UpdateApplier
	exporter     PriceWriter
	locations    LocationLister
	snapshotRepo repository.SnapshotRepositoryInterface
	rosterRepo   repository.RosterRepositoryInterface
	runRepo      repository.RunRepositoryInterface
	locationName string
	logger       *logrus.Entry

	mu     sync.Mutex
	active map[string]bool
}

// NewSyncService creates a new sync service
func NewSyncService(
	specs map[string]models.FeedSpec,
	reader FeedFetcher,
	resolver HandleResolver,
	mutator UpdateApplier,
	exporter PriceWriter,
	locations LocationLister,
	snapshotRepo repository.SnapshotRepositoryInterface,
	rosterRepo repository.RosterRepositoryInterface,
	runRepo repository.RunRepositoryInterface,
	locationName string,
	logger *logrus.Logger,
) *SyncService {
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SyncService{
		specs:        specs,
		reader:       reader,
		resolver:     resolver,
		mutator:      mutator,
		exporter:     exporter,
		locations:    locations,
		snapshotRepo: snapshotRepo,
		rosterRepo:   rosterRepo,
		runRepo:      runRepo,
		locationName: locationName,
		logger:       log.WithField("component", "sync"),
		active:       make(map[string]bool),
	}
}

// FeedNames returns the names of the feeds this service can sync
func (s *SyncService) FeedNames() []string {
	return feeds.Names(s.specs)
}

// Run executes a sync run for the named feed and blocks until it finishes.
// The returned error is non-nil only for fatal failures; batch-level
// failures and unresolved SKUs surface in the run's stats.
func (s *SyncService) Run(ctx context.Context, feedName string, trigger models.TriggerType) (*models.SyncRun, error) {
	spec, run, err := s.begin(ctx, feedName, trigger)
	if err != nil {
		return nil, err
	}
	return run, s.finish(ctx, spec, run)
}

// Start launches a sync run for the named feed in the background and returns
// the run record immediately.
func (s *SyncService) Start(ctx context.Context, feedName string, trigger models.TriggerType) (*models.SyncRun, error) {
	spec, run, err := s.begin(ctx, feedName, trigger)
	if err != nil {
		return nil, err
	}

	// Copy before the goroutine takes ownership of the record; the run
	// mutates its stats and status as it executes.
	snapshot := *run

	go func() {
		// Each network call carries its own timeout; the run as a whole
		// is not tied to the triggering request's context.
		if err := s.finish(context.Background(), spec, run); err != nil {
			s.logger.WithField("feed", spec.Name).WithError(err).Error("Sync run failed")
		}
	}()

	return &snapshot, nil
}

// GetRun returns one run record by ID
func (s *SyncService) GetRun(ctx context.Context, id uuid.UUID) (*models.SyncRun, error) {
	return s.runRepo.GetByID(ctx, id)
}

// ListRuns returns recent run records, optionally filtered by feed
func (s *SyncService) ListRuns(ctx context.Context, feed string, limit int) ([]models.SyncRun, error) {
	return s.runRepo.List(ctx, feed, limit)
}

func (s *SyncService) begin(ctx context.Context, feedName string, trigger models.TriggerType) (models.FeedSpec, *models.SyncRun, error) {
	spec, err := feeds.Lookup(s.specs, feedName)
	if err != nil {
		return models.FeedSpec{}, nil, err
	}

	s.mu.Lock()
	if s.active[spec.Name] {
		s.mu.Unlock()
		return models.FeedSpec{}, nil, fmt.Errorf("%w for feed %s", ErrRunInProgress, spec.Name)
	}
	s.active[spec.Name] = true
	s.mu.Unlock()

	run := &models.SyncRun{
		ID:          uuid.New(),
		Feed:        spec.Name,
		Status:      models.RunStatusRunning,
		TriggeredBy: trigger,
		StartedAt:   time.Now(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		// Run records are observability, not a precondition for syncing.
		s.logger.WithError(err).Warn("Failed to persist run record")
	}
	return spec, run, nil
}

func (s *SyncService) finish(ctx context.Context, spec models.FeedSpec, run *models.SyncRun) error {
	defer func() {
		s.mu.Lock()
		delete(s.active, spec.Name)
		s.mu.Unlock()
	}()

	err := s.execute(ctx, spec, &run.Stats)

	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = err.Error()
	} else {
		run.Status = models.RunStatusCompleted
	}
	if updateErr := s.runRepo.Update(ctx, run); updateErr != nil {
		s.logger.WithError(updateErr).Warn("Failed to update run record")
	}

	s.logger.WithFields(logrus.Fields{
		"feed":     spec.Name,
		"status":   run.Status,
		"duration": now.Sub(run.StartedAt).Round(time.Millisecond).String(),
		"stats":    run.Stats,
	}).Info("Sync run finished")
	return err
}

func (s *SyncService) execute(ctx context.Context, spec models.FeedSpec, stats *models.RunStats) error {
	records, err := s.reader.Fetch(ctx, spec)
	if err != nil {
		return err
	}
	stats.TotalSeen = len(records)

	if spec.RequiresRoster {
		records, err = s.filterByRoster(ctx, spec, records)
		if err != nil {
			return err
		}
	}

	previous, err := s.snapshotRepo.Load(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("loading snapshot for feed %s: %w", spec.Name, err)
	}

	changes := Diff(records, previous)
	stats.Changed = len(changes)
	s.logger.WithFields(logrus.Fields{
		"feed":    spec.Name,
		"records": len(records),
		"changed": len(changes),
	}).Info("Change detection complete")

	if spec.Kind == models.FeedKindPrice {
		if _, err := s.exporter.Export(spec.Name, changes); err != nil {
			return err
		}
	} else if len(changes) > 0 {
		if err := s.applyQuantityChanges(ctx, spec, changes, stats); err != nil {
			return err
		}
	}

	// Persist the full current state, not just the changed subset. If this
	// fails the next run simply re-detects the same values as changed,
	// which is an idempotent degradation.
	if err := s.snapshotRepo.Replace(ctx, spec.Name, SnapshotValues(records)); err != nil {
		s.logger.WithField("feed", spec.Name).WithError(err).Warn("Failed to save snapshot")
	}
	return nil
}

func (s *SyncService) applyQuantityChanges(ctx context.Context, spec models.FeedSpec, changes []models.FeedRecord, stats *models.RunStats) error {
	locationID, err := s.resolveLocation(ctx)
	if err != nil {
		return err
	}

	skus := make([]string, 0, len(changes))
	for _, change := range changes {
		skus = append(skus, change.SKU)
	}

	handles, err := s.resolver.Resolve(ctx, skus)
	if err != nil {
		return err
	}

	updates := make([]models.ResolvedUpdate, 0, len(changes))
	for _, change := range changes {
		handle, ok := handles[change.SKU]
		if !ok {
			stats.Unresolved++
			s.logger.WithFields(logrus.Fields{
				"feed": spec.Name,
				"sku":  change.SKU,
			}).Warn("SKU not found in shop")
			continue
		}
		updates = append(updates, models.ResolvedUpdate{
			SKU:             change.SKU,
			InventoryItemID: handle,
			Value:           change.Value,
		})
	}
	stats.Resolved = len(updates)

	if len(updates) == 0 {
		return nil
	}

	report := s.mutator.Apply(ctx, locationID, updates)
	stats.BatchesSucceeded = report.BatchesSucceeded
	stats.BatchesFailed = report.BatchesFailed
	stats.ItemsUpdated = report.ItemsUpdated
	stats.ItemsFailed = report.ItemsFailed
	return nil
}

func (s *SyncService) filterByRoster(ctx context.Context, spec models.FeedSpec, records []models.FeedRecord) ([]models.FeedRecord, error) {
	roster, err := s.rosterRepo.LoadSKUs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading shop roster: %w", err)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("shop roster is empty; refresh the roster before syncing feed %s", spec.Name)
	}

	filtered := make([]models.FeedRecord, 0, len(records))
	for _, record := range records {
		if _, ok := roster[record.SKU]; ok {
			filtered = append(filtered, record)
		}
	}
	s.logger.WithFields(logrus.Fields{
		"feed":     spec.Name,
		"records":  len(records),
		"filtered": len(filtered),
	}).Info("Roster filter applied")
	return filtered, nil
}

// resolveLocation picks the mutation target location: the configured name if
// present, otherwise the first location returned.
func (s *SyncService) resolveLocation(ctx context.Context) (string, error) {
	locations, err := s.locations.ListLocations(ctx)
	if err != nil {
		return "", fmt.Errorf("listing locations: %w", err)
	}
	if len(locations) == 0 {
		return "", fmt.Errorf("shop has no inventory locations")
	}

	for _, location := range locations {
		if location.Name == s.locationName {
			return location.ID, nil
		}
	}
	s.logger.WithFields(logrus.Fields{
		"wanted":   s.locationName,
		"fallback": locations[0].Name,
	}).Warn("Configured location not found, using first location")
	return locations[0].ID, nil
}
