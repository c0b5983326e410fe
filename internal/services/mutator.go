package services

import (
	"context"
	"fmt"

	"feed-sync-service/internal/clients/shopify"
	"feed-sync-service/internal/models"
	"github.com/sirupsen/logrus"
)

// InventoryMutator is the quantity mutation surface of the platform client
type InventoryMutator interface {
	SetOnHandQuantities(ctx context.Context, reason string, quantities []shopify.QuantityInput) ([]shopify.UserError, error)
}

// BatchReport summarizes a mutation pass. The batch is the atomic unit of
// success and failure: item-level outcomes within a failed batch are not
// tracked individually.
type BatchReport struct {
	BatchesSucceeded int
	BatchesFailed    int
	ItemsUpdated     int
	ItemsFailed      int
}

// Mutator writes resolved updates back to the platform in fixed-size
// batches, one mutation call per batch.
type Mutator struct {
	inventory InventoryMutator
	batchSize int
	reason    string
	logger    *logrus.Entry
}

// NewMutator creates a new batch mutator
func NewMutator(inventory InventoryMutator, batchSize int, reason string, logger *logrus.Logger) *Mutator {
	if batchSize <= 0 {
		batchSize = 100
	}
	if reason == "" {
		reason = "correction"
	}
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Mutator{
		inventory: inventory,
		batchSize: batchSize,
		reason:    reason,
		logger:    log.WithField("component", "mutator"),
	}
}

// Apply partitions updates into batches and submits each with one mutation
// call. A transport failure or any item-level userError fails the whole
// batch; later batches are still attempted. Failures are folded into the
// report, never returned as errors.
func (m *Mutator) Apply(ctx context.Context, locationID string, updates []models.ResolvedUpdate) BatchReport {
	var report BatchReport

	totalBatches := (len(updates) + m.batchSize - 1) / m.batchSize
	for i := 0; i < len(updates); i += m.batchSize {
		end := i + m.batchSize
		if end > len(updates) {
			end = len(updates)
		}
		batch := updates[i:end]
		batchNum := i/m.batchSize + 1

		log := m.logger.WithFields(logrus.Fields{
			"batch": fmt.Sprintf("%d/%d", batchNum, totalBatches),
			"items": len(batch),
		})

		if err := m.applyBatch(ctx, locationID, batch); err != nil {
			log.WithError(err).Warn("Batch failed")
			report.BatchesFailed++
			report.ItemsFailed += len(batch)
			continue
		}

		log.Info("Batch applied")
		report.BatchesSucceeded++
		report.ItemsUpdated += len(batch)
	}

	return report
}

func (m *Mutator) applyBatch(ctx context.Context, locationID string, batch []models.ResolvedUpdate) error {
	quantities := make([]shopify.QuantityInput, 0, len(batch))
	for _, update := range batch {
		quantities = append(quantities, shopify.QuantityInput{
			InventoryItemID: update.InventoryItemID,
			LocationID:      locationID,
			Quantity:        update.Value,
		})
	}

	userErrors, err := m.inventory.SetOnHandQuantities(ctx, m.reason, quantities)
	if err != nil {
		return err
	}
	if len(userErrors) > 0 {
		return fmt.Errorf("%d validation errors, first: %s", len(userErrors), userErrors[0].Message)
	}
	return nil
}
