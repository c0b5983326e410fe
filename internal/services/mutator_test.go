package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"feed-sync-service/internal/clients/shopify"
	"feed-sync-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInventory scripts one outcome per mutation call, in order.
type fakeInventory struct {
	calls    [][]shopify.QuantityInput
	reasons  []string
	outcomes []batchOutcome
}

type batchOutcome struct {
	userErrors []shopify.UserError
	err        error
}

func (f *fakeInventory) SetOnHandQuantities(ctx context.Context, reason string, quantities []shopify.QuantityInput) ([]shopify.UserError, error) {
	call := len(f.calls)
	f.calls = append(f.calls, quantities)
	f.reasons = append(f.reasons, reason)
	if call < len(f.outcomes) {
		return f.outcomes[call].userErrors, f.outcomes[call].err
	}
	return nil, nil
}

func makeUpdates(n int) []models.ResolvedUpdate {
	updates := make([]models.ResolvedUpdate, n)
	for i := range updates {
		updates[i] = models.ResolvedUpdate{
			SKU:             fmt.Sprintf("SKU-%03d", i),
			InventoryItemID: fmt.Sprintf("gid://shopify/InventoryItem/%d", i),
			Value:           int64(i),
		}
	}
	return updates
}

func TestApply_PartitionsIntoBatches(t *testing.T) {
	inventory := &fakeInventory{}
	mutator := NewMutator(inventory, 100, "correction", nil)

	report := mutator.Apply(context.Background(), "loc-1", makeUpdates(150))

	require.Len(t, inventory.calls, 2)
	assert.Len(t, inventory.calls[0], 100)
	assert.Len(t, inventory.calls[1], 50)
	assert.Equal(t, BatchReport{BatchesSucceeded: 2, ItemsUpdated: 150}, report)

	for _, reason := range inventory.reasons {
		assert.Equal(t, "correction", reason)
	}
	for _, item := range inventory.calls[0] {
		assert.Equal(t, "loc-1", item.LocationID)
	}
}

func TestApply_TransportErrorFailsBatchButContinues(t *testing.T) {
	inventory := &fakeInventory{outcomes: []batchOutcome{
		{err: errors.New("connection reset")},
		{},
	}}
	mutator := NewMutator(inventory, 100, "correction", nil)

	report := mutator.Apply(context.Background(), "loc-1", makeUpdates(150))

	require.Len(t, inventory.calls, 2)
	assert.Equal(t, BatchReport{
		BatchesSucceeded: 1,
		BatchesFailed:    1,
		ItemsUpdated:     50,
		ItemsFailed:      100,
	}, report)
}

func TestApply_UserErrorsFailWholeBatch(t *testing.T) {
	// One rejected item fails its whole batch; item granularity is not
	// tracked inside a failed batch.
	inventory := &fakeInventory{outcomes: []batchOutcome{
		{userErrors: []shopify.UserError{{Field: []string{"quantity"}, Message: "invalid quantity"}}},
		{},
	}}
	mutator := NewMutator(inventory, 50, "correction", nil)

	report := mutator.Apply(context.Background(), "loc-1", makeUpdates(100))

	require.Len(t, inventory.calls, 2)
	assert.Equal(t, BatchReport{
		BatchesSucceeded: 1,
		BatchesFailed:    1,
		ItemsUpdated:     50,
		ItemsFailed:      50,
	}, report)
}

func TestApply_NoUpdates(t *testing.T) {
	inventory := &fakeInventory{}
	mutator := NewMutator(inventory, 100, "correction", nil)

	report := mutator.Apply(context.Background(), "loc-1", nil)

	assert.Empty(t, inventory.calls)
	assert.Equal(t, BatchReport{}, report)
}
