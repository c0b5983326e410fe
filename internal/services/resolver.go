package services

import (
	"context"
	"fmt"

	"feed-sync-service/internal/clients/shopify"
	"github.com/sirupsen/logrus"
)

// CatalogClient is the variant lookup surface of the platform client
type CatalogClient interface {
	VariantsBySKUFilter(ctx context.Context, filter string, pageSize int, cursor string) (*shopify.VariantPage, error)
}

// Resolver maps SKUs to platform inventory item handles using chunked,
// cursor-paginated catalog queries. The catalog API bounds both the page
// size and the practical length of one filter expression, so the SKU set is
// chunked independently of pagination: chunking only by page size would
// still produce illegally long filters.
type Resolver struct {
	catalog   CatalogClient
	chunkSize int
	pageSize  int
	logger    *logrus.Entry
}

// NewResolver creates a new handle resolver
func NewResolver(catalog CatalogClient, chunkSize, pageSize int, logger *logrus.Logger) *Resolver {
	if chunkSize <= 0 {
		chunkSize = 250
	}
	if pageSize <= 0 {
		pageSize = 250
	}
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		catalog:   catalog,
		chunkSize: chunkSize,
		pageSize:  pageSize,
		logger:    log.WithField("component", "resolver"),
	}
}

// Resolve returns a partial SKU to handle mapping: SKUs the catalog does not
// return are simply absent. Any API failure is returned as an error; an
// incomplete mapping must never be mistaken for "nothing to update"
// downstream, so resolution is all-or-nothing.
func (r *Resolver) Resolve(ctx context.Context, skus []string) (map[string]string, error) {
	handles := make(map[string]string, len(skus))
	if len(skus) == 0 {
		return handles, nil
	}

	totalChunks := (len(skus) + r.chunkSize - 1) / r.chunkSize
	for i := 0; i < len(skus); i += r.chunkSize {
		end := i + r.chunkSize
		if end > len(skus) {
			end = len(skus)
		}
		chunk := skus[i:end]
		chunkNum := i/r.chunkSize + 1

		r.logger.WithFields(logrus.Fields{
			"chunk": fmt.Sprintf("%d/%d", chunkNum, totalChunks),
			"skus":  len(chunk),
		}).Debug("Resolving chunk")

		if err := r.resolveChunk(ctx, chunk, handles); err != nil {
			return nil, fmt.Errorf("resolving chunk %d/%d: %w", chunkNum, totalChunks, err)
		}
	}

	r.logger.WithFields(logrus.Fields{
		"requested": len(skus),
		"resolved":  len(handles),
	}).Info("SKU resolution complete")
	return handles, nil
}

// resolveChunk follows the cursor through every page of one chunk's filter
// query and merges the results into handles.
func (r *Resolver) resolveChunk(ctx context.Context, chunk []string, handles map[string]string) error {
	filter := shopify.NewSKUQuery(chunk).String()
	cursor := ""

	for {
		page, err := r.catalog.VariantsBySKUFilter(ctx, filter, r.pageSize, cursor)
		if err != nil {
			return err
		}

		for _, item := range page.Items {
			handles[item.SKU] = item.InventoryItemID
		}

		if !page.HasNextPage {
			return nil
		}
		cursor = page.EndCursor
	}
}
