package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"feed-sync-service/internal/models"
	"github.com/sirupsen/logrus"
)

// PriceExporter writes changed prices as an import CSV instead of mutating
// the platform directly; the platform mutation API covers quantities only.
// The file format matches the bulk product import tooling: one UPDATE row
// per changed SKU. A header-only file is written when nothing changed.
type PriceExporter struct {
	dir    string
	logger *logrus.Entry
}

// NewPriceExporter creates a new price exporter writing into dir
func NewPriceExporter(dir string, logger *logrus.Logger) *PriceExporter {
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PriceExporter{
		dir:    dir,
		logger: log.WithField("component", "price-exporter"),
	}
}

// Export writes the changed price records for a feed and returns the file path
func (e *PriceExporter) Export(feed string, changes []models.FeedRecord) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_updates.csv", feed))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Variant SKU", "Variant Price", "Variant Cost", "Variant Command"}); err != nil {
		return "", err
	}
	for _, record := range changes {
		row := []string{record.SKU, strconv.FormatInt(record.Value, 10), record.Cost, "UPDATE"}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	e.logger.WithFields(logrus.Fields{
		"feed":    feed,
		"path":    path,
		"updates": len(changes),
	}).Info("Price updates exported")
	return path, nil
}
