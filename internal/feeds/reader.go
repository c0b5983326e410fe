// Package feeds fetches supplier feeds and normalizes them into SKU/value
// records. Feed layouts differ per supplier (delimiter, column positions,
// header-named columns); the FeedSpec describes each one.
package feeds

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"feed-sync-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// FetchError indicates the feed could not be downloaded. Fatal to the run.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching feed from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError indicates the feed body has no usable header row. Individual
// malformed data rows never produce a ParseError.
type ParseError struct {
	Feed string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing feed %s: %v", e.Feed, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNoHeader = errors.New("feed has no header row")

// Reader downloads and parses supplier feeds
type Reader struct {
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewReader creates a new feed reader
func NewReader(timeout time.Duration, logger *logrus.Logger) *Reader {
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reader{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithField("component", "feed-reader"),
	}
}

// Fetch downloads the feed and parses it into normalized records. Record
// order matches feed row order and no deduplication is performed here.
func (r *Reader) Fetch(ctx context.Context, spec models.FeedSpec) ([]models.FeedRecord, error) {
	if spec.URL == "" {
		return nil, fmt.Errorf("feed %s has no URL configured", spec.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: spec.URL, Err: err}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: spec.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: spec.URL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	records, err := r.parse(resp.Body, spec)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"feed":    spec.Name,
		"records": len(records),
	}).Info("Feed parsed")
	return records, nil
}

func (r *Reader) parse(body io.Reader, spec models.FeedSpec) ([]models.FeedRecord, error) {
	reader := csv.NewReader(body)
	reader.Comma = spec.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{Feed: spec.Name, Err: errNoHeader}
	}

	skuCol := spec.SKUColumn
	valueCol := spec.ValueColumn
	if spec.SKUHeader != "" {
		skuCol, valueCol, err = locateColumns(header, spec.SKUHeader, spec.ValueHeader)
		if err != nil {
			return nil, &ParseError{Feed: spec.Name, Err: err}
		}
	}

	minLen := skuCol
	if valueCol > minLen {
		minLen = valueCol
	}

	var records []models.FeedRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A single malformed row degrades gracefully, the rest of
			// the feed still syncs.
			continue
		}
		if len(row) <= minLen {
			continue
		}

		sku := strings.TrimSpace(row[skuCol])
		if sku == "" {
			continue
		}

		raw := strings.TrimSpace(row[valueCol])
		record := models.FeedRecord{SKU: sku}
		if spec.Kind == models.FeedKindPrice {
			if spec.PriceMarkup.IsZero() {
				record.Value = parsePrice(raw)
			} else {
				record.Value = RetailPrice(raw, spec.PriceMarkup)
			}
			record.Cost = raw
		} else {
			record.Value = parseQuantity(raw)
		}
		records = append(records, record)
	}

	return records, nil
}

// parseQuantity coerces a quantity cell to a non-negative integer. Missing
// or non-numeric cells become 0 rather than failing the row.
func parseQuantity(raw string) int64 {
	qty, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || qty < 0 {
		return 0
	}
	return qty
}

// parsePrice coerces a price cell to a whole-unit integer price. Missing or
// non-numeric cells become 0.
func parsePrice(raw string) int64 {
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return 0
	}
	return price.Round(0).IntPart()
}

// RetailPrice converts a raw supplier price into a whole-unit retail price:
// apply the markup, then round up to the next multiple of ten minus one
// (a 9-ending price). Unparseable prices become 0.
func RetailPrice(raw string, markup decimal.Decimal) int64 {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return 0
	}
	if !markup.IsZero() {
		price = price.Mul(markup)
	}
	ten := decimal.NewFromInt(10)
	rounded := price.Div(ten).Ceil().Mul(ten).Sub(decimal.NewFromInt(1))
	if rounded.IsNegative() {
		return 0
	}
	return rounded.IntPart()
}

func locateColumns(header []string, skuHeader, valueHeader string) (int, int, error) {
	skuCol, valueCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case skuHeader:
			skuCol = i
		case valueHeader:
			valueCol = i
		}
	}
	if skuCol < 0 {
		return 0, 0, fmt.Errorf("header column %q not found", skuHeader)
	}
	if valueCol < 0 {
		return 0, 0, fmt.Errorf("header column %q not found", valueHeader)
	}
	return skuCol, valueCol, nil
}
