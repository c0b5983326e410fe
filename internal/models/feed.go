package models

import "github.com/shopspring/decimal"

// FeedKind distinguishes what the feed's value column describes.
type FeedKind string

const (
	FeedKindQuantity FeedKind = "QUANTITY"
	FeedKindPrice    FeedKind = "PRICE"
)

// FeedSpec describes how to fetch and parse one supplier feed.
//
// Column positions are zero-based indices into each row. Feeds whose layout is
// only stable by header name (full catalog exports) set SKUHeader/ValueHeader
// instead; the reader then locates the columns from the header row.
type FeedSpec struct {
	Name      string
	URL       string
	Delimiter rune
	Kind      FeedKind

	SKUColumn   int
	ValueColumn int
	SKUHeader   string
	ValueHeader string

	// RequiresRoster restricts the feed to SKUs present in the cached shop
	// roster. Full catalog feeds carry far more products than the shop sells.
	RequiresRoster bool

	// PriceMarkup converts a B2B price into a retail price for price feeds.
	// Zero means the value column is used as-is.
	PriceMarkup decimal.Decimal
}

// FeedRecord is one normalized feed row. Value holds a stock quantity or a
// retail price in whole currency units, depending on the feed kind.
type FeedRecord struct {
	SKU   string `json:"sku"`
	Value int64  `json:"value"`

	// Cost carries the raw supplier price for price feeds (export column
	// "Variant Cost"). Empty for quantity feeds.
	Cost string `json:"cost,omitempty"`
}

// ResolvedUpdate is a feed record joined with its platform inventory item.
type ResolvedUpdate struct {
	SKU             string `json:"sku"`
	InventoryItemID string `json:"inventoryItemId"`
	Value           int64  `json:"value"`
}
