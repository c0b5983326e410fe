package feeds

import (
	"errors"
	"fmt"
	"sort"

	"feed-sync-service/internal/config"
	"feed-sync-service/internal/models"
)

// ErrUnknownFeed is returned by Lookup for a feed name not in the spec set
var ErrUnknownFeed = errors.New("unknown feed")

// BuiltinSpecs returns the supplier feeds this service knows how to sync,
// keyed by feed name. URLs come from configuration; a feed with no URL is
// still listed but fails fast when a run is requested for it.
func BuiltinSpecs(cfg *config.Config) map[string]models.FeedSpec {
	return map[string]models.FeedSpec{
		// Pipe-delimited B2B export. SKU is column 15, stock column 7.
		"benuta": {
			Name:        "benuta",
			URL:         cfg.BenutaFeedURL,
			Delimiter:   '|',
			Kind:        models.FeedKindQuantity,
			SKUColumn:   14,
			ValueColumn: 6,
		},
		// Semicolon-delimited availability export: sku;ean;quantity.
		"sollux": {
			Name:        "sollux",
			URL:         cfg.SolluxFeedURL,
			Delimiter:   ';',
			Kind:        models.FeedKindQuantity,
			SKUColumn:   0,
			ValueColumn: 2,
		},
		// Full dropshipping catalog, comma-delimited with named columns.
		// Far larger than the shop's assortment, so both feeds are
		// filtered against the cached shop roster.
		"vidaxl-inventory": {
			Name:           "vidaxl-inventory",
			URL:            cfg.VidaXLFeedURL,
			Delimiter:      ',',
			Kind:           models.FeedKindQuantity,
			SKUHeader:      "SKU",
			ValueHeader:    "Stock",
			RequiresRoster: true,
		},
		"vidaxl-prices": {
			Name:           "vidaxl-prices",
			URL:            cfg.VidaXLFeedURL,
			Delimiter:      ',',
			Kind:           models.FeedKindPrice,
			SKUHeader:      "SKU",
			ValueHeader:    "B2B price",
			RequiresRoster: true,
			PriceMarkup:    cfg.PriceMarkup,
		},
	}
}

// Names returns the sorted feed names of a spec set
func Names(specs map[string]models.FeedSpec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the spec for a feed name or an error naming the known feeds
func Lookup(specs map[string]models.FeedSpec, name string) (models.FeedSpec, error) {
	spec, ok := specs[name]
	if !ok {
		return models.FeedSpec{}, fmt.Errorf("%w %q (known feeds: %v)", ErrUnknownFeed, name, Names(specs))
	}
	return spec, nil
}
