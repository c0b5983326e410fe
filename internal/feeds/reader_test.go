package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feed-sync-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveBody(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
}

func TestFetch_PipeDelimitedQuantities(t *testing.T) {
	body := "name|stock|sku\n" +
		"Rug one|4|RUG-1\n" +
		"Rug two|0|RUG-2\n"
	server := serveBody(t, body)
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	records, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:        "test",
		URL:         server.URL,
		Delimiter:   '|',
		Kind:        models.FeedKindQuantity,
		SKUColumn:   2,
		ValueColumn: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, []models.FeedRecord{
		{SKU: "RUG-1", Value: 4},
		{SKU: "RUG-2", Value: 0},
	}, records)
}

func TestFetch_SemicolonDelimited(t *testing.T) {
	body := "sku;ean;quantity\nLAMP-1;590123;12\nLAMP-2;590124;3\n"
	server := serveBody(t, body)
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	records, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:        "test",
		URL:         server.URL,
		Delimiter:   ';',
		Kind:        models.FeedKindQuantity,
		SKUColumn:   0,
		ValueColumn: 2,
	})

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.FeedRecord{SKU: "LAMP-1", Value: 12}, records[0])
}

func TestFetch_MalformedQuantitiesCoerceToZero(t *testing.T) {
	body := "sku;ean;quantity\nA;1;n/a\nB;2;\nC;3;-4\nD;4;7\n"
	server := serveBody(t, body)
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	records, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:        "test",
		URL:         server.URL,
		Delimiter:   ';',
		Kind:        models.FeedKindQuantity,
		SKUColumn:   0,
		ValueColumn: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, []models.FeedRecord{
		{SKU: "A", Value: 0},
		{SKU: "B", Value: 0},
		{SKU: "C", Value: 0},
		{SKU: "D", Value: 7},
	}, records)
}

func TestFetch_SkipsEmptySKUsAndShortRows(t *testing.T) {
	body := "sku;ean;quantity\n;1;5\nshort;row\nA;2;5\n"
	server := serveBody(t, body)
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	records, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:        "test",
		URL:         server.URL,
		Delimiter:   ';',
		Kind:        models.FeedKindQuantity,
		SKUColumn:   0,
		ValueColumn: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, []models.FeedRecord{{SKU: "A", Value: 5}}, records)
}

func TestFetch_HeaderNamedColumns(t *testing.T) {
	body := "Title,SKU,B2B price,Stock\nChair,CH-1,10.00,5\nTable,TB-1,25.99,2\n"
	server := serveBody(t, body)
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	records, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:        "test",
		URL:         server.URL,
		Delimiter:   ',',
		Kind:        models.FeedKindQuantity,
		SKUHeader:   "SKU",
		ValueHeader: "Stock",
	})

	require.NoError(t, err)
	assert.Equal(t, []models.FeedRecord{
		{SKU: "CH-1", Value: 5},
		{SKU: "TB-1", Value: 2},
	}, records)
}

func TestFetch_PriceFeedAppliesRetailTransform(t *testing.T) {
	body := "SKU,B2B price\nCH-1,10.00\nTB-1,25.99\nBAD-1,n/a\n"
	server := serveBody(t, body)
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	records, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:        "test",
		URL:         server.URL,
		Delimiter:   ',',
		Kind:        models.FeedKindPrice,
		SKUHeader:   "SKU",
		ValueHeader: "B2B price",
		PriceMarkup: decimal.NewFromFloat(1.60),
	})

	require.NoError(t, err)
	// 10.00 * 1.60 = 16.00 -> next ten is 20 -> 19
	// 25.99 * 1.60 = 41.584 -> next ten is 50 -> 49
	assert.Equal(t, []models.FeedRecord{
		{SKU: "CH-1", Value: 19, Cost: "10.00"},
		{SKU: "TB-1", Value: 49, Cost: "25.99"},
		{SKU: "BAD-1", Value: 0, Cost: "n/a"},
	}, records)
}

func TestFetch_MissingNamedHeaderIsParseError(t *testing.T) {
	body := "Title,Code\nChair,CH-1\n"
	server := serveBody(t, body)
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	_, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:        "test",
		URL:         server.URL,
		Delimiter:   ',',
		Kind:        models.FeedKindQuantity,
		SKUHeader:   "SKU",
		ValueHeader: "Stock",
	})

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestFetch_EmptyBodyIsParseError(t *testing.T) {
	server := serveBody(t, "")
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	_, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:      "test",
		URL:       server.URL,
		Delimiter: ';',
		Kind:      models.FeedKindQuantity,
	})

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestFetch_HTTPErrorIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reader := NewReader(5*time.Second, nil)
	_, err := reader.Fetch(context.Background(), models.FeedSpec{
		Name:      "test",
		URL:       server.URL,
		Delimiter: ';',
		Kind:      models.FeedKindQuantity,
	})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}

func TestFetch_MissingURLFailsFast(t *testing.T) {
	reader := NewReader(5*time.Second, nil)
	_, err := reader.Fetch(context.Background(), models.FeedSpec{Name: "test"})
	assert.Error(t, err)
}

func TestRetailPrice(t *testing.T) {
	markup := decimal.NewFromFloat(1.60)

	tests := []struct {
		raw  string
		want int64
	}{
		{"10.00", 19},
		{"25.99", 49},
		{"0", 0}, // rounding 0 would yield -1, clamped to 0
		{"not-a-price", 0},
		{"", 0},
		{"6.25", 9}, // 10.00 exactly -> ceil to 10 -> 9
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetailPrice(tt.raw, markup), "raw=%q", tt.raw)
	}
}
