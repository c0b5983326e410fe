package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	token     string
	query     string
	variables map[string]interface{}
}

// newTestClient points a client at an httptest server and records what it sends.
func newTestClient(t *testing.T, responses []string) (*Client, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		captured = append(captured, capturedRequest{
			token:     r.Header.Get("X-Shopify-Access-Token"),
			query:     req.Query,
			variables: req.Variables,
		})

		index := len(captured) - 1
		require.Less(t, index, len(responses), "unexpected extra request")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(responses[index]))
	}))
	t.Cleanup(server.Close)

	client := NewClient("test.myshopify.com", "token-123", 1000, 5*time.Second, nil)
	client.endpoint = server.URL
	return client, &captured
}

func TestListLocations(t *testing.T) {
	client, captured := newTestClient(t, []string{
		`{"data":{"locations":{"edges":[
			{"node":{"id":"gid://shopify/Location/1","name":"Shop location"}},
			{"node":{"id":"gid://shopify/Location/2","name":"Warehouse"}}
		]}}}`,
	})

	locations, err := client.ListLocations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Location{
		{ID: "gid://shopify/Location/1", Name: "Shop location"},
		{ID: "gid://shopify/Location/2", Name: "Warehouse"},
	}, locations)
	assert.Equal(t, "token-123", (*captured)[0].token)
}

func TestVariantsBySKUFilter_FirstPageOmitsCursor(t *testing.T) {
	client, captured := newTestClient(t, []string{
		`{"data":{"productVariants":{
			"edges":[{"node":{"sku":"A-1","inventoryItem":{"id":"gid://shopify/InventoryItem/11"}}}],
			"pageInfo":{"hasNextPage":true,"endCursor":"cursor-1"}
		}}}`,
	})

	page, err := client.VariantsBySKUFilter(context.Background(), `sku:"A-1"`, 250, "")

	require.NoError(t, err)
	assert.Equal(t, []VariantHandle{{SKU: "A-1", InventoryItemID: "gid://shopify/InventoryItem/11"}}, page.Items)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "cursor-1", page.EndCursor)

	variables := (*captured)[0].variables
	assert.Equal(t, `sku:"A-1"`, variables["query"])
	assert.Equal(t, float64(250), variables["first"])
	_, hasAfter := variables["after"]
	assert.False(t, hasAfter, "first page must not send a cursor")
}

func TestVariantsBySKUFilter_CursorPassedAsVariable(t *testing.T) {
	client, captured := newTestClient(t, []string{
		`{"data":{"productVariants":{
			"edges":[],
			"pageInfo":{"hasNextPage":false,"endCursor":""}
		}}}`,
	})

	_, err := client.VariantsBySKUFilter(context.Background(), `sku:"A-1"`, 250, "cursor-1")

	require.NoError(t, err)
	assert.Equal(t, "cursor-1", (*captured)[0].variables["after"])
}

func TestVariantsBySKUFilter_SkipsVariantsWithoutInventoryItem(t *testing.T) {
	client, _ := newTestClient(t, []string{
		`{"data":{"productVariants":{
			"edges":[
				{"node":{"sku":"A-1","inventoryItem":{"id":"gid://shopify/InventoryItem/11"}}},
				{"node":{"sku":"","inventoryItem":{"id":"gid://shopify/InventoryItem/12"}}},
				{"node":{"sku":"B-2","inventoryItem":null}}
			],
			"pageInfo":{"hasNextPage":false,"endCursor":""}
		}}}`,
	})

	page, err := client.VariantsBySKUFilter(context.Background(), `sku:"A-1"`, 250, "")

	require.NoError(t, err)
	assert.Equal(t, []VariantHandle{{SKU: "A-1", InventoryItemID: "gid://shopify/InventoryItem/11"}}, page.Items)
}

func TestAllVariantSKUs_FollowsPagesAndDeduplicates(t *testing.T) {
	client, captured := newTestClient(t, []string{
		`{"data":{"productVariants":{
			"edges":[{"node":{"sku":"A-1"}},{"node":{"sku":" B-2 "}},{"node":{"sku":""}}],
			"pageInfo":{"hasNextPage":true,"endCursor":"page-1"}
		}}}`,
		`{"data":{"productVariants":{
			"edges":[{"node":{"sku":"A-1"}},{"node":{"sku":"C-3"}}],
			"pageInfo":{"hasNextPage":false,"endCursor":""}
		}}}`,
	})

	skus, err := client.AllVariantSKUs(context.Background(), 250)

	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "B-2", "C-3"}, skus)
	require.Len(t, *captured, 2)
	assert.Equal(t, "page-1", (*captured)[1].variables["after"])
}

func TestSetOnHandQuantities_ReturnsUserErrors(t *testing.T) {
	client, captured := newTestClient(t, []string{
		`{"data":{"inventorySetOnHandQuantities":{
			"userErrors":[{"field":["setQuantities","0"],"message":"Invalid quantity"}]
		}}}`,
	})

	userErrors, err := client.SetOnHandQuantities(context.Background(), "correction", []QuantityInput{
		{InventoryItemID: "gid://shopify/InventoryItem/11", LocationID: "gid://shopify/Location/1", Quantity: 5},
	})

	require.NoError(t, err)
	require.Len(t, userErrors, 1)
	assert.Equal(t, "Invalid quantity", userErrors[0].Message)

	input := (*captured)[0].variables["input"].(map[string]interface{})
	assert.Equal(t, "correction", input["reason"])
}

func TestSetOnHandQuantities_CleanMutation(t *testing.T) {
	client, _ := newTestClient(t, []string{
		`{"data":{"inventorySetOnHandQuantities":{"userErrors":[]}}}`,
	})

	userErrors, err := client.SetOnHandQuantities(context.Background(), "correction", []QuantityInput{
		{InventoryItemID: "gid://shopify/InventoryItem/11", LocationID: "gid://shopify/Location/1", Quantity: 5},
	})

	require.NoError(t, err)
	assert.Empty(t, userErrors)
}

func TestExecute_GraphQLErrorsSurface(t *testing.T) {
	client, _ := newTestClient(t, []string{
		`{"errors":[{"message":"Throttled"},{"message":"Field not found"}]}`,
	})

	_, err := client.ListLocations(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Throttled")
	assert.Contains(t, err.Error(), "Field not found")
}

func TestExecute_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":"Invalid API key"}`))
	}))
	defer server.Close()

	client := NewClient("test.myshopify.com", "bad-token", 1000, 5*time.Second, nil)
	client.endpoint = server.URL

	_, err := client.ListLocations(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
