package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const apiVersion = "2024-01"

// Client is a Shopify Admin GraphQL API client
type Client struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
	rateLimiter *rate.Limiter
	logger      *logrus.Entry
}

// NewClient creates a new Shopify Admin API client. storeURL is the store
// host, e.g. example.myshopify.com.
func NewClient(storeURL, accessToken string, requestsPerSecond int, timeout time.Duration, logger *logrus.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    fmt.Sprintf("https://%s/admin/api/%s/graphql.json", storeURL, apiVersion),
		accessToken: accessToken,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:      log.WithField("component", "shopify-client"),
	}
}

// Location is a Shopify inventory location
type Location struct {
	ID   string
	Name string
}

// VariantHandle pairs a SKU with the opaque inventory item it belongs to.
type VariantHandle struct {
	SKU             string
	InventoryItemID string
}

// VariantPage is one page of a cursor-paginated variant query
type VariantPage struct {
	Items       []VariantHandle
	HasNextPage bool
	EndCursor   string
}

// QuantityInput is one entry of an inventorySetOnHandQuantities mutation
type QuantityInput struct {
	InventoryItemID string `json:"inventoryItemId"`
	LocationID      string `json:"locationId"`
	Quantity        int64  `json:"quantity"`
}

// UserError is an item-level validation error returned by a mutation
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

const locationsQuery = `
query {
  locations(first: 10) {
    edges {
      node {
        id
        name
      }
    }
  }
}`

const variantsBySKUQuery = `
query variantsBySKU($query: String!, $first: Int!, $after: String) {
  productVariants(first: $first, after: $after, query: $query) {
    edges {
      node {
        sku
        inventoryItem {
          id
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

const allVariantSKUsQuery = `
query allVariantSKUs($first: Int!, $after: String) {
  productVariants(first: $first, after: $after) {
    edges {
      node {
        sku
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

const setOnHandQuantitiesMutation = `
mutation inventorySetOnHandQuantities($input: InventorySetOnHandQuantitiesInput!) {
  inventorySetOnHandQuantities(input: $input) {
    userErrors {
      field
      message
    }
    inventoryAdjustmentGroup {
      createdAt
      reason
    }
  }
}`

// ListLocations returns the shop's inventory locations
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var data struct {
		Locations struct {
			Edges []struct {
				Node struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"locations"`
	}
	if err := c.execute(ctx, locationsQuery, nil, &data); err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(data.Locations.Edges))
	for _, edge := range data.Locations.Edges {
		locations = append(locations, Location{ID: edge.Node.ID, Name: edge.Node.Name})
	}
	return locations, nil
}

// VariantsBySKUFilter fetches one page of variants matching the given SKU
// filter. The cursor is the endCursor of the previous page, empty for the
// first page.
func (c *Client) VariantsBySKUFilter(ctx context.Context, filter string, pageSize int, cursor string) (*VariantPage, error) {
	variables := map[string]interface{}{
		"query": filter,
		"first": pageSize,
	}
	if cursor != "" {
		variables["after"] = cursor
	}

	var data struct {
		ProductVariants variantConnection `json:"productVariants"`
	}
	if err := c.execute(ctx, variantsBySKUQuery, variables, &data); err != nil {
		return nil, err
	}
	return data.ProductVariants.toPage(), nil
}

// AllVariantSKUs iterates every variant in the shop and returns the set of
// non-empty SKUs. Used to refresh the shop roster cache.
func (c *Client) AllVariantSKUs(ctx context.Context, pageSize int) ([]string, error) {
	seen := make(map[string]struct{})
	var skus []string
	cursor := ""

	for {
		variables := map[string]interface{}{"first": pageSize}
		if cursor != "" {
			variables["after"] = cursor
		}

		var data struct {
			ProductVariants variantConnection `json:"productVariants"`
		}
		if err := c.execute(ctx, allVariantSKUsQuery, variables, &data); err != nil {
			return nil, err
		}

		for _, edge := range data.ProductVariants.Edges {
			sku := strings.TrimSpace(edge.Node.SKU)
			if sku == "" {
				continue
			}
			if _, ok := seen[sku]; ok {
				continue
			}
			seen[sku] = struct{}{}
			skus = append(skus, sku)
		}

		if !data.ProductVariants.PageInfo.HasNextPage {
			return skus, nil
		}
		cursor = data.ProductVariants.PageInfo.EndCursor
	}
}

// SetOnHandQuantities issues one inventorySetOnHandQuantities mutation for
// the given quantities. A non-nil error means the call itself failed; a
// non-empty UserError slice means the platform rejected items in the batch.
func (c *Client) SetOnHandQuantities(ctx context.Context, reason string, quantities []QuantityInput) ([]UserError, error) {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"reason":        reason,
			"setQuantities": quantities,
		},
	}

	var data struct {
		InventorySetOnHandQuantities struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"inventorySetOnHandQuantities"`
	}
	if err := c.execute(ctx, setOnHandQuantitiesMutation, variables, &data); err != nil {
		return nil, err
	}
	return data.InventorySetOnHandQuantities.UserErrors, nil
}

type variantConnection struct {
	Edges []struct {
		Node struct {
			SKU           string `json:"sku"`
			InventoryItem *struct {
				ID string `json:"id"`
			} `json:"inventoryItem"`
		} `json:"node"`
	} `json:"edges"`
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
}

func (conn variantConnection) toPage() *VariantPage {
	page := &VariantPage{
		HasNextPage: conn.PageInfo.HasNextPage,
		EndCursor:   conn.PageInfo.EndCursor,
	}
	for _, edge := range conn.Edges {
		if edge.Node.SKU == "" || edge.Node.InventoryItem == nil {
			continue
		}
		page.Items = append(page.Items, VariantHandle{
			SKU:             edge.Node.SKU,
			InventoryItemID: edge.Node.InventoryItem.ID,
		})
	}
	return page
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// execute performs one GraphQL request and unmarshals the data payload into out
func (c *Client) execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Shopify API error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse GraphQL response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("GraphQL errors: %s", strings.Join(messages, "; "))
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to parse GraphQL data: %w", err)
		}
	}
	return nil
}
