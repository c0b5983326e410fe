package shopify

import "strings"

// SKUQuery is a disjunctive variant search filter over a set of SKUs. The
// clauses are collected structurally and serialized once, so SKU escaping
// lives in one place instead of inline string formatting at call sites.
type SKUQuery struct {
	clauses []string
}

// NewSKUQuery builds a filter matching any of the given SKUs
func NewSKUQuery(skus []string) SKUQuery {
	q := SKUQuery{clauses: make([]string, 0, len(skus))}
	for _, sku := range skus {
		q.clauses = append(q.clauses, `sku:"`+escapeSKU(sku)+`"`)
	}
	return q
}

// Len returns the number of clauses in the filter
func (q SKUQuery) Len() int {
	return len(q.clauses)
}

// String serializes the filter into Shopify's search syntax
func (q SKUQuery) String() string {
	return strings.Join(q.clauses, " OR ")
}

// escapeSKU escapes characters that would terminate or corrupt a quoted
// search clause
func escapeSKU(sku string) string {
	sku = strings.ReplaceAll(sku, `\`, `\\`)
	sku = strings.ReplaceAll(sku, `"`, `\"`)
	return sku
}
