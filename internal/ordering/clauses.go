package ordering

import "fmt"

// ClauseSet holds the raw SQL fragments of a listing query that the adjuster
// rewrites: the JOIN tail and the ORDER BY body (without the "ORDER BY"
// keyword itself).
type ClauseSet struct {
	Join    string
	OrderBy string
}

// QueryContext describes the query the clause fragments belong to. It is
// passed explicitly instead of being read from ambient request state, and it
// carries the applied marker so a second adjustment of the same query is a
// no-op rather than a duplicated ordering term.
type QueryContext struct {
	// MainQuery is true for the primary listing query of a request, as
	// opposed to secondary lookups (widgets, recommendations, prefetches).
	MainQuery bool
	// Admin is true for administrative requests, which keep their own
	// ordering.
	Admin bool
	// ProductListing is true when the query targets the product catalog
	// listing page.
	ProductListing bool
	// ProductTaxonomy is true when the query targets a product category or
	// other product taxonomy page.
	ProductTaxonomy bool

	adjusted bool
}

// Adjusted reports whether the stock-status ordering has already been applied
// to this query.
func (q *QueryContext) Adjusted() bool {
	return q != nil && q.adjusted
}

// Applies reports whether the adjuster acts on the given query: only on main,
// non-administrative queries targeting the product listing or a product
// taxonomy, and only once per context.
func (a Adjuster) Applies(qctx *QueryContext) bool {
	if qctx == nil || qctx.adjusted {
		return false
	}
	return qctx.MainQuery && !qctx.Admin && (qctx.ProductListing || qctx.ProductTaxonomy)
}

// ListingClauses rewrites the listing clause fragments so in-stock products
// sort first. Non-qualifying contexts get the clauses back unchanged. When
// applied, it appends a LEFT JOIN against the attribute store aliased for
// stock status, prepends the stock ordering term to the ORDER BY fragment
// with the prior fragment preserved as the trailing tie-break, and marks the
// context adjusted.
func (a Adjuster) ListingClauses(clauses ClauseSet, qctx *QueryContext) ClauseSet {
	if !a.Applies(qctx) {
		return clauses
	}

	alias := a.alias()
	clauses.Join += fmt.Sprintf(" LEFT JOIN %s AS %s ON (%s.id = %s.product_id AND %s.name = '%s')",
		a.attributeTable(), alias, a.productTable(), alias, alias, a.attributeName())

	term := alias + ".value"
	if a.MissingAsOutOfStock {
		term = fmt.Sprintf("COALESCE(%s.value, '%s')", alias, StockValueOutOfStock)
	}
	if clauses.OrderBy == "" {
		clauses.OrderBy = term + " " + string(Asc)
	} else {
		clauses.OrderBy = term + " " + string(Asc) + ", " + clauses.OrderBy
	}

	qctx.adjusted = true
	return clauses
}
