// Package ordering implements the in-stock-first listing sort adjustment.
// It adjusts catalog ordering arguments at construction time and rewrites
// listing SQL clause fragments so that in-stock products sort before
// out-of-stock ones, keeping whatever ordering was already requested as the
// trailing tie-break.
package ordering

// Direction is a SQL sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort fields understood by the catalog ordering arguments.
// FieldAttributeValue is the sentinel meaning "order by the value of the
// attribute named in OrderingArgs.MetaKey".
const (
	FieldAttributeValue = "attribute_value"
	FieldDate           = "date"
	FieldManualOrder    = "menu_order"
)

// DefaultStockAttribute is the attribute store key holding a product's
// stock status.
const DefaultStockAttribute = "stock_status"

// Stock status attribute values. These are opaque sortable strings: the
// in-stock-first ordering relies on "instock" < "outofstock"
// lexicographically, not on any semantic enum ordering.
const (
	StockValueInStock    = "instock"
	StockValueOutOfStock = "outofstock"
)

// SortKey is a single ordering term.
type SortKey struct {
	Field     string
	Direction Direction
}

// OrderingArgs are the catalog ordering arguments built for a listing query.
// An empty OrderBy, or one consisting of the single default manual-order key,
// means the caller did not request an explicit non-default ordering.
type OrderingArgs struct {
	OrderBy []SortKey
	MetaKey string
}

// Adjuster injects the stock-status ordering key into listing queries.
// The zero value is usable; empty fields fall back to defaults.
type Adjuster struct {
	// AttributeTable is the key-value attribute store joined for stock
	// status. Defaults to "catalog.product_attributes".
	AttributeTable string
	// ProductTable is the listing's base table, referenced in the join
	// condition. Defaults to "catalog.products".
	ProductTable string
	// Alias names the joined attribute table in SQL fragments.
	// Defaults to "stock_attr".
	Alias string
	// AttributeName is the attribute store key to join on.
	// Defaults to DefaultStockAttribute.
	AttributeName string
	// MissingAsOutOfStock replaces the plain "<alias>.value" ordering term
	// with COALESCE(<alias>.value, 'outofstock'), so products lacking a
	// stock-status attribute sort deterministically with out-of-stock
	// products instead of wherever the SQL engine puts NULLs.
	MissingAsOutOfStock bool
}

func (a Adjuster) attributeTable() string {
	if a.AttributeTable != "" {
		return a.AttributeTable
	}
	return "catalog.product_attributes"
}

func (a Adjuster) productTable() string {
	if a.ProductTable != "" {
		return a.ProductTable
	}
	return "catalog.products"
}

func (a Adjuster) alias() string {
	if a.Alias != "" {
		return a.Alias
	}
	return "stock_attr"
}

func (a Adjuster) attributeName() string {
	if a.AttributeName != "" {
		return a.AttributeName
	}
	return DefaultStockAttribute
}

// CatalogOrderingArgs sets the default catalog ordering to stock status
// ascending, then date descending, then manual order ascending, and names
// the stock-status attribute as the meta key. Arguments carrying an explicit
// non-default ordering, including ones already ordered by the attribute-value
// sentinel, are returned untouched.
func (a Adjuster) CatalogOrderingArgs(args OrderingArgs) OrderingArgs {
	if !isDefaultOrdering(args.OrderBy) {
		return args
	}
	args.OrderBy = []SortKey{
		{Field: FieldAttributeValue, Direction: Asc},
		{Field: FieldDate, Direction: Desc},
		{Field: FieldManualOrder, Direction: Asc},
	}
	args.MetaKey = a.attributeName()
	return args
}

func isDefaultOrdering(keys []SortKey) bool {
	switch len(keys) {
	case 0:
		return true
	case 1:
		k := keys[0]
		return k.Field == FieldManualOrder && (k.Direction == "" || k.Direction == Asc)
	default:
		return false
	}
}
