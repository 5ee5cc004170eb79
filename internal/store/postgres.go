package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"

	"github.com/saeedalimadadi/out-of-stock-last/internal/domain"
	"github.com/saeedalimadadi/out-of-stock-last/internal/ordering"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound   = errors.New("store: category not found")
	ErrCategoryNameExists = errors.New("store: category name already exists")
	ErrProductNotFound    = errors.New("store: product not found")
	ErrProductSKUExists   = errors.New("store: product SKU already exists")
	ErrAttributeNotFound  = errors.New("store: product attribute not found")
	ErrInsufficientStock  = errors.New("store: insufficient stock or update constraint violation")
	ErrUpdateFailed       = errors.New("store: update failed, 0 rows affected")
)

// PostgresStore implements the CategoryStorer, ProductStorer and
// AttributeStorer interfaces using PostgreSQL. Listing queries are routed
// through the stock-first ordering adjuster so storefront and taxonomy pages
// return in-stock products before out-of-stock ones.
type PostgresStore struct {
	db        *sql.DB
	adjuster  ordering.Adjuster
	stockSort bool
}

// NewPostgresStore creates a new PostgresStore instance. The adjuster
// configures the stock-status join; stockSort disables the in-stock-first
// reordering entirely when false (the listing then keeps its plain ordering).
func NewPostgresStore(db *sql.DB, adjuster ordering.Adjuster, stockSort bool) *PostgresStore {
	// The adjuster's fragments must reference the tables this store queries.
	if adjuster.AttributeTable == "" {
		adjuster.AttributeTable = "catalog.product_attributes"
	}
	if adjuster.ProductTable == "" {
		adjuster.ProductTable = "catalog.products"
	}
	adjuster.MissingAsOutOfStock = true
	return &PostgresStore{db: db, adjuster: adjuster, stockSort: stockSort}
}

func (s *PostgresStore) stockAttribute() string {
	if s.adjuster.AttributeName != "" {
		return s.adjuster.AttributeName
	}
	return ordering.DefaultStockAttribute
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO catalog.categories (name, description, parent_category_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, parent_category_id, created_at, updated_at;
	`
	row := s.db.QueryRowContext(ctx, query, category.Name, category.Description, category.ParentCategoryID)

	var createdCategory domain.Category
	err := row.Scan(
		&createdCategory.ID,
		&createdCategory.Name,
		&createdCategory.Description,
		&createdCategory.ParentCategoryID,
		&createdCategory.CreatedAt,
		&createdCategory.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation
			if strings.Contains(pqErr.Constraint, "categories_name_key") || strings.Contains(pqErr.Detail, "Key (name)") {
				return nil, ErrCategoryNameExists
			}
		}
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return &createdCategory, nil
}

// ListCategories retrieves a paginated list of categories. Categories carry
// no stock attribute, so the listing keeps its plain name ordering.
func (s *PostgresStore) ListCategories(ctx context.Context, params ListCategoriesParams) ([]domain.Category, int, error) {
	countQuery := `SELECT COUNT(*) FROM catalog.categories;`
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories failed to count categories: %w", err)
	}

	if totalCount == 0 {
		return []domain.Category{}, 0, nil
	}

	query := `
		SELECT id, name, description, parent_category_id, created_at, updated_at
		FROM catalog.categories
		ORDER BY name ASC
		LIMIT $1 OFFSET $2;
	`
	rows, err := s.db.QueryContext(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, params.Limit)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ParentCategoryID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}

	return categories, totalCount, nil
}

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name, description, parent_category_id, created_at, updated_at
		FROM catalog.categories
		WHERE id = $1;
	`
	var category domain.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.ParentCategoryID,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}
	return &category, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE catalog.categories
		SET name = $1, description = $2, parent_category_id = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING id, name, description, parent_category_id, created_at, updated_at;
	`
	var updatedCategory domain.Category
	err := s.db.QueryRowContext(ctx, query, category.Name, category.Description, category.ParentCategoryID, category.ID).Scan(
		&updatedCategory.ID,
		&updatedCategory.Name,
		&updatedCategory.Description,
		&updatedCategory.ParentCategoryID,
		&updatedCategory.CreatedAt,
		&updatedCategory.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "categories_name_key") || strings.Contains(pqErr.Detail, "Key (name)") {
				return nil, ErrCategoryNameExists
			}
		}
		return nil, fmt.Errorf("store: UpdateCategory failed to scan row: %w", err)
	}
	return &updatedCategory, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	query := `DELETE FROM catalog.categories WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// --- ProductStorer Implementation ---

// productColumns is the select list for product reads. Columns are qualified
// because listing queries may join the attribute store, whose "name" column
// would otherwise be ambiguous. stock_status is resolved from the attribute
// store, with missing entries reported as out of stock.
func (s *PostgresStore) productColumns() string {
	return fmt.Sprintf(`catalog.products.id, catalog.products.name, catalog.products.description, catalog.products.sku, catalog.products.price, catalog.products.stock_quantity, catalog.products.category_id, catalog.products.image_url, catalog.products.is_active, catalog.products.sort_order, COALESCE((SELECT value FROM catalog.product_attributes WHERE product_id = catalog.products.id AND name = '%s'), '%s') AS stock_status, catalog.products.created_at, catalog.products.updated_at`,
		s.stockAttribute(), ordering.StockValueOutOfStock)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.SKU, &p.Price, &p.StockQuantity,
		&p.CategoryID, &p.ImageURL, &p.IsActive, &p.SortOrder, &p.StockStatus,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// upsertStockStatus writes the derived stock status into the attribute store
// inside the same transaction as the product mutation.
func upsertStockStatus(ctx context.Context, tx *sql.Tx, productID int64, attribute string, status domain.StockStatus) error {
	query := `
		INSERT INTO catalog.product_attributes (product_id, name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, name) DO UPDATE SET value = EXCLUDED.value;
	`
	if _, err := tx.ExecContext(ctx, query, productID, attribute, string(status)); err != nil {
		return fmt.Errorf("store: failed to upsert stock status attribute: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO catalog.products
			(name, description, sku, price, stock_quantity, category_id, image_url, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, description, sku, price, stock_quantity, category_id, image_url, is_active, sort_order, created_at, updated_at;
	`
	var createdProduct domain.Product
	err = tx.QueryRowContext(ctx, query,
		product.Name, product.Description, product.SKU, product.Price, product.StockQuantity,
		product.CategoryID, product.ImageURL, product.IsActive, product.SortOrder,
	).Scan(
		&createdProduct.ID, &createdProduct.Name, &createdProduct.Description, &createdProduct.SKU,
		&createdProduct.Price, &createdProduct.StockQuantity, &createdProduct.CategoryID, &createdProduct.ImageURL,
		&createdProduct.IsActive, &createdProduct.SortOrder,
		&createdProduct.CreatedAt, &createdProduct.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation
			if strings.Contains(pqErr.Constraint, "products_sku_key") || strings.Contains(pqErr.Detail, "Key (sku)") {
				return nil, ErrProductSKUExists
			}
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}

	createdProduct.StockStatus = domain.StockStatusForQuantity(createdProduct.StockQuantity)
	if err := upsertStockStatus(ctx, tx, createdProduct.ID, s.stockAttribute(), createdProduct.StockStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to commit transaction: %w", err)
	}
	return &createdProduct, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) {
	var queryArgs []interface{}
	var whereClauses []string
	argID := 1

	if params.SearchQuery != nil && *params.SearchQuery != "" {
		// Search in name OR description
		whereClauses = append(whereClauses, fmt.Sprintf("(catalog.products.name ILIKE $%d OR catalog.products.description ILIKE $%d)", argID, argID+1))
		searchTerm := "%" + *params.SearchQuery + "%"
		queryArgs = append(queryArgs, searchTerm, searchTerm)
		argID += 2
	}
	if params.CategoryID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("catalog.products.category_id = $%d", argID))
		queryArgs = append(queryArgs, *params.CategoryID)
		argID++
	}
	if params.MinPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("catalog.products.price >= $%d", argID))
		queryArgs = append(queryArgs, *params.MinPrice)
		argID++
	}
	if params.MaxPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("catalog.products.price <= $%d", argID))
		queryArgs = append(queryArgs, *params.MaxPrice)
		argID++
	}
	if params.IsActive != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("catalog.products.is_active = $%d", argID))
		queryArgs = append(queryArgs, *params.IsActive)
		argID++
	}
	if len(params.ProductIDs) > 0 {
		placeholders := make([]string, len(params.ProductIDs))
		for i, pid := range params.ProductIDs {
			placeholders[i] = fmt.Sprintf("$%d", argID+i)
			queryArgs = append(queryArgs, pid)
		}
		whereClauses = append(whereClauses, fmt.Sprintf("catalog.products.id IN (%s)", strings.Join(placeholders, ",")))
		argID += len(params.ProductIDs)
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM catalog.products" + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to count products: %w", err)
	}

	if totalCount == 0 {
		return []domain.Product{}, 0, nil
	}

	clauses := ordering.ClauseSet{OrderBy: s.baseOrderFragment(params)}
	if s.stockSort {
		// Qualifying storefront/taxonomy listings get the stock-status join
		// and the in-stock-first ordering term prepended here; admin and
		// secondary queries pass through unchanged.
		clauses = s.adjuster.ListingClauses(clauses, params.Listing)
	}

	dataQuery := fmt.Sprintf("SELECT %s FROM catalog.products%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		s.productColumns(), clauses.Join, whereCondition, clauses.OrderBy, argID, argID+1)

	finalQueryArgs := append(queryArgs, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, dataQuery, finalQueryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}

	return products, totalCount, nil
}

// baseOrderFragment builds the ORDER BY body before stock adjustment. An
// explicit whitelisted sort request is honored as-is; otherwise the default
// catalog ordering args supply date descending and manual order ascending.
// The attribute-value term of the default args is realized by ListingClauses,
// which owns the query gating; translating it here as well would prepend the
// stock term twice.
func (s *PostgresStore) baseOrderFragment(params ListProductsParams) string {
	allowedSortColumns := map[string]string{
		"name":       "catalog.products.name",
		"price":      "catalog.products.price",
		"created_at": "catalog.products.created_at",
		"updated_at": "catalog.products.updated_at",
		"sort_order": "catalog.products.sort_order",
	}

	if col, ok := allowedSortColumns[strings.ToLower(params.SortBy)]; ok {
		sortOrder := "ASC"
		if strings.ToUpper(params.SortOrder) == "DESC" {
			sortOrder = "DESC"
		}
		return col + " " + sortOrder
	}

	args := s.adjuster.CatalogOrderingArgs(ordering.OrderingArgs{})
	parts := make([]string, 0, len(args.OrderBy))
	for _, key := range args.OrderBy {
		var col string
		switch key.Field {
		case ordering.FieldAttributeValue:
			continue // contributed by ListingClauses on qualifying queries
		case ordering.FieldDate:
			col = "catalog.products.created_at"
		case ordering.FieldManualOrder:
			col = "catalog.products.sort_order"
		default:
			continue
		}
		dir := ordering.Asc
		if key.Direction == ordering.Desc {
			dir = ordering.Desc
		}
		parts = append(parts, col+" "+string(dir))
	}
	if len(parts) == 0 {
		return "catalog.products.created_at DESC"
	}
	return strings.Join(parts, ", ")
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM catalog.products WHERE catalog.products.id = $1;`, s.productColumns())
	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateProduct failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE catalog.products
		SET name = $1, description = $2, sku = $3, price = $4, stock_quantity = $5,
			category_id = $6, image_url = $7, is_active = $8, sort_order = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $10
		RETURNING id, name, description, sku, price, stock_quantity, category_id, image_url, is_active, sort_order, created_at, updated_at;
	`
	var updatedProduct domain.Product
	err = tx.QueryRowContext(ctx, query,
		product.Name, product.Description, product.SKU, product.Price, product.StockQuantity,
		product.CategoryID, product.ImageURL, product.IsActive, product.SortOrder, product.ID,
	).Scan(
		&updatedProduct.ID, &updatedProduct.Name, &updatedProduct.Description, &updatedProduct.SKU,
		&updatedProduct.Price, &updatedProduct.StockQuantity, &updatedProduct.CategoryID, &updatedProduct.ImageURL,
		&updatedProduct.IsActive, &updatedProduct.SortOrder,
		&updatedProduct.CreatedAt, &updatedProduct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation on SKU, for example
			if strings.Contains(pqErr.Constraint, "products_sku_key") || strings.Contains(pqErr.Detail, "Key (sku)") {
				return nil, ErrProductSKUExists
			}
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}

	updatedProduct.StockStatus = domain.StockStatusForQuantity(updatedProduct.StockQuantity)
	if err := upsertStockStatus(ctx, tx, updatedProduct.ID, s.stockAttribute(), updatedProduct.StockStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: UpdateProduct failed to commit transaction: %w", err)
	}
	return &updatedProduct, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	// Attribute rows are removed by the ON DELETE CASCADE on product_attributes.
	query := `DELETE FROM catalog.products WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateStock(ctx context.Context, productID int64, quantityChange int32) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateStock failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The "AND stock_quantity + $1 >= 0" clause acts as a precondition: if it
	// fails (product missing, or stock would go negative), ErrNoRows comes back.
	query := `
		UPDATE catalog.products
		SET stock_quantity = stock_quantity + $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND stock_quantity + $1 >= 0
		RETURNING id, name, description, sku, price, stock_quantity, category_id, image_url, is_active, sort_order, created_at, updated_at;
	`
	var updatedProduct domain.Product
	err = tx.QueryRowContext(ctx, query, quantityChange, productID).Scan(
		&updatedProduct.ID, &updatedProduct.Name, &updatedProduct.Description, &updatedProduct.SKU,
		&updatedProduct.Price, &updatedProduct.StockQuantity, &updatedProduct.CategoryID, &updatedProduct.ImageURL,
		&updatedProduct.IsActive, &updatedProduct.SortOrder,
		&updatedProduct.CreatedAt, &updatedProduct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing product from a failed stock precondition.
			var exists bool
			checkExistenceQuery := "SELECT EXISTS(SELECT 1 FROM catalog.products WHERE id = $1)"
			tx.QueryRowContext(ctx, checkExistenceQuery, productID).Scan(&exists)
			if !exists {
				return nil, ErrProductNotFound
			}
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("store: UpdateStock failed to scan row: %w", err)
	}

	updatedProduct.StockStatus = domain.StockStatusForQuantity(updatedProduct.StockQuantity)
	if err := upsertStockStatus(ctx, tx, updatedProduct.ID, s.stockAttribute(), updatedProduct.StockStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: UpdateStock failed to commit transaction: %w", err)
	}
	return &updatedProduct, nil
}

func (s *PostgresStore) GetRecentProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 { // Basic validation for limit
		return []domain.Product{}, nil
	}
	// A secondary query by definition, so no stock reordering here.
	query := fmt.Sprintf(`SELECT %s FROM catalog.products WHERE catalog.products.is_active = TRUE ORDER BY catalog.products.created_at DESC LIMIT $1;`, s.productColumns())
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: GetRecentProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: GetRecentProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: GetRecentProducts iteration error: %w", err)
	}
	return products, nil
}

// --- AttributeStorer Implementation ---

func (s *PostgresStore) GetProductAttribute(ctx context.Context, productID int64, name string) (string, error) {
	query := `SELECT value FROM catalog.product_attributes WHERE product_id = $1 AND name = $2;`
	var value string
	err := s.db.QueryRowContext(ctx, query, productID, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrAttributeNotFound
		}
		return "", fmt.Errorf("store: GetProductAttribute failed to scan row: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) SetProductAttribute(ctx context.Context, productID int64, name, value string) error {
	query := `
		INSERT INTO catalog.product_attributes (product_id, name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, name) DO UPDATE SET value = EXCLUDED.value;
	`
	_, err := s.db.ExecContext(ctx, query, productID, name, value)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // FK violation: product missing
			return ErrProductNotFound
		}
		return fmt.Errorf("store: SetProductAttribute failed to execute upsert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
		return nil
	}
	return nil
}
