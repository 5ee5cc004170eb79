package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/saeedalimadadi/out-of-stock-last/internal/domain"
	"github.com/saeedalimadadi/out-of-stock-last/internal/ordering"
	"github.com/saeedalimadadi/out-of-stock-last/internal/store"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categoryStore  store.CategoryStorer
	productStore   store.ProductStorer
	attributeStore store.AttributeStorer
	validate       *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(cs store.CategoryStorer, ps store.ProductStorer, as store.AttributeStorer) *HTTPHandler {
	return &HTTPHandler{
		categoryStore:  cs,
		productStore:   ps,
		attributeStore: as,
		validate:       validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
			// Fallback, as headers might have been written
			http.Error(w, `{"error": "Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

// paginationInfo matches the pagination envelope of list responses.
type paginationInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func buildPagination(page, limit, totalCount int) paginationInfo {
	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + limit - 1) / limit
	}
	return paginationInfo{Page: page, Limit: limit, TotalItems: totalCount, TotalPages: totalPages}
}

// --- Category Handlers ---

// CategoryCreateInput defines the expected input for creating a category.
type CategoryCreateInput struct {
	Name             string  `json:"name" validate:"required,max=255"` // Max length from DB schema
	Description      *string `json:"description" validate:"omitempty"` // No specific max, TEXT in DB
	ParentCategoryID *int64  `json:"parent_category_id" validate:"omitempty,gt=0"`
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	category := &domain.Category{
		Name:             input.Name,
		Description:      input.Description,
		ParentCategoryID: input.ParentCategoryID,
	}

	createdCategory, err := h.categoryStore.CreateCategory(r.Context(), category)
	if err != nil {
		log.Printf("ERROR: CreateCategory store operation failed: %v", err)
		if errors.Is(err, store.ErrCategoryNameExists) {
			respondWithError(w, http.StatusConflict, store.ErrCategoryNameExists.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to create category")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, createdCategory)
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, 10, 100)
	offset := (page - 1) * limit

	params := store.ListCategoriesParams{
		Limit:  limit,
		Offset: offset,
	}

	categories, totalCount, err := h.categoryStore.ListCategories(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListCategories store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}

	response := struct {
		Data       []domain.Category `json:"data"`
		Pagination paginationInfo    `json:"pagination"`
	}{
		Data:       categories,
		Pagination: buildPagination(page, limit, totalCount),
	}

	respondWithJSON(w, http.StatusOK, response)
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "categoryId")
	categoryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || categoryID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categoryStore.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		log.Printf("ERROR: GetCategoryByID store operation for ID %d failed: %v", categoryID, err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, category)
}

// CategoryUpdateInput defines the expected input for updating a category.
type CategoryUpdateInput struct {
	Name             string  `json:"name" validate:"required,max=255"`
	Description      *string `json:"description" validate:"omitempty"`
	ParentCategoryID *int64  `json:"parent_category_id" validate:"omitempty,gt=0"`
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "categoryId")
	categoryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || categoryID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var input CategoryUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	// Business rule: A category cannot be its own parent.
	if input.ParentCategoryID != nil && *input.ParentCategoryID == categoryID {
		respondWithError(w, http.StatusBadRequest, "Category cannot be its own parent")
		return
	}

	category := &domain.Category{
		ID:               categoryID,
		Name:             input.Name,
		Description:      input.Description,
		ParentCategoryID: input.ParentCategoryID,
	}

	updatedCategory, err := h.categoryStore.UpdateCategory(r.Context(), category)
	if err != nil {
		log.Printf("ERROR: UpdateCategory store operation for ID %d failed: %v", categoryID, err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		} else if errors.Is(err, store.ErrCategoryNameExists) {
			respondWithError(w, http.StatusConflict, store.ErrCategoryNameExists.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update category")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updatedCategory)
}

func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "categoryId")
	categoryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || categoryID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	err = h.categoryStore.DeleteCategory(r.Context(), categoryID)
	if err != nil {
		log.Printf("ERROR: DeleteCategory store operation for ID %d failed: %v", categoryID, err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		}
		return
	}

	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Product Handlers ---

// ProductCreateInput defines the expected input for creating a product.
type ProductCreateInput struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Description   *string `json:"description" validate:"omitempty"`
	SKU           string  `json:"sku" validate:"required,max=100"` // Max length from DB
	Price         float64 `json:"price" validate:"required,gte=0"`
	StockQuantity int32   `json:"stock_quantity" validate:"gte=0"`
	CategoryID    *int64  `json:"category_id" validate:"omitempty,gt=0"`
	ImageURL      *string `json:"image_url" validate:"omitempty,url,max=2048"`
	IsActive      *bool   `json:"is_active"` // Pointer to distinguish between not set and false
	SortOrder     int32   `json:"sort_order" validate:"gte=0"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	isActive := true // Default to true if not provided
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	product := &domain.Product{
		Name:          input.Name,
		Description:   input.Description,
		SKU:           input.SKU,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CategoryID:    input.CategoryID,
		ImageURL:      input.ImageURL,
		IsActive:      isActive,
		SortOrder:     input.SortOrder,
	}

	createdProduct, err := h.productStore.CreateProduct(r.Context(), product)
	if err != nil {
		log.Printf("ERROR: CreateProduct store operation failed: %v", err)
		if errors.Is(err, store.ErrProductSKUExists) {
			respondWithError(w, http.StatusConflict, store.ErrProductSKUExists.Error())
		} else if errors.Is(err, store.ErrCategoryNotFound) { // If category_id FK fails
			respondWithError(w, http.StatusBadRequest, "Invalid category_id: category does not exist.")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, createdProduct)
}

// parsePagination reads page/limit query parameters with the given defaults.
func parsePagination(r *http.Request, defaultLimit, maxLimit int) (page, limit int) {
	qParams := r.URL.Query()

	limit, err := strconv.Atoi(qParams.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page, err = strconv.Atoi(qParams.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	return page, limit
}

// listProductsParams parses the shared filtering/sorting query parameters of
// the product listing endpoints. The returned message is non-empty when a
// parameter is invalid.
func (h *HTTPHandler) listProductsParams(r *http.Request) (store.ListProductsParams, int, string) {
	qParams := r.URL.Query()
	page, limit := parsePagination(r, 10, 100)
	params := store.ListProductsParams{Limit: limit, Offset: (page - 1) * limit}

	if q := qParams.Get("q"); q != "" {
		params.SearchQuery = &q
	}
	if idStr := qParams.Get("category_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return params, page, "Invalid category_id format"
		}
		params.CategoryID = &id
	}
	if priceStr := qParams.Get("min_price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			return params, page, "Invalid min_price format"
		}
		params.MinPrice = &price
	}
	if priceStr := qParams.Get("max_price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			return params, page, "Invalid max_price format"
		}
		params.MaxPrice = &price
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return params, page, "min_price cannot exceed max_price"
	}
	if activeStr := qParams.Get("is_active"); activeStr != "" {
		b, err := strconv.ParseBool(activeStr)
		if err != nil {
			return params, page, "Invalid is_active value: must be true or false"
		}
		params.IsActive = &b
	}

	params.SortBy = qParams.Get("sort_by")
	params.SortOrder = qParams.Get("sort_order")

	// Whitelist sort fields and order here for better API contract enforcement
	allowedSortFields := map[string]bool{"name": true, "price": true, "created_at": true, "updated_at": true, "sort_order": true, "": true} // "" for default
	if !allowedSortFields[params.SortBy] {
		return params, page, fmt.Sprintf("Invalid sort_by field. Allowed: %v", getMapKeys(allowedSortFields))
	}
	if params.SortOrder != "" && strings.ToLower(params.SortOrder) != "asc" && strings.ToLower(params.SortOrder) != "desc" {
		return params, page, "Invalid sort_order value. Allowed: asc, desc"
	}

	return params, page, ""
}

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request, qctx *ordering.QueryContext) {
	params, page, errMsg := h.listProductsParams(r)
	if errMsg != "" {
		respondWithError(w, http.StatusBadRequest, errMsg)
		return
	}
	params.Listing = qctx

	products, totalCount, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListProducts store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	response := struct {
		Data       []domain.Product `json:"data"`
		Pagination paginationInfo   `json:"pagination"`
	}{
		Data:       products,
		Pagination: buildPagination(page, params.Limit, totalCount),
	}
	respondWithJSON(w, http.StatusOK, response)
}

// ListProducts serves the storefront catalog listing. It is the main product
// listing query of the request, so in-stock products sort first.
func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, &ordering.QueryContext{MainQuery: true, ProductListing: true})
}

// ListProductsByCategory serves a product taxonomy page: the listing of one
// category, stock-first like the storefront listing.
func (h *HTTPHandler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "categoryId")
	categoryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || categoryID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if _, err := h.categoryStore.GetCategoryByID(r.Context(), categoryID); err != nil {
		log.Printf("ERROR: ListProductsByCategory category lookup for ID %d failed: %v", categoryID, err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		}
		return
	}

	params, page, errMsg := h.listProductsParams(r)
	if errMsg != "" {
		respondWithError(w, http.StatusBadRequest, errMsg)
		return
	}
	params.CategoryID = &categoryID
	params.Listing = &ordering.QueryContext{MainQuery: true, ProductTaxonomy: true}

	products, totalCount, err := h.productStore.ListProducts(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListProductsByCategory store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	response := struct {
		Data       []domain.Product `json:"data"`
		Pagination paginationInfo   `json:"pagination"`
	}{
		Data:       products,
		Pagination: buildPagination(page, params.Limit, totalCount),
	}
	respondWithJSON(w, http.StatusOK, response)
}

// AdminListProducts serves the administrative product listing, which keeps
// the requested ordering without the stock-first adjustment.
func (h *HTTPHandler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, &ordering.QueryContext{MainQuery: true, Admin: true, ProductListing: true})
}

// Helper to get keys from a map for error messages
func getMapKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "" { // Don't list empty string default in error message
			keys = append(keys, k)
		}
	}
	return keys
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: GetProductByID store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		}
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

// ProductUpdateInput defines the expected input for updating a product.
type ProductUpdateInput struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Description   *string `json:"description" validate:"omitempty"`
	SKU           string  `json:"sku" validate:"required,max=100"`
	Price         float64 `json:"price" validate:"required,gte=0"`
	StockQuantity int32   `json:"stock_quantity" validate:"gte=0"`
	CategoryID    *int64  `json:"category_id" validate:"omitempty,gt=0"`
	ImageURL      *string `json:"image_url" validate:"omitempty,url,max=2048"`
	IsActive      *bool   `json:"is_active"`
	SortOrder     int32   `json:"sort_order" validate:"gte=0"`
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input ProductUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	// Existence check before the full-row update.
	_, err = h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: Product for update (ID %d) not found: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Error checking product existence")
		}
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	productToUpdate := &domain.Product{
		ID:            productID,
		Name:          input.Name,
		Description:   input.Description,
		SKU:           input.SKU,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CategoryID:    input.CategoryID,
		ImageURL:      input.ImageURL,
		IsActive:      isActive,
		SortOrder:     input.SortOrder,
	}

	updatedProduct, err := h.productStore.UpdateProduct(r.Context(), productToUpdate)
	if err != nil {
		log.Printf("ERROR: UpdateProduct store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) { // Should have been caught by GetProductByID above
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else if errors.Is(err, store.ErrProductSKUExists) {
			respondWithError(w, http.StatusConflict, store.ErrProductSKUExists.Error())
		} else if errors.Is(err, store.ErrCategoryNotFound) { // If category_id FK fails
			respondWithError(w, http.StatusBadRequest, "Invalid category_id: category does not exist.")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updatedProduct)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	err = h.productStore.DeleteProduct(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: DeleteProduct store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		}
		return
	}

	respondWithJSON(w, http.StatusNoContent, nil)
}

// StockUpdateInput defines the expected input for adjusting product stock.
type StockUpdateInput struct {
	Change int32 `json:"change" validate:"required"`
}

// UpdateProductStock applies a stock quantity change. The store keeps the
// stock_status attribute in sync, so a depleting change moves the product
// behind in-stock products on the next storefront listing.
func (h *HTTPHandler) UpdateProductStock(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var input StockUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	updatedProduct, err := h.productStore.UpdateStock(r.Context(), productID, input.Change)
	if err != nil {
		log.Printf("ERROR: UpdateProductStock store operation for ID %d failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else if errors.Is(err, store.ErrInsufficientStock) {
			respondWithError(w, http.StatusConflict, store.ErrInsufficientStock.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update stock")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updatedProduct)
}

// --- Attribute Handlers ---

// AttributeValueInput defines the expected input for setting an attribute.
type AttributeValueInput struct {
	Value string `json:"value" validate:"required,max=255"`
}

type attributeResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Value     string `json:"value"`
}

func (h *HTTPHandler) GetProductAttribute(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	name := chi.URLParam(r, "attributeName")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Attribute name is required")
		return
	}

	value, err := h.attributeStore.GetProductAttribute(r.Context(), productID, name)
	if err != nil {
		log.Printf("ERROR: GetProductAttribute store operation for product %d attribute %q failed: %v", productID, name, err)
		if errors.Is(err, store.ErrAttributeNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrAttributeNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve attribute")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, attributeResponse{ProductID: productID, Name: name, Value: value})
}

func (h *HTTPHandler) SetProductAttribute(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || productID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	name := chi.URLParam(r, "attributeName")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Attribute name is required")
		return
	}

	var input AttributeValueInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.attributeStore.SetProductAttribute(r.Context(), productID, name, input.Value); err != nil {
		log.Printf("ERROR: SetProductAttribute store operation for product %d attribute %q failed: %v", productID, name, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to set attribute")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, attributeResponse{ProductID: productID, Name: name, Value: input.Value})
}

func (h *HTTPHandler) GetProductRecommendations(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 5 // Default limit
	}
	if limit > 20 { // Max limit for recommendations
		limit = 20
	}

	// A secondary query: newest actives, no stock reordering.
	recommendations, err := h.productStore.GetRecentProducts(r.Context(), limit)
	if err != nil {
		log.Printf("ERROR: GetProductRecommendations (GetRecentProducts) failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch product recommendations")
		return
	}

	if recommendations == nil { // Ensure empty list instead of null if store returns nil slice
		recommendations = []domain.Product{}
	}

	respondWithJSON(w, http.StatusOK, recommendations)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Post("/", h.CreateCategory) // POST /api/v1/categories
		r.Get("/", h.ListCategories)  // GET /api/v1/categories
		r.Route("/{categoryId}", func(r chi.Router) {
			r.Get("/", h.GetCategoryByID)   // GET /api/v1/categories/{categoryId}
			r.Put("/", h.UpdateCategory)    // PUT /api/v1/categories/{categoryId}
			r.Delete("/", h.DeleteCategory) // DELETE /api/v1/categories/{categoryId}
			// Taxonomy listing: products of one category, in-stock first
			r.Get("/products", h.ListProductsByCategory) // GET /api/v1/categories/{categoryId}/products
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct) // POST /api/v1/products
		r.Get("/", h.ListProducts)   // GET /api/v1/products
		// Ensure this is before the {productId} route to avoid "recommendations" being treated as an ID
		r.Get("/recommendations", h.GetProductRecommendations) // GET /api/v1/products/recommendations

		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)          // GET /api/v1/products/{productId}
			r.Put("/", h.UpdateProduct)           // PUT /api/v1/products/{productId}
			r.Delete("/", h.DeleteProduct)        // DELETE /api/v1/products/{productId}
			r.Post("/stock", h.UpdateProductStock) // POST /api/v1/products/{productId}/stock
			r.Route("/attributes/{attributeName}", func(r chi.Router) {
				r.Get("/", h.GetProductAttribute) // GET /api/v1/products/{productId}/attributes/{attributeName}
				r.Put("/", h.SetProductAttribute) // PUT /api/v1/products/{productId}/attributes/{attributeName}
			})
		})
	})

	// Administrative listing keeps its own ordering.
	r.Get("/api/v1/admin/products", h.AdminListProducts)
}
