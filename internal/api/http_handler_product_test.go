package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saeedalimadadi/out-of-stock-last/internal/domain"
	"github.com/saeedalimadadi/out-of-stock-last/internal/store"
)

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, int, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Int(1), args.Error(2)
}

func (m *MockProductStorer) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) DeleteProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductStorer) UpdateStock(ctx context.Context, productID int64, quantityChange int32) (*domain.Product, error) {
	args := m.Called(ctx, productID, quantityChange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) GetRecentProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

// MockAttributeStorer is a mock implementation of store.AttributeStorer
type MockAttributeStorer struct {
	mock.Mock
}

func (m *MockAttributeStorer) GetProductAttribute(ctx context.Context, productID int64, name string) (string, error) {
	args := m.Called(ctx, productID, name)
	return args.String(0), args.Error(1)
}

func (m *MockAttributeStorer) SetProductAttribute(ctx context.Context, productID int64, name, value string) error {
	args := m.Called(ctx, productID, name, value)
	return args.Error(0)
}

func TestHTTPHandler_ListProducts_StorefrontContext(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore, nil)
	defer server.Close()

	now := time.Now().Truncate(time.Millisecond)
	expectedProducts := []domain.Product{
		{ID: 1, Name: "Available", SKU: "A-1", StockQuantity: 5, StockStatus: domain.StockStatusInStock, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: 2, Name: "Sold Out", SKU: "S-1", StockQuantity: 0, StockStatus: domain.StockStatusOutOfStock, IsActive: true, CreatedAt: now, UpdatedAt: now},
	}

	// The storefront endpoint must describe itself to the store as the main
	// product-listing query so the stock-first ordering applies.
	mockProdStore.On("ListProducts", mock.Anything, mock.MatchedBy(func(params store.ListProductsParams) bool {
		qctx := params.Listing
		return qctx != nil && qctx.MainQuery && !qctx.Admin && qctx.ProductListing && !qctx.ProductTaxonomy
	})).Return(expectedProducts, 2, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products?page=1&limit=10")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var responsePayload struct {
		Data       []domain.Product `json:"data"`
		Pagination paginationInfo   `json:"pagination"`
	}
	err = json.NewDecoder(res.Body).Decode(&responsePayload)
	require.NoError(t, err)

	require.Len(t, responsePayload.Data, 2)
	assert.Equal(t, domain.StockStatusInStock, responsePayload.Data[0].StockStatus)
	assert.Equal(t, domain.StockStatusOutOfStock, responsePayload.Data[1].StockStatus)
	assert.Equal(t, 2, responsePayload.Pagination.TotalItems)

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_ListProducts_InvalidSortBy(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore, nil)
	defer server.Close()

	res, err := http.Get(server.URL + "/api/v1/products?sort_by=sku")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var errResp ErrorResponse
	err = json.NewDecoder(res.Body).Decode(&errResp)
	require.NoError(t, err)
	assert.Contains(t, errResp.Error, "Invalid sort_by field")
}

func TestHTTPHandler_AdminListProducts_AdminContext(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore, nil)
	defer server.Close()

	mockProdStore.On("ListProducts", mock.Anything, mock.MatchedBy(func(params store.ListProductsParams) bool {
		return params.Listing != nil && params.Listing.Admin
	})).Return([]domain.Product{}, 0, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/admin/products")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_ListProductsByCategory_TaxonomyContext(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, mockCatStore, mockProdStore, nil)
	defer server.Close()

	categoryID := int64(7)
	now := time.Now().Truncate(time.Millisecond)
	mockCatStore.On("GetCategoryByID", mock.Anything, categoryID).
		Return(&domain.Category{ID: categoryID, Name: "Coffee", CreatedAt: now, UpdatedAt: now}, nil).Once()

	mockProdStore.On("ListProducts", mock.Anything, mock.MatchedBy(func(params store.ListProductsParams) bool {
		qctx := params.Listing
		return params.CategoryID != nil && *params.CategoryID == categoryID &&
			qctx != nil && qctx.MainQuery && qctx.ProductTaxonomy && !qctx.ProductListing
	})).Return([]domain.Product{}, 0, nil).Once()

	res, err := http.Get(server.URL + fmt.Sprintf("/api/v1/categories/%d/products", categoryID))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	mockCatStore.AssertExpectations(t)
	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_ListProductsByCategory_CategoryNotFound(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, mockCatStore, mockProdStore, nil)
	defer server.Close()

	categoryID := int64(99)
	mockCatStore.On("GetCategoryByID", mock.Anything, categoryID).
		Return(nil, store.ErrCategoryNotFound).Once()

	res, err := http.Get(server.URL + fmt.Sprintf("/api/v1/categories/%d/products", categoryID))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_CreateProduct_Success(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore, nil)
	defer server.Close()

	now := time.Now().Truncate(time.Millisecond)
	inputPayload := ProductCreateInput{
		Name:          "New Product",
		SKU:           "SKU-NEW",
		Price:         19.99,
		StockQuantity: 3,
	}
	expectedCreated := &domain.Product{
		ID:            1,
		Name:          inputPayload.Name,
		SKU:           inputPayload.SKU,
		Price:         inputPayload.Price,
		StockQuantity: inputPayload.StockQuantity,
		StockStatus:   domain.StockStatusInStock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mockProdStore.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.SKU == inputPayload.SKU && p.IsActive // defaults to active when not sent
	})).Return(expectedCreated, nil).Once()

	reqBody, _ := json.Marshal(inputPayload)
	res, err := http.Post(server.URL+"/api/v1/products", "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)
	var responseProduct domain.Product
	err = json.NewDecoder(res.Body).Decode(&responseProduct)
	require.NoError(t, err)
	assert.Equal(t, expectedCreated.ID, responseProduct.ID)
	assert.Equal(t, domain.StockStatusInStock, responseProduct.StockStatus)

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_UpdateProductStock_Success(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore, nil)
	defer server.Close()

	productID := int64(1)
	now := time.Now().Truncate(time.Millisecond)
	depleted := &domain.Product{
		ID:            productID,
		Name:          "Depleting",
		SKU:           "SKU-D",
		StockQuantity: 0,
		StockStatus:   domain.StockStatusOutOfStock,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mockProdStore.On("UpdateStock", mock.Anything, productID, int32(-2)).Return(depleted, nil).Once()

	reqBody, _ := json.Marshal(StockUpdateInput{Change: -2})
	res, err := http.Post(server.URL+fmt.Sprintf("/api/v1/products/%d/stock", productID), "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var responseProduct domain.Product
	err = json.NewDecoder(res.Body).Decode(&responseProduct)
	require.NoError(t, err)
	assert.Equal(t, domain.StockStatusOutOfStock, responseProduct.StockStatus)

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_UpdateProductStock_Insufficient(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore, nil)
	defer server.Close()

	productID := int64(1)
	mockProdStore.On("UpdateStock", mock.Anything, productID, int32(-50)).
		Return(nil, store.ErrInsufficientStock).Once()

	reqBody, _ := json.Marshal(StockUpdateInput{Change: -50})
	res, err := http.Post(server.URL+fmt.Sprintf("/api/v1/products/%d/stock", productID), "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusConflict, res.StatusCode)
	var errResp ErrorResponse
	err = json.NewDecoder(res.Body).Decode(&errResp)
	require.NoError(t, err)
	assert.Equal(t, store.ErrInsufficientStock.Error(), errResp.Error)

	mockProdStore.AssertExpectations(t)
}

func TestHTTPHandler_GetProductAttribute_Found(t *testing.T) {
	mockAttrStore := new(MockAttributeStorer)
	server := setupTestChiServer(t, nil, nil, mockAttrStore)
	defer server.Close()

	mockAttrStore.On("GetProductAttribute", mock.Anything, int64(1), "stock_status").
		Return("instock", nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products/1/attributes/stock_status")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var payload attributeResponse
	err = json.NewDecoder(res.Body).Decode(&payload)
	require.NoError(t, err)
	assert.Equal(t, int64(1), payload.ProductID)
	assert.Equal(t, "stock_status", payload.Name)
	assert.Equal(t, "instock", payload.Value)

	mockAttrStore.AssertExpectations(t)
}

func TestHTTPHandler_GetProductAttribute_NotFound(t *testing.T) {
	mockAttrStore := new(MockAttributeStorer)
	server := setupTestChiServer(t, nil, nil, mockAttrStore)
	defer server.Close()

	mockAttrStore.On("GetProductAttribute", mock.Anything, int64(1), "color").
		Return("", store.ErrAttributeNotFound).Once()

	res, err := http.Get(server.URL + "/api/v1/products/1/attributes/color")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	mockAttrStore.AssertExpectations(t)
}

func TestHTTPHandler_SetProductAttribute_Success(t *testing.T) {
	mockAttrStore := new(MockAttributeStorer)
	server := setupTestChiServer(t, nil, nil, mockAttrStore)
	defer server.Close()

	mockAttrStore.On("SetProductAttribute", mock.Anything, int64(1), "stock_status", "outofstock").
		Return(nil).Once()

	reqBody, _ := json.Marshal(AttributeValueInput{Value: "outofstock"})
	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/v1/products/1/attributes/stock_status", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	mockAttrStore.AssertExpectations(t)
}

func TestHTTPHandler_GetProductRecommendations(t *testing.T) {
	mockProdStore := new(MockProductStorer)
	server := setupTestChiServer(t, nil, mockProdStore, nil)
	defer server.Close()

	now := time.Now().Truncate(time.Millisecond)
	recent := []domain.Product{
		{ID: 3, Name: "Newest", SKU: "N-1", StockStatus: domain.StockStatusInStock, IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	mockProdStore.On("GetRecentProducts", mock.Anything, 5).Return(recent, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/products/recommendations")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var payload []domain.Product
	err = json.NewDecoder(res.Body).Decode(&payload)
	require.NoError(t, err)
	require.Len(t, payload, 1)
	assert.Equal(t, "Newest", payload[0].Name)

	mockProdStore.AssertExpectations(t)
}
