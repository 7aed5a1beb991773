package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/RoGogDBD/closet/internal/service/mocks"
	"github.com/RoGogDBD/closet/internal/sheet"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newRouter(inv Inventory) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(inv, nil).Routes(r, nil)
	return r
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Error
}

func testItem(categoryID uuid.UUID, order int) *models.Item {
	return &models.Item{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Brand:      "Nike",
		Size:       "M",
		SKU:        "SKU-1",
		Price:      decimal.RequireFromString("9.50"),
		Color:      "Yellow",
		Order:      order,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "validation", err: &service.Error{Kind: service.ErrValidation, Message: "price is required"}, wantStatus: http.StatusBadRequest, wantMsg: "price is required"},
		{name: "conflict", err: &service.Error{Kind: service.ErrConflict, Message: "category already exists"}, wantStatus: http.StatusBadRequest, wantMsg: "category already exists"},
		{name: "not found", err: &service.Error{Kind: service.ErrNotFound, Message: "item not found"}, wantStatus: http.StatusNotFound, wantMsg: "item not found"},
		{name: "unauthorized", err: &service.Error{Kind: service.ErrUnauthorized, Message: "nope"}, wantStatus: http.StatusUnauthorized, wantMsg: "nope"},
		{name: "internal", err: errors.New("pq: connection reset"), wantStatus: http.StatusInternalServerError, wantMsg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &mocks.InventoryMock{
				DeleteItemFunc: func(ctx context.Context, id uuid.UUID) error { return tt.err },
			}
			rr := do(t, newRouter(inv), http.MethodDelete, "/api/items/"+uuid.NewString(), "")
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantMsg, errorBody(t, rr))
		})
	}
}

func TestInvalidPathID(t *testing.T) {
	inv := &mocks.InventoryMock{}
	r := newRouter(inv)

	for _, target := range []string{"/api/items/not-a-uuid", "/api/categories/42"} {
		rr := do(t, r, http.MethodDelete, target, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
	assert.Zero(t, inv.DeleteItemCalls)
}

func TestCategoryHandlers(t *testing.T) {
	id := uuid.New()
	inv := &mocks.InventoryMock{
		ListCategoriesFunc: func(ctx context.Context) ([]models.Category, error) {
			return []models.Category{{ID: id, Name: "Coats"}}, nil
		},
		CreateCategoryFunc: func(ctx context.Context, in service.CategoryInput) (*models.Category, error) {
			return &models.Category{ID: id, Name: in.Name}, nil
		},
		DeleteCategoryFunc: func(ctx context.Context, got uuid.UUID) error {
			if got != id {
				return &service.Error{Kind: service.ErrNotFound, Message: "category not found"}
			}
			return nil
		},
	}
	r := newRouter(inv)

	rr := do(t, r, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []categoryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Coats", list[0].Name)

	rr = do(t, r, http.MethodPost, "/api/categories", `{"name":"Hats"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var created categoryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, "Hats", created.Name)

	rr = do(t, r, http.MethodPost, "/api/categories", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, r, http.MethodDelete, "/api/categories/"+id.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	rr = do(t, r, http.MethodDelete, "/api/categories/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListItemVariants(t *testing.T) {
	categoryID := uuid.New()
	var gotSold *bool
	inv := &mocks.InventoryMock{
		ListItemsFunc: func(ctx context.Context, id uuid.UUID, sold *bool) ([]models.Item, error) {
			gotSold = sold
			return []models.Item{*testItem(id, 1)}, nil
		},
	}
	r := newRouter(inv)

	tests := []struct {
		path     string
		wantSold *bool
	}{
		{path: "", wantSold: nil},
		{path: "/current", wantSold: func() *bool { b := false; return &b }()},
		{path: "/sold", wantSold: func() *bool { b := true; return &b }()},
	}
	for _, tt := range tests {
		t.Run("items"+tt.path, func(t *testing.T) {
			rr := do(t, r, http.MethodGet, "/api/items/"+categoryID.String()+tt.path, "")
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantSold, gotSold)

			var items []itemResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&items))
			require.Len(t, items, 1)
			assert.Equal(t, 9.5, items[0].Price)
			assert.Equal(t, 1, items[0].Order)
			assert.Equal(t, categoryID, items[0].CategoryID)
		})
	}
}

func TestCreateItem(t *testing.T) {
	categoryID := uuid.New()
	var got service.ItemInput
	inv := &mocks.InventoryMock{
		CreateItemFunc: func(ctx context.Context, in service.ItemInput) (*models.Item, error) {
			got = in
			return testItem(in.CategoryID, 4), nil
		},
	}
	r := newRouter(inv)

	rr := do(t, r, http.MethodPost, "/api/items", `{"categoryId":"`+categoryID.String()+`","brand":"Nike","size":"M","sku":"SKU-1","price":9.5,"color":"ignored"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got.Price)
	assert.Equal(t, 9.5, *got.Price)
	assert.Equal(t, categoryID, got.CategoryID)
	assert.Nil(t, got.Sold)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.EqualValues(t, 4, body["order"])
	assert.Equal(t, "Yellow", body["color"])

	rr = do(t, r, http.MethodPost, "/api/items", `{"categoryId":"`+categoryID.String()+`","price":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1, inv.CreateItemCalls)
}

func TestUpdateItem(t *testing.T) {
	id := uuid.New()
	inv := &mocks.InventoryMock{
		UpdateItemFunc: func(ctx context.Context, got uuid.UUID, in service.ItemFields) (*models.Item, error) {
			it := testItem(uuid.New(), 2)
			it.ID = got
			it.Brand = in.Brand
			return it, nil
		},
	}
	rr := do(t, newRouter(inv), http.MethodPut, "/api/items/"+id.String(), `{"brand":"Gap","size":"L","sku":"x","price":1}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var body itemResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, id, body.ID)
	assert.Equal(t, "Gap", body.Brand)
}

func TestSetSold(t *testing.T) {
	id := uuid.New()
	var calls []bool
	inv := &mocks.InventoryMock{
		SetSoldFunc: func(ctx context.Context, got uuid.UUID, sold bool) (*models.Item, error) {
			calls = append(calls, sold)
			it := testItem(uuid.New(), 1)
			it.Sold = sold
			return it, nil
		},
	}
	r := newRouter(inv)

	tests := []struct {
		body       string
		wantStatus int
	}{
		{body: `{"sold":true}`, wantStatus: http.StatusOK},
		{body: `{"sold":false}`, wantStatus: http.StatusOK},
		{body: `{"sold":"yes"}`, wantStatus: http.StatusBadRequest},
		{body: `{}`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr := do(t, r, http.MethodPut, "/api/items/"+id.String()+"/sold", tt.body)
		assert.Equal(t, tt.wantStatus, rr.Code, tt.body)
	}
	assert.Equal(t, []bool{true, false}, calls)
}

func TestReorder(t *testing.T) {
	categoryID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	var got []uuid.UUID
	inv := &mocks.InventoryMock{
		ReorderFunc: func(ctx context.Context, id uuid.UUID, requested []uuid.UUID) error {
			got = requested
			if len(requested) != len(ids) {
				return &service.Error{Kind: service.ErrValidation, Message: "invalid order"}
			}
			return nil
		},
	}
	r := newRouter(inv)
	target := "/api/items/" + categoryID.String() + "/reorder"

	rr := do(t, r, http.MethodPost, target, `{"ids":["`+ids[1].String()+`","`+ids[0].String()+`"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []uuid.UUID{ids[1], ids[0]}, got)

	rr = do(t, r, http.MethodPost, target, `{"ids":["`+ids[0].String()+`"]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, r, http.MethodPost, target, `{"ids":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, r, http.MethodPost, target, `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 2, inv.ReorderCalls)
}

func TestImportItems(t *testing.T) {
	categoryID := uuid.New()
	var gotSold bool
	var gotBytes []byte
	inv := &mocks.InventoryMock{
		ImportSheetFunc: func(ctx context.Context, id uuid.UUID, file io.Reader, sold bool) (*service.ImportReport, error) {
			gotSold = sold
			gotBytes, _ = io.ReadAll(file)
			return &service.ImportReport{
				Imported: 1,
				Failed:   1,
				Rows: []service.RowResult{
					{Row: 2, SKU: "A", OK: true},
					{Row: 3, SKU: "B", Error: "price is required"},
				},
			}, nil
		},
	}
	r := newRouter(inv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "closet.xlsx")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("workbook-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/items/"+categoryID.String()+"/import?sold=true", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, gotSold)
	assert.Equal(t, "workbook-bytes", string(gotBytes))
	assert.JSONEq(t, `{"imported":1,"failed":1,"rows":[{"row":2,"sku":"A","ok":true},{"row":3,"sku":"B","ok":false,"error":"price is required"}]}`, rr.Body.String())

	rr = do(t, r, http.MethodPost, "/api/items/"+categoryID.String()+"/import", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "file is required", errorBody(t, rr))

	rr = do(t, r, http.MethodPost, "/api/items/"+categoryID.String()+"/import?sold=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1, inv.ImportSheetCalls)
}

func TestExportItems(t *testing.T) {
	categoryID := uuid.New()
	inv := &mocks.InventoryMock{
		ExportItemsFunc: func(ctx context.Context, id uuid.UUID, sold *bool) (*models.Category, []models.Item, error) {
			if id != categoryID {
				return nil, nil, &service.Error{Kind: service.ErrNotFound, Message: "category not found"}
			}
			return &models.Category{ID: id, Name: "Coats"}, []models.Item{*testItem(id, 1), *testItem(id, 2)}, nil
		},
	}
	r := newRouter(inv)

	rr := do(t, r, http.MethodGet, "/api/items/"+categoryID.String()+"/export", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="Coats-inventory.xlsx"`, rr.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Position", "SKU", "Brand", "Size", "Price", "Color"}, rows[0])
	assert.Equal(t, "Yellow", rows[1][5])

	rr = do(t, r, http.MethodGet, "/api/items/"+uuid.NewString()+"/export", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	ReadyHandler(pingFunc(func(context.Context) error { return nil }))(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	ReadyHandler(pingFunc(func(context.Context) error { return errors.New("down") }))(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
