package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/repository"
	"github.com/RoGogDBD/closet/internal/repository/mocks"
	"github.com/RoGogDBD/closet/internal/sheet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventory() *Inventory {
	return NewInventory(repository.NewMemoryStorage(), repository.NewMemCache(), nil)
}

func price(v float64) *float64 { return &v }

func itemInput(categoryID uuid.UUID, sku string, p float64) ItemInput {
	return ItemInput{
		CategoryID: categoryID,
		ItemFields: ItemFields{Brand: "Nike", Size: "M", SKU: sku, Price: price(p)},
	}
}

func mustCategory(t *testing.T, s *Inventory, name string) *models.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()

	c, err := s.CreateCategory(ctx, CategoryInput{Name: "  Coats  "})
	require.NoError(t, err)
	assert.Equal(t, "Coats", c.Name)

	_, err = s.CreateCategory(ctx, CategoryInput{Name: "Coats"})
	require.ErrorIs(t, err, ErrConflict)

	_, err = s.CreateCategory(ctx, CategoryInput{Name: "   "})
	require.ErrorIs(t, err, ErrValidation)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, c.ID, categories[0].ID)
}

func TestCreateItemValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Shirts")

	tests := []struct {
		name    string
		in      ItemInput
		wantErr error
		wantMsg string
	}{
		{name: "negative price", in: itemInput(c.ID, "A", -1), wantErr: ErrValidation, wantMsg: "price must be at least 0"},
		{name: "missing price", in: ItemInput{CategoryID: c.ID, ItemFields: ItemFields{Brand: "b", Size: "s", SKU: "k"}}, wantErr: ErrValidation, wantMsg: "price is required"},
		{name: "blank brand", in: ItemInput{CategoryID: c.ID, ItemFields: ItemFields{Brand: " ", Size: "s", SKU: "k", Price: price(3)}}, wantErr: ErrValidation, wantMsg: "brand is required"},
		{name: "missing category id", in: itemInput(uuid.Nil, "A", 3), wantErr: ErrValidation, wantMsg: "categoryId is required"},
		{name: "unknown category", in: itemInput(uuid.New(), "A", 3), wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateItem(ctx, tt.in)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}

	items, err := s.ListItems(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, items, "failed validation must not write")
}

func TestCreateItemDerivesColorAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Pants")

	first, err := s.CreateItem(ctx, itemInput(c.ID, " SKU1 ", 9))
	require.NoError(t, err)
	assert.Equal(t, "Red", first.Color)
	assert.Equal(t, "SKU1", first.SKU)
	assert.Equal(t, 1, first.Order)
	assert.False(t, first.Sold)

	sold := true
	in := itemInput(c.ID, "SKU2", 0.6)
	in.Sold = &sold
	second, err := s.CreateItem(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Gray", second.Color)
	assert.Equal(t, 2, second.Order)
	assert.True(t, second.Sold)
}

func TestColorFollowsStoredPrice(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Gloves")

	tests := []struct {
		input float64
		price string
		color string
	}{
		{input: 8.495, price: "8.5", color: "Red"},
		{input: 8.494, price: "8.49", color: "Violet"},
		{input: 8.5, price: "8.5", color: "Red"},
	}
	for i, tt := range tests {
		it, err := s.CreateItem(ctx, itemInput(c.ID, fmt.Sprintf("g-%d", i), tt.input))
		require.NoError(t, err)
		assert.Equal(t, tt.price, it.Price.String(), "input %v", tt.input)
		assert.Equal(t, tt.color, it.Color, "input %v", tt.input)
	}
}

func TestUpdateItemRecomputesColor(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Hats")

	created, err := s.CreateItem(ctx, itemInput(c.ID, "H1", 9))
	require.NoError(t, err)
	_, err = s.SetSold(ctx, created.ID, true)
	require.NoError(t, err)

	updated, err := s.UpdateItem(ctx, created.ID, ItemFields{Brand: "Gap", Size: "L", SKU: "H1", Price: price(20)})
	require.NoError(t, err)
	assert.Equal(t, "Teal", updated.Color)
	assert.Equal(t, "Gap", updated.Brand)
	assert.Equal(t, 1, updated.Order)
	assert.True(t, updated.Sold, "update keeps sold flag")

	_, err = s.UpdateItem(ctx, uuid.New(), ItemFields{Brand: "Gap", Size: "L", SKU: "H1", Price: price(20)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateItem(ctx, created.ID, ItemFields{Brand: "Gap", Size: "L", SKU: "H1", Price: price(-5)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteAndReorder(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Boots")

	var ids []uuid.UUID
	for _, sku := range []string{"a", "b", "c", "d"} {
		it, err := s.CreateItem(ctx, itemInput(c.ID, sku, 5))
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}

	require.NoError(t, s.DeleteItem(ctx, ids[0]))
	assertItems(t, s, c.ID, nil, ids[1], ids[2], ids[3])

	require.NoError(t, s.Reorder(ctx, c.ID, []uuid.UUID{ids[3], ids[1], ids[2]}))
	assertItems(t, s, c.ID, nil, ids[3], ids[1], ids[2])

	err := s.Reorder(ctx, c.ID, []uuid.UUID{ids[3], ids[3], ids[2]})
	require.ErrorIs(t, err, ErrValidation)
	assertItems(t, s, c.ID, nil, ids[3], ids[1], ids[2])

	assert.ErrorIs(t, s.DeleteItem(ctx, ids[0]), ErrNotFound)
	assert.ErrorIs(t, s.Reorder(ctx, uuid.New(), nil), ErrNotFound)
}

func TestSoldPartition(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Skirts")

	var ids []uuid.UUID
	for _, sku := range []string{"a", "b", "c", "d"} {
		it, err := s.CreateItem(ctx, itemInput(c.ID, sku, 5))
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}
	for _, id := range []uuid.UUID{ids[0], ids[2]} {
		_, err := s.SetSold(ctx, id, true)
		require.NoError(t, err)
	}

	sold, current := true, false
	assertItems(t, s, c.ID, &sold, ids[0], ids[2])
	assertItems(t, s, c.ID, &current, ids[1], ids[3])

	_, err := s.SetSold(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorderWithinPartition(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Coats")

	var ids []uuid.UUID
	for _, sku := range []string{"a", "b", "c"} {
		it, err := s.CreateItem(ctx, itemInput(c.ID, sku, 5))
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}
	a, b, cc := ids[0], ids[1], ids[2]
	_, err := s.SetSold(ctx, b, true)
	require.NoError(t, err)

	// Список вкладки "current" без проданной вещи.
	require.NoError(t, s.Reorder(ctx, c.ID, []uuid.UUID{cc, a}))
	assertItems(t, s, c.ID, nil, cc, b, a)

	current, sold := false, true
	assertItems(t, s, c.ID, &current, cc, a)
	assertItems(t, s, c.ID, &sold, b)

	require.NoError(t, s.Reorder(ctx, c.ID, []uuid.UUID{b}))
	assertItems(t, s, c.ID, nil, cc, b, a)

	err = s.Reorder(ctx, c.ID, []uuid.UUID{cc, b})
	require.ErrorIs(t, err, ErrValidation)
	err = s.Reorder(ctx, c.ID, []uuid.UUID{a})
	require.ErrorIs(t, err, ErrValidation)
	assertItems(t, s, c.ID, nil, cc, b, a)
}

func TestDeleteCategoryRemovesItems(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Socks")
	other := mustCategory(t, s, "Ties")

	_, err := s.CreateItem(ctx, itemInput(c.ID, "x", 3))
	require.NoError(t, err)
	kept, err := s.CreateItem(ctx, itemInput(other.ID, "y", 3))
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, c.ID))

	items, err := s.ListItems(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = s.GetCategory(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound, "cache must not serve a deleted category")

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, other.ID, categories[0].ID)
	assertItems(t, s, other.ID, nil, kept.ID)

	assert.ErrorIs(t, s.DeleteCategory(ctx, c.ID), ErrNotFound)
}

func TestGetCategoryUsesCache(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	store := &mocks.StoreMock{
		GetCategoryFunc: func(ctx context.Context, got uuid.UUID) (*models.Category, error) {
			return &models.Category{ID: got, Name: "Bags"}, nil
		},
	}
	s := NewInventory(store, repository.NewMemCache(), nil)

	for i := 0; i < 3; i++ {
		c, err := s.GetCategory(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Bags", c.Name)
	}
	assert.Equal(t, 1, store.GetCategoryCalls)
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	store := &mocks.StoreMock{
		ListCategoriesFunc: func(ctx context.Context) ([]models.Category, error) { return nil, boom },
		CreateItemFunc:     func(ctx context.Context, it *models.Item) error { return boom },
	}
	s := NewInventory(store, &mocks.CacheMock{}, nil)

	_, err := s.ListCategories(ctx)
	require.ErrorIs(t, err, boom)
	var svcErr *Error
	assert.False(t, errors.As(err, &svcErr), "store failures are not client errors")

	_, err = s.CreateItem(ctx, itemInput(uuid.New(), "a", 1))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.CreateItemCalls)
}

func TestImportItems(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Jeans")

	rows := []sheet.Row{
		{Line: 2, SKU: "J1", Brand: "Levi's", Size: "32", Price: "9"},
		{Line: 3, SKU: "J2", Brand: "Lee", Size: "30", Price: "abc"},
		{Line: 4, SKU: "J3", Brand: "", Size: "34", Price: "4"},
		{Line: 5, SKU: "J4", Brand: "Wrangler", Size: "36", Price: "$12.00"},
		{Line: 6, SKU: "J5", Brand: "Gap", Size: "28", Price: "-2"},
	}

	report, err := s.ImportItems(ctx, c.ID, rows, true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 3, report.Failed)
	require.Len(t, report.Rows, 5)
	assert.True(t, report.Rows[0].OK)
	assert.Equal(t, `invalid price "abc"`, report.Rows[1].Error)
	assert.Equal(t, "brand is required", report.Rows[2].Error)
	assert.True(t, report.Rows[3].OK)
	assert.Equal(t, 6, report.Rows[4].Row)

	sold := true
	items, err := s.ListItems(ctx, c.ID, &sold)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Red", items[0].Color)
	assert.Equal(t, "Light Blue", items[1].Color)
	assert.Equal(t, 2, items[1].Order)

	_, err = s.ImportItems(ctx, uuid.New(), rows, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportItems(t *testing.T) {
	ctx := context.Background()
	s := newTestInventory()
	c := mustCategory(t, s, "Vests")
	it, err := s.CreateItem(ctx, itemInput(c.ID, "V1", 7))
	require.NoError(t, err)

	category, items, err := s.ExportItems(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Vests", category.Name)
	require.Len(t, items, 1)
	assert.Equal(t, it.ID, items[0].ID)

	_, _, err = s.ExportItems(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func assertItems(t *testing.T, s *Inventory, categoryID uuid.UUID, sold *bool, ids ...uuid.UUID) {
	t.Helper()
	items, err := s.ListItems(context.Background(), categoryID, sold)
	require.NoError(t, err)
	require.Len(t, items, len(ids))
	for i, it := range items {
		assert.Equal(t, ids[i], it.ID, "position %d", i+1)
	}
	if sold == nil {
		for i, it := range items {
			assert.Equal(t, i+1, it.Order)
		}
	}
}
