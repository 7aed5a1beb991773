package mocks

import (
	"context"
	"errors"
	"io"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/google/uuid"
)

type InventoryMock struct {
	ListCategoriesFunc func(ctx context.Context) ([]models.Category, error)
	GetCategoryFunc    func(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategoryFunc func(ctx context.Context, in service.CategoryInput) (*models.Category, error)
	DeleteCategoryFunc func(ctx context.Context, id uuid.UUID) error
	ListItemsFunc      func(ctx context.Context, categoryID uuid.UUID, sold *bool) ([]models.Item, error)
	CreateItemFunc     func(ctx context.Context, in service.ItemInput) (*models.Item, error)
	UpdateItemFunc     func(ctx context.Context, id uuid.UUID, in service.ItemFields) (*models.Item, error)
	SetSoldFunc        func(ctx context.Context, id uuid.UUID, sold bool) (*models.Item, error)
	DeleteItemFunc     func(ctx context.Context, id uuid.UUID) error
	ReorderFunc        func(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) error
	ImportSheetFunc    func(ctx context.Context, categoryID uuid.UUID, file io.Reader, sold bool) (*service.ImportReport, error)
	ExportItemsFunc    func(ctx context.Context, categoryID uuid.UUID, sold *bool) (*models.Category, []models.Item, error)

	CreateItemCalls  int
	DeleteItemCalls  int
	ReorderCalls     int
	ImportSheetCalls int
}

func (m *InventoryMock) ListCategories(ctx context.Context) ([]models.Category, error) {
	if m.ListCategoriesFunc == nil {
		return nil, errors.New("ListCategoriesFunc not set")
	}
	return m.ListCategoriesFunc(ctx)
}

func (m *InventoryMock) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if m.GetCategoryFunc == nil {
		return nil, errors.New("GetCategoryFunc not set")
	}
	return m.GetCategoryFunc(ctx, id)
}

func (m *InventoryMock) CreateCategory(ctx context.Context, in service.CategoryInput) (*models.Category, error) {
	if m.CreateCategoryFunc == nil {
		return nil, errors.New("CreateCategoryFunc not set")
	}
	return m.CreateCategoryFunc(ctx, in)
}

func (m *InventoryMock) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if m.DeleteCategoryFunc == nil {
		return errors.New("DeleteCategoryFunc not set")
	}
	return m.DeleteCategoryFunc(ctx, id)
}

func (m *InventoryMock) ListItems(ctx context.Context, categoryID uuid.UUID, sold *bool) ([]models.Item, error) {
	if m.ListItemsFunc == nil {
		return nil, errors.New("ListItemsFunc not set")
	}
	return m.ListItemsFunc(ctx, categoryID, sold)
}

func (m *InventoryMock) CreateItem(ctx context.Context, in service.ItemInput) (*models.Item, error) {
	m.CreateItemCalls++
	if m.CreateItemFunc == nil {
		return nil, errors.New("CreateItemFunc not set")
	}
	return m.CreateItemFunc(ctx, in)
}

func (m *InventoryMock) UpdateItem(ctx context.Context, id uuid.UUID, in service.ItemFields) (*models.Item, error) {
	if m.UpdateItemFunc == nil {
		return nil, errors.New("UpdateItemFunc not set")
	}
	return m.UpdateItemFunc(ctx, id, in)
}

func (m *InventoryMock) SetSold(ctx context.Context, id uuid.UUID, sold bool) (*models.Item, error) {
	if m.SetSoldFunc == nil {
		return nil, errors.New("SetSoldFunc not set")
	}
	return m.SetSoldFunc(ctx, id, sold)
}

func (m *InventoryMock) DeleteItem(ctx context.Context, id uuid.UUID) error {
	m.DeleteItemCalls++
	if m.DeleteItemFunc == nil {
		return errors.New("DeleteItemFunc not set")
	}
	return m.DeleteItemFunc(ctx, id)
}

func (m *InventoryMock) Reorder(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) error {
	m.ReorderCalls++
	if m.ReorderFunc == nil {
		return errors.New("ReorderFunc not set")
	}
	return m.ReorderFunc(ctx, categoryID, ids)
}

func (m *InventoryMock) ImportSheet(ctx context.Context, categoryID uuid.UUID, file io.Reader, sold bool) (*service.ImportReport, error) {
	m.ImportSheetCalls++
	if m.ImportSheetFunc == nil {
		return nil, errors.New("ImportSheetFunc not set")
	}
	return m.ImportSheetFunc(ctx, categoryID, file, sold)
}

func (m *InventoryMock) ExportItems(ctx context.Context, categoryID uuid.UUID, sold *bool) (*models.Category, []models.Item, error) {
	if m.ExportItemsFunc == nil {
		return nil, nil, errors.New("ExportItemsFunc not set")
	}
	return m.ExportItemsFunc(ctx, categoryID, sold)
}

type AuthenticatorMock struct {
	AuthenticateFunc  func(ctx context.Context, username, password string) (*models.User, error)
	AuthenticateCalls int
}

func (m *AuthenticatorMock) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	m.AuthenticateCalls++
	if m.AuthenticateFunc == nil {
		return nil, errors.New("AuthenticateFunc not set")
	}
	return m.AuthenticateFunc(ctx, username, password)
}
