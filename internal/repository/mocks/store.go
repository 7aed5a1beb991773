package mocks

import (
	"context"
	"errors"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/repository"
	"github.com/google/uuid"
)

type StoreMock struct {
	ListCategoriesFunc    func(ctx context.Context) ([]models.Category, error)
	GetCategoryFunc       func(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategoryFunc    func(ctx context.Context, c *models.Category) error
	DeleteCategoryFunc    func(ctx context.Context, id uuid.UUID) error
	ListItemsFunc         func(ctx context.Context, categoryID uuid.UUID, filter repository.ItemFilter) ([]models.Item, error)
	CreateItemFunc        func(ctx context.Context, it *models.Item) error
	UpdateItemFunc        func(ctx context.Context, it *models.Item) error
	SetItemSoldFunc       func(ctx context.Context, id uuid.UUID, sold bool) (*models.Item, error)
	DeleteItemFunc        func(ctx context.Context, id uuid.UUID) error
	ReorderItemsFunc      func(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) error
	GetUserByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	CreateUserFunc        func(ctx context.Context, u *models.User) error

	GetCategoryCalls  int
	CreateItemCalls   int
	UpdateItemCalls   int
	ReorderItemsCalls int
}

func (m *StoreMock) ListCategories(ctx context.Context) ([]models.Category, error) {
	if m.ListCategoriesFunc == nil {
		return nil, errors.New("ListCategoriesFunc not set")
	}
	return m.ListCategoriesFunc(ctx)
}

func (m *StoreMock) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	m.GetCategoryCalls++
	if m.GetCategoryFunc == nil {
		return nil, errors.New("GetCategoryFunc not set")
	}
	return m.GetCategoryFunc(ctx, id)
}

func (m *StoreMock) CreateCategory(ctx context.Context, c *models.Category) error {
	if m.CreateCategoryFunc == nil {
		return errors.New("CreateCategoryFunc not set")
	}
	return m.CreateCategoryFunc(ctx, c)
}

func (m *StoreMock) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if m.DeleteCategoryFunc == nil {
		return errors.New("DeleteCategoryFunc not set")
	}
	return m.DeleteCategoryFunc(ctx, id)
}

func (m *StoreMock) ListItems(ctx context.Context, categoryID uuid.UUID, filter repository.ItemFilter) ([]models.Item, error) {
	if m.ListItemsFunc == nil {
		return nil, errors.New("ListItemsFunc not set")
	}
	return m.ListItemsFunc(ctx, categoryID, filter)
}

func (m *StoreMock) CreateItem(ctx context.Context, it *models.Item) error {
	m.CreateItemCalls++
	if m.CreateItemFunc == nil {
		return errors.New("CreateItemFunc not set")
	}
	return m.CreateItemFunc(ctx, it)
}

func (m *StoreMock) UpdateItem(ctx context.Context, it *models.Item) error {
	m.UpdateItemCalls++
	if m.UpdateItemFunc == nil {
		return errors.New("UpdateItemFunc not set")
	}
	return m.UpdateItemFunc(ctx, it)
}

func (m *StoreMock) SetItemSold(ctx context.Context, id uuid.UUID, sold bool) (*models.Item, error) {
	if m.SetItemSoldFunc == nil {
		return nil, errors.New("SetItemSoldFunc not set")
	}
	return m.SetItemSoldFunc(ctx, id, sold)
}

func (m *StoreMock) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if m.DeleteItemFunc == nil {
		return errors.New("DeleteItemFunc not set")
	}
	return m.DeleteItemFunc(ctx, id)
}

func (m *StoreMock) ReorderItems(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) error {
	m.ReorderItemsCalls++
	if m.ReorderItemsFunc == nil {
		return errors.New("ReorderItemsFunc not set")
	}
	return m.ReorderItemsFunc(ctx, categoryID, ids)
}

func (m *StoreMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetUserByUsernameFunc == nil {
		return nil, errors.New("GetUserByUsernameFunc not set")
	}
	return m.GetUserByUsernameFunc(ctx, username)
}

func (m *StoreMock) CreateUser(ctx context.Context, u *models.User) error {
	if m.CreateUserFunc == nil {
		return errors.New("CreateUserFunc not set")
	}
	return m.CreateUserFunc(ctx, u)
}
