package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound возвращается, если запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate возвращается при нарушении уникальности.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidOrder возвращается, если порядок вещей не является перестановкой категории или одной ее группы.
	ErrInvalidOrder = errors.New("invalid item order")
)

// ItemFilter ограничивает выборку вещей категории.
type ItemFilter struct {
	// Sold == nil возвращает все вещи.
	Sold *bool
}

// CategoryStore описывает операции хранилища для категорий.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	// DeleteCategory удаляет категорию вместе со всеми ее вещами.
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// ItemStore описывает операции хранилища для вещей.
// Все изменяющие операции сохраняют плотную нумерацию позиций категории.
type ItemStore interface {
	ListItems(ctx context.Context, categoryID uuid.UUID, filter ItemFilter) ([]models.Item, error)
	// CreateItem добавляет вещь в конец категории и заполняет Order.
	CreateItem(ctx context.Context, it *models.Item) error
	// UpdateItem обновляет бренд, размер, артикул, цену и цвет.
	UpdateItem(ctx context.Context, it *models.Item) error
	SetItemSold(ctx context.Context, id uuid.UUID, sold bool) (*models.Item, error)
	// DeleteItem удаляет вещь и перенумеровывает оставшиеся.
	DeleteItem(ctx context.Context, id uuid.UUID) error
	// ReorderItems назначает позиции в порядке ids.
	ReorderItems(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) error
}

// UserStore описывает операции хранилища для пользователей.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// Store объединяет все хранилища приложения.
type Store interface {
	CategoryStore
	ItemStore
	UserStore
}

// CategoryCache описывает кеш категорий по идентификатору.
type CategoryCache interface {
	Get(id uuid.UUID) (*models.Category, bool)
	Save(c *models.Category)
	Delete(id uuid.UUID)
	StartJanitor(ctx context.Context, interval time.Duration)
}
