// Package service содержит бизнес-правила склада: проверку данных,
// цвет ценника и сопровождение порядка вещей.
package service

import (
	"context"
	"strings"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/palette"
	"github.com/RoGogDBD/closet/internal/repository"
	"github.com/RoGogDBD/closet/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/RoGogDBD/closet/internal/service"

// CategoryInput содержит данные для создания категории.
type CategoryInput struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// ItemFields содержит редактируемые поля вещи.
type ItemFields struct {
	Brand string   `json:"brand" validate:"notblank,max=200"`
	Size  string   `json:"size" validate:"notblank,max=50"`
	SKU   string   `json:"sku" validate:"notblank,max=100"`
	Price *float64 `json:"price" validate:"required,gte=0,lt=100000000"`
}

// ItemInput содержит данные для создания вещи.
type ItemInput struct {
	CategoryID uuid.UUID `json:"categoryId" validate:"required"`
	ItemFields
	Sold *bool `json:"sold"`
}

// Inventory управляет категориями и вещами.
type Inventory struct {
	store    repository.Store
	cache    repository.CategoryCache
	validate *validator.Validate
	logger   *zap.Logger

	itemsCreated metric.Int64Counter
	itemsDeleted metric.Int64Counter
	reorders     metric.Int64Counter
}

func NewInventory(store repository.Store, cache repository.CategoryCache, logger *zap.Logger) *Inventory {
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := otel.Meter(meterName)
	s := &Inventory{
		store:    store,
		cache:    cache,
		validate: validation.New(),
		logger:   logger,
	}

	// При ошибке OTel возвращает noop-инструмент.
	s.itemsCreated, _ = meter.Int64Counter("closet.items.created", metric.WithDescription("Items created"))
	s.itemsDeleted, _ = meter.Int64Counter("closet.items.deleted", metric.WithDescription("Items deleted"))
	s.reorders, _ = meter.Int64Counter("closet.items.reorders", metric.WithDescription("Category reorders"))
	return s
}

func (s *Inventory) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, translate(err, "categories")
	}
	return categories, nil
}

// GetCategory возвращает категорию, сначала проверяя кеш.
func (s *Inventory) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if c, ok := s.cache.Get(id); ok {
		return c, nil
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, translate(err, "category")
	}
	s.cache.Save(c)
	return c, nil
}

func (s *Inventory) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, newError(ErrValidation, "%s", validation.Describe(err))
	}

	c := &models.Category{ID: uuid.New(), Name: strings.TrimSpace(in.Name)}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, translate(err, "category")
	}
	s.cache.Save(c)
	s.logger.Info("category created", zap.String("category_id", c.ID.String()), zap.String("name", c.Name))
	return c, nil
}

// DeleteCategory удаляет категорию вместе с ее вещами.
func (s *Inventory) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	err := s.store.DeleteCategory(ctx, id)
	s.cache.Delete(id)
	if err != nil {
		return translate(err, "category")
	}
	s.logger.Info("category deleted", zap.String("category_id", id.String()))
	return nil
}

// ListItems возвращает вещи категории по возрастанию позиции; при sold == nil возвращаются все.
func (s *Inventory) ListItems(ctx context.Context, categoryID uuid.UUID, sold *bool) ([]models.Item, error) {
	items, err := s.store.ListItems(ctx, categoryID, repository.ItemFilter{Sold: sold})
	if err != nil {
		return nil, translate(err, "items")
	}
	return items, nil
}

// CreateItem добавляет вещь в конец категории.
func (s *Inventory) CreateItem(ctx context.Context, in ItemInput) (*models.Item, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, newError(ErrValidation, "%s", validation.Describe(err))
	}

	it := &models.Item{
		ID:         uuid.New(),
		CategoryID: in.CategoryID,
		Sold:       in.Sold != nil && *in.Sold,
	}
	applyFields(it, in.ItemFields)

	if err := s.store.CreateItem(ctx, it); err != nil {
		return nil, translate(err, "category")
	}
	s.itemsCreated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("sold", it.Sold)))
	s.logger.Debug("item created",
		zap.String("item_id", it.ID.String()),
		zap.String("category_id", it.CategoryID.String()),
		zap.Int("order", it.Order),
	)
	return it, nil
}

// UpdateItem меняет поля вещи и пересчитывает цвет; позиция и флаг продажи не меняются.
func (s *Inventory) UpdateItem(ctx context.Context, id uuid.UUID, in ItemFields) (*models.Item, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, newError(ErrValidation, "%s", validation.Describe(err))
	}

	it := &models.Item{ID: id}
	applyFields(it, in)
	if err := s.store.UpdateItem(ctx, it); err != nil {
		return nil, translate(err, "item")
	}
	return it, nil
}

// SetSold переносит вещь между текущими и проданными без перенумерации.
func (s *Inventory) SetSold(ctx context.Context, id uuid.UUID, sold bool) (*models.Item, error) {
	it, err := s.store.SetItemSold(ctx, id, sold)
	if err != nil {
		return nil, translate(err, "item")
	}
	return it, nil
}

// DeleteItem удаляет вещь и перенумеровывает категорию.
func (s *Inventory) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return translate(err, "item")
	}
	s.itemsDeleted.Add(ctx, 1)
	return nil
}

// Reorder назначает позиции в порядке ids. ids перечисляют все вещи категории
// либо все проданные или все текущие вещи; во втором случае другая группа не двигается.
func (s *Inventory) Reorder(ctx context.Context, categoryID uuid.UUID, ids []uuid.UUID) error {
	if err := s.store.ReorderItems(ctx, categoryID, ids); err != nil {
		return translate(err, "category")
	}
	s.reorders.Add(ctx, 1)
	return nil
}

func applyFields(it *models.Item, f ItemFields) {
	it.Brand = strings.TrimSpace(f.Brand)
	it.Size = strings.TrimSpace(f.Size)
	it.SKU = strings.TrimSpace(f.SKU)
	it.Price = decimal.NewFromFloat(*f.Price).Round(2)
	it.Color = palette.Classify(it.Price)
}
