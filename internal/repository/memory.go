package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/ordering"
	"github.com/google/uuid"
)

// MemoryStorage реализует Store в памяти процесса.
// Используется, когда DSN не задан, и в тестах.
type MemoryStorage struct {
	mu         sync.Mutex
	categories map[uuid.UUID]models.Category
	items      map[uuid.UUID]models.Item
	users      map[string]models.User
	now        func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		categories: make(map[uuid.UUID]models.Category),
		items:      make(map[uuid.UUID]models.Item),
		users:      make(map[string]models.User),
		now:        time.Now,
	}
}

func (s *MemoryStorage) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStorage) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStorage) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("empty category name")
	}
	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return ErrDuplicate
		}
	}
	if _, ok := s.categories[c.ID]; ok {
		return ErrDuplicate
	}
	c.CreatedAt = s.now()
	s.categories[c.ID] = *c
	return nil
}

func (s *MemoryStorage) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	for itemID, it := range s.items {
		if it.CategoryID == id {
			delete(s.items, itemID)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *MemoryStorage) ListItems(_ context.Context, categoryID uuid.UUID, filter ItemFilter) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Item
	for _, it := range s.sortedItems(categoryID) {
		if filter.Sold != nil && it.Sold != *filter.Sold {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *MemoryStorage) CreateItem(_ context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[it.CategoryID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.items[it.ID]; ok {
		return ErrDuplicate
	}

	maxPosition := 0
	for _, existing := range s.items {
		if existing.CategoryID == it.CategoryID {
			maxPosition = max(maxPosition, existing.Order)
		}
	}
	it.Order = ordering.Next(maxPosition)
	it.CreatedAt = s.now()
	it.UpdatedAt = it.CreatedAt
	s.items[it.ID] = *it
	return nil
}

func (s *MemoryStorage) UpdateItem(_ context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[it.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Brand = it.Brand
	stored.Size = it.Size
	stored.SKU = it.SKU
	stored.Price = it.Price
	stored.Color = it.Color
	stored.UpdatedAt = s.now()
	s.items[it.ID] = stored
	*it = stored
	return nil
}

func (s *MemoryStorage) SetItemSold(_ context.Context, id uuid.UUID, sold bool) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	stored.Sold = sold
	stored.UpdatedAt = s.now()
	s.items[id] = stored
	return &stored, nil
}

func (s *MemoryStorage) DeleteItem(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.items, id)

	remaining := s.sortedItems(stored.CategoryID)
	ids := make([]uuid.UUID, len(remaining))
	for i, it := range remaining {
		ids[i] = it.ID
	}
	s.apply(ordering.Renumber(ids))
	return nil
}

func (s *MemoryStorage) ReorderItems(_ context.Context, categoryID uuid.UUID, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[categoryID]; !ok {
		return ErrNotFound
	}
	current := s.sortedItems(categoryID)
	currentIDs := make([]uuid.UUID, len(current))
	for i, it := range current {
		currentIDs[i] = it.ID
	}

	sold := func(id uuid.UUID) bool { return s.items[id].Sold }
	assignments, err := ordering.Permute(currentIDs, ids, sold)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	s.apply(assignments)
	return nil
}

func (s *MemoryStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStorage) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Username]; ok {
		return ErrDuplicate
	}
	u.CreatedAt = s.now()
	s.users[u.Username] = *u
	return nil
}

// sortedItems возвращает вещи категории по возрастанию позиции. Вызывать под mu.
func (s *MemoryStorage) sortedItems(categoryID uuid.UUID) []models.Item {
	var out []models.Item
	for _, it := range s.items {
		if it.CategoryID == categoryID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order == out[j].Order {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// apply записывает новые позиции. Вызывать под mu.
func (s *MemoryStorage) apply(assignments []ordering.Assignment[uuid.UUID]) {
	now := s.now()
	for _, a := range assignments {
		it := s.items[a.ID]
		if it.Order == a.Position {
			continue
		}
		it.Order = a.Position
		it.UpdatedAt = now
		s.items[a.ID] = it
	}
}
