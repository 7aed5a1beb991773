package mocks

import (
	"context"
	"time"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/google/uuid"
)

type CacheMock struct {
	GetFunc           func(id uuid.UUID) (*models.Category, bool)
	SaveFunc          func(c *models.Category)
	DeleteFunc        func(id uuid.UUID)
	StartJanitorFunc  func(ctx context.Context, interval time.Duration)
	GetCalls          int
	SaveCalls         int
	DeleteCalls       int
	StartJanitorCalls int
}

func (m *CacheMock) Get(id uuid.UUID) (*models.Category, bool) {
	m.GetCalls++
	if m.GetFunc == nil {
		return nil, false
	}
	return m.GetFunc(id)
}

func (m *CacheMock) Save(c *models.Category) {
	m.SaveCalls++
	if m.SaveFunc != nil {
		m.SaveFunc(c)
	}
}

func (m *CacheMock) Delete(id uuid.UUID) {
	m.DeleteCalls++
	if m.DeleteFunc != nil {
		m.DeleteFunc(id)
	}
}

func (m *CacheMock) StartJanitor(ctx context.Context, interval time.Duration) {
	m.StartJanitorCalls++
	if m.StartJanitorFunc != nil {
		m.StartJanitorFunc(ctx, interval)
	}
}
