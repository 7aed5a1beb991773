// Package models содержит доменные модели приложения.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Category описывает категорию вещей.
type Category struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
