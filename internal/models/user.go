package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает сотрудника с доступом к изменениям.
type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
