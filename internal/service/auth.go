package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RoGogDBD/closet/internal/models"
	"github.com/RoGogDBD/closet/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Accounts проверяет учетные данные сотрудников.
type Accounts struct {
	users repository.UserStore
	cost  int
}

func NewAccounts(users repository.UserStore) *Accounts {
	return &Accounts{users: users, cost: bcrypt.DefaultCost}
}

// Authenticate возвращает пользователя при верном пароле.
// Неизвестный логин и неверный пароль неразличимы для клиента.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := a.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "invalid username or password")
		}
		return nil, translate(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, newError(ErrUnauthorized, "invalid username or password")
	}
	return u, nil
}

// CreateUser сохраняет пользователя с bcrypt-хешем пароля.
func (a *Accounts) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, newError(ErrValidation, "username is required")
	}
	if len(password) < minPasswordLength {
		return nil, newError(ErrValidation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, err
	}

	u := &models.User{ID: uuid.New(), Username: username, PasswordHash: string(hash)}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, translate(err, "user")
	}
	return u, nil
}
