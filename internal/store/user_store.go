package store

import (
	"context"
	"errors"

	"github.com/code3452/api-yamdb/internal/domain"
)

// Кастомные ошибки хранилища пользователей.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email or username already exists")
)

// UserStore определяет интерфейс для операций с данными пользователей.
// Наружу пользователь адресуется по username, поэтому большинство операций
// принимают его, а не внутренний UUID.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByUsernameAndEmail находит пользователя по точному совпадению
	// пары (username, email). Используется при повторной регистрации
	// для повторной отправки кода подтверждения.
	GetByUsernameAndEmail(ctx context.Context, username, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete каскадно удаляет отзывы и комментарии пользователя.
	Delete(ctx context.Context, username string) error
	List(ctx context.Context, params UserListParams) ([]*domain.User, int, error)
}
