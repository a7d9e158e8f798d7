package domain

import (
	"strings"
	"time"
)

// Роли пользователей. Роль superuser не существует: это ортогональный
// флаг is_superuser, который дает права администратора независимо от роли.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ReservedUsername - имя, запрещенное к регистрации, так как занято
// эндпоинтом /users/me/.
const ReservedUsername = "me"

// User представляет модель пользователя.
type User struct {
	ID               string    `json:"-" db:"id"` // UUID, наружу пользователь адресуется по username
	Username         string    `json:"username" db:"username"`
	Email            string    `json:"email" db:"email"`
	FirstName        string    `json:"first_name,omitempty" db:"first_name"`
	LastName         string    `json:"last_name,omitempty" db:"last_name"`
	Bio              string    `json:"bio,omitempty" db:"bio"`
	Role             string    `json:"role" db:"role"` // "user", "moderator", "admin"
	IsSuperuser      bool      `json:"-" db:"is_superuser"`
	ConfirmationCode string    `json:"-" db:"confirmation_code"` // Не отдаем код подтверждения в JSON
	CreatedAt        time.Time `json:"-" db:"created_at"`
	UpdatedAt        time.Time `json:"-" db:"updated_at"`
}

// IsAdmin сообщает, имеет ли пользователь роль администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator сообщает, имеет ли пользователь роль модератора.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// IsReservedUsername проверяет, зарезервировано ли имя пользователя
// (сравнение регистронезависимое).
func IsReservedUsername(username string) bool {
	return strings.EqualFold(username, ReservedUsername)
}

// SignUpRequest для саморегистрации (HTTP). Пароля нет: аутентификация
// построена на коде подтверждения, отправляемом по почте.
type SignUpRequest struct {
	Username string `json:"username" validate:"required,max=50,slug"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// TokenRequest для обмена кода подтверждения на токен (HTTP).
type TokenRequest struct {
	Username         string `json:"username" validate:"required,max=50"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// TokenResponse для ответа при успешном обмене (HTTP).
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest для обновления собственного профиля через /users/me/.
// Роль здесь изменить нельзя, поле игнорируется обработчиком.
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,max=50,slug"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Bio       *string `json:"bio,omitempty"`
}

// CreateUserRequest для создания пользователя администратором.
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,max=50,slug"`
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Bio       string `json:"bio,omitempty"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=user moderator admin"`
}

// UpdateUserRequest для обновления пользователя администратором.
// В отличие от /users/me/, здесь разрешено назначать роль.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,max=50,slug"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Bio       *string `json:"bio,omitempty"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=user moderator admin"`
}
