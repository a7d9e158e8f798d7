package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Для обработки ошибок PostgreSQL

	"github.com/code3452/api-yamdb/internal/domain"
)

// PostgresUserStore реализует UserStore для PostgreSQL.
type PostgresUserStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresUserStore создает новый экземпляр PostgresUserStore.
// db должен быть уже подключен и передан сюда.
func NewPostgresUserStore(db *sqlx.DB, logger *slog.Logger) (*PostgresUserStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresUserStore")
	}
	return &PostgresUserStore{db: db, logger: logger}, nil
}

const userColumns = `id, username, email, first_name, last_name, bio, role, is_superuser, confirmation_code, created_at, updated_at`

// Create создает нового пользователя в базе данных.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, username, email, first_name, last_name, bio, role, is_superuser, confirmation_code, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	s.logger.DebugContext(ctx, "Executing Create user query", slog.String("userID", user.ID), slog.String("username", user.Username))
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.Bio,
		user.Role, user.IsSuperuser, user.ConfirmationCode, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			s.logger.WarnContext(ctx, "User already exists (unique constraint violation in DB)",
				slog.String("username", user.Username),
				slog.String("constraint", pqErr.Constraint))
			return ErrUserAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create user in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.InfoContext(ctx, "User created successfully in DB", slog.String("userID", user.ID))
	return nil
}

// GetByID находит пользователя по внутреннему UUID.
func (s *PostgresUserStore) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.getOne(ctx, query, userID)
}

// GetByUsername находит пользователя по имени.
func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return s.getOne(ctx, query, username)
}

// GetByUsernameAndEmail находит пользователя по точному совпадению пары.
func (s *PostgresUserStore) GetByUsernameAndEmail(ctx context.Context, username, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND email = $2`
	return s.getOne(ctx, query, username, email)
}

func (s *PostgresUserStore) getOne(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get user from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Update перезаписывает изменяемые поля пользователя.
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET username = $1, email = $2, first_name = $3, last_name = $4, bio = $5, role = $6, confirmation_code = $7, updated_at = $8
              WHERE id = $9`
	user.UpdatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing Update user query", slog.String("userID", user.ID))
	result, err := s.db.ExecContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName, user.Bio,
		user.Role, user.ConfirmationCode, user.UpdatedAt, user.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			s.logger.WarnContext(ctx, "Update failed: username or email already exists (DB constraint)",
				slog.String("userID", user.ID), slog.String("constraint", pqErr.Constraint))
			return ErrUserAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to update user in DB", slog.String("userID", user.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	s.logger.InfoContext(ctx, "User updated successfully in DB", slog.String("userID", user.ID))
	return nil
}

// Delete удаляет пользователя по имени. Отзывы и комментарии пользователя
// удаляются каскадом внешних ключей БД.
func (s *PostgresUserStore) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM users WHERE username = $1`

	s.logger.DebugContext(ctx, "Executing Delete user query", slog.String("username", username))
	result, err := s.db.ExecContext(ctx, query, username)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete user from DB", slog.String("username", username), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	s.logger.InfoContext(ctx, "User deleted successfully from DB", slog.String("username", username))
	return nil
}

// List возвращает страницу пользователей с фильтрацией по username.
func (s *PostgresUserStore) List(ctx context.Context, params UserListParams) ([]*domain.User, int, error) {
	countQuery := `SELECT COUNT(*) FROM users WHERE 1=1`
	selectQuery := `SELECT ` + userColumns + ` FROM users WHERE 1=1`

	var args []interface{}
	var conditions []string
	argID := 1

	if params.Username != "" {
		conditions = append(conditions, fmt.Sprintf("username = $%d", argID))
		args = append(args, params.Username)
		argID++
	}
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(username) LIKE LOWER($%d)", argID))
		args = append(args, "%"+params.Search+"%")
		argID++
	}
	if len(conditions) > 0 {
		clause := " AND " + strings.Join(conditions, " AND ")
		countQuery += clause
		selectQuery += clause
	}

	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count users in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if totalCount == 0 {
		return []*domain.User{}, 0, nil
	}

	limit, offset := params.LimitOffset()
	selectQuery += fmt.Sprintf(" ORDER BY created_at ASC LIMIT %d OFFSET %d", limit, offset)

	var users []*domain.User
	if err := s.db.SelectContext(ctx, &users, selectQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list users from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, totalCount, nil
}
