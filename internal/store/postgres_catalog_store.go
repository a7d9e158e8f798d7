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
	"github.com/lib/pq" // Для обработки ошибок PostgreSQL и ANY($1) по слайсу

	"github.com/code3452/api-yamdb/internal/domain"
)

// PostgresCatalogStore реализует CategoryStore, GenreStore и TitleStore
// для PostgreSQL. Категории, жанры и произведения живут в одной схеме
// и связаны внешними ключами, поэтому хранилище у них общее.
type PostgresCatalogStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresCatalogStore создает новый экземпляр PostgresCatalogStore.
func NewPostgresCatalogStore(db *sqlx.DB, logger *slog.Logger) (*PostgresCatalogStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresCatalogStore")
	}
	return &PostgresCatalogStore{db: db, logger: logger}, nil
}

// --- Категории ---

// CreateCategory создает новую категорию.
func (s *PostgresCatalogStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	query := `INSERT INTO categories (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`
	category.CreatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing CreateCategory query", slog.String("slug", category.Slug))
	_, err := s.db.ExecContext(ctx, query, category.ID, category.Name, category.Slug, category.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			s.logger.WarnContext(ctx, "Category already exists (unique constraint violation in DB)", slog.String("slug", category.Slug))
			return ErrCategoryAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create category in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created successfully in DB", slog.String("slug", category.Slug))
	return nil
}

// GetCategoryBySlug находит категорию по слагу.
func (s *PostgresCatalogStore) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `SELECT id, name, slug, created_at FROM categories WHERE slug = $1`
	var category domain.Category
	err := s.db.GetContext(ctx, &category, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get category by slug from DB", slog.String("slug", slug), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &category, nil
}

// ListCategories возвращает страницу категорий с поиском по имени.
func (s *PostgresCatalogStore) ListCategories(ctx context.Context, params CatalogListParams) ([]*domain.Category, int, error) {
	countQuery := `SELECT COUNT(*) FROM categories`
	selectQuery := `SELECT id, name, slug, created_at FROM categories`

	var args []interface{}
	if params.Search != "" {
		clause := ` WHERE LOWER(name) LIKE LOWER($1)`
		countQuery += clause
		selectQuery += clause
		args = append(args, "%"+params.Search+"%")
	}

	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count categories in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}
	if totalCount == 0 {
		return []*domain.Category{}, 0, nil
	}

	limit, offset := params.LimitOffset()
	selectQuery += fmt.Sprintf(" ORDER BY created_at ASC LIMIT %d OFFSET %d", limit, offset)

	var categories []*domain.Category
	if err := s.db.SelectContext(ctx, &categories, selectQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list categories from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, totalCount, nil
}

// DeleteCategory удаляет категорию. У зависимых произведений внешний ключ
// объявлен ON DELETE SET NULL, так что произведения остаются без категории.
func (s *PostgresCatalogStore) DeleteCategory(ctx context.Context, slug string) error {
	query := `DELETE FROM categories WHERE slug = $1`

	s.logger.DebugContext(ctx, "Executing DeleteCategory query", slog.String("slug", slug))
	result, err := s.db.ExecContext(ctx, query, slug)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete category from DB", slog.String("slug", slug), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete category: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}
	s.logger.InfoContext(ctx, "Category deleted successfully from DB", slog.String("slug", slug))
	return nil
}

// --- Жанры ---

// CreateGenre создает новый жанр.
func (s *PostgresCatalogStore) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	query := `INSERT INTO genres (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`
	genre.CreatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing CreateGenre query", slog.String("slug", genre.Slug))
	_, err := s.db.ExecContext(ctx, query, genre.ID, genre.Name, genre.Slug, genre.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			s.logger.WarnContext(ctx, "Genre already exists (unique constraint violation in DB)", slog.String("slug", genre.Slug))
			return ErrGenreAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create genre in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create genre: %w", err)
	}
	s.logger.InfoContext(ctx, "Genre created successfully in DB", slog.String("slug", genre.Slug))
	return nil
}

// GetGenreBySlug находит жанр по слагу.
func (s *PostgresCatalogStore) GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	query := `SELECT id, name, slug, created_at FROM genres WHERE slug = $1`
	var genre domain.Genre
	err := s.db.GetContext(ctx, &genre, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGenreNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get genre by slug from DB", slog.String("slug", slug), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get genre by slug: %w", err)
	}
	return &genre, nil
}

// GetGenresBySlugs возвращает жанры для списка слагов в порядке запроса.
func (s *PostgresCatalogStore) GetGenresBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error) {
	query := `SELECT id, name, slug, created_at FROM genres WHERE slug = ANY($1)`

	var rows []domain.Genre
	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(slugs)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get genres by slugs from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get genres by slugs: %w", err)
	}

	bySlug := make(map[string]domain.Genre, len(rows))
	for _, g := range rows {
		bySlug[g.Slug] = g
	}
	genres := make([]domain.Genre, 0, len(slugs))
	for _, slug := range slugs {
		g, ok := bySlug[slug]
		if !ok {
			s.logger.WarnContext(ctx, "Genre slug not found in DB", slog.String("slug", slug))
			return nil, ErrGenreNotFound
		}
		genres = append(genres, g)
	}
	return genres, nil
}

// ListGenres возвращает страницу жанров с поиском по имени.
func (s *PostgresCatalogStore) ListGenres(ctx context.Context, params CatalogListParams) ([]*domain.Genre, int, error) {
	countQuery := `SELECT COUNT(*) FROM genres`
	selectQuery := `SELECT id, name, slug, created_at FROM genres`

	var args []interface{}
	if params.Search != "" {
		clause := ` WHERE LOWER(name) LIKE LOWER($1)`
		countQuery += clause
		selectQuery += clause
		args = append(args, "%"+params.Search+"%")
	}

	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count genres in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count genres: %w", err)
	}
	if totalCount == 0 {
		return []*domain.Genre{}, 0, nil
	}

	limit, offset := params.LimitOffset()
	selectQuery += fmt.Sprintf(" ORDER BY created_at ASC LIMIT %d OFFSET %d", limit, offset)

	var genres []*domain.Genre
	if err := s.db.SelectContext(ctx, &genres, selectQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list genres from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, totalCount, nil
}

// DeleteGenre удаляет жанр. Строки связи в title_genres уходят каскадом,
// сами произведения остаются.
func (s *PostgresCatalogStore) DeleteGenre(ctx context.Context, slug string) error {
	query := `DELETE FROM genres WHERE slug = $1`

	s.logger.DebugContext(ctx, "Executing DeleteGenre query", slog.String("slug", slug))
	result, err := s.db.ExecContext(ctx, query, slug)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete genre from DB", slog.String("slug", slug), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete genre: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGenreNotFound
	}
	s.logger.InfoContext(ctx, "Genre deleted successfully from DB", slog.String("slug", slug))
	return nil
}

// --- Произведения ---

// titleRow - плоская строка выборки произведения с LEFT JOIN категории.
type titleRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Year         int            `db:"year"`
	Description  string         `db:"description"`
	CategoryID   sql.NullString `db:"category_id"`
	CategoryName sql.NullString `db:"category_name"`
	CategorySlug sql.NullString `db:"category_slug"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

const titleSelect = `SELECT t.id, t.name, t.year, t.description, t.category_id,
       c.name AS category_name, c.slug AS category_slug, t.created_at, t.updated_at
  FROM titles t LEFT JOIN categories c ON c.id = t.category_id`

func (r *titleRow) toDomain() *domain.Title {
	title := &domain.Title{
		ID:          r.ID,
		Name:        r.Name,
		Year:        r.Year,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.CategoryID.Valid {
		title.Category = &domain.Category{
			ID:   r.CategoryID.String,
			Name: r.CategoryName.String,
			Slug: r.CategorySlug.String,
		}
	}
	return title
}

// CreateTitle создает произведение и строки связи с жанрами в одной
// транзакции.
func (s *PostgresCatalogStore) CreateTitle(ctx context.Context, title *domain.Title) error {
	title.CreatedAt = time.Now().UTC()
	title.UpdatedAt = title.CreatedAt

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var categoryID interface{}
	if title.Category != nil {
		categoryID = title.Category.ID
	}

	query := `INSERT INTO titles (id, name, year, description, category_id, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	s.logger.DebugContext(ctx, "Executing CreateTitle query", slog.String("titleID", title.ID), slog.String("name", title.Name))
	if _, err := tx.ExecContext(ctx, query, title.ID, title.Name, title.Year, title.Description, categoryID, title.CreatedAt, title.UpdatedAt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create title in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create title: %w", err)
	}
	if err := insertTitleGenres(ctx, tx, title.ID, title.Genres); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit title creation: %w", err)
	}
	s.logger.InfoContext(ctx, "Title created successfully in DB", slog.String("titleID", title.ID))
	return nil
}

func insertTitleGenres(ctx context.Context, tx *sqlx.Tx, titleID string, genres []domain.Genre) error {
	query := `INSERT INTO title_genres (title_id, genre_id) VALUES ($1, $2)`
	for _, g := range genres {
		if _, err := tx.ExecContext(ctx, query, titleID, g.ID); err != nil {
			return fmt.Errorf("failed to link genre %s to title: %w", g.Slug, err)
		}
	}
	return nil
}

// GetTitleByID находит произведение вместе с категорией и жанрами.
// Rating не заполняется: его считает вызывающая сторона из оценок отзывов.
func (s *PostgresCatalogStore) GetTitleByID(ctx context.Context, titleID string) (*domain.Title, error) {
	var row titleRow
	err := s.db.GetContext(ctx, &row, titleSelect+` WHERE t.id = $1`, titleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTitleNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get title by ID from DB", slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get title by ID: %w", err)
	}

	title := row.toDomain()
	if title.Genres, err = s.genresOfTitle(ctx, title.ID); err != nil {
		return nil, err
	}
	return title, nil
}

func (s *PostgresCatalogStore) genresOfTitle(ctx context.Context, titleID string) ([]domain.Genre, error) {
	query := `SELECT g.id, g.name, g.slug, g.created_at
                FROM genres g JOIN title_genres tg ON tg.genre_id = g.id
               WHERE tg.title_id = $1 ORDER BY g.created_at ASC`
	genres := []domain.Genre{}
	if err := s.db.SelectContext(ctx, &genres, query, titleID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load genres of title from DB", slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load genres of title: %w", err)
	}
	return genres, nil
}

// ListTitles возвращает страницу произведений с фильтрами по жанру,
// категории, году и подстроке названия.
func (s *PostgresCatalogStore) ListTitles(ctx context.Context, params TitleListParams) ([]*domain.Title, int, error) {
	countQuery := `SELECT COUNT(*) FROM titles t LEFT JOIN categories c ON c.id = t.category_id WHERE 1=1`
	selectQuery := titleSelect + ` WHERE 1=1`

	var args []interface{}
	var conditions []string
	argID := 1

	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", argID))
		args = append(args, params.Category)
		argID++
	}
	if params.Genre != "" {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM title_genres tg JOIN genres g ON g.id = tg.genre_id WHERE tg.title_id = t.id AND g.slug = $%d)", argID))
		args = append(args, params.Genre)
		argID++
	}
	if params.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("t.year = $%d", argID))
		args = append(args, params.Year)
		argID++
	}
	if params.Name != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(t.name) LIKE LOWER($%d)", argID))
		args = append(args, "%"+params.Name+"%")
		argID++
	}
	if len(conditions) > 0 {
		clause := " AND " + strings.Join(conditions, " AND ")
		countQuery += clause
		selectQuery += clause
	}

	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count titles in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count titles: %w", err)
	}
	if totalCount == 0 {
		return []*domain.Title{}, 0, nil
	}

	limit, offset := params.LimitOffset()
	selectQuery += fmt.Sprintf(" ORDER BY t.created_at ASC LIMIT %d OFFSET %d", limit, offset)

	var rows []titleRow
	if err := s.db.SelectContext(ctx, &rows, selectQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list titles from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list titles: %w", err)
	}

	titles := make([]*domain.Title, 0, len(rows))
	for i := range rows {
		title := rows[i].toDomain()
		var err error
		if title.Genres, err = s.genresOfTitle(ctx, title.ID); err != nil {
			return nil, 0, err
		}
		titles = append(titles, title)
	}
	return titles, totalCount, nil
}

// UpdateTitle перезаписывает поля произведения и заменяет набор жанров.
func (s *PostgresCatalogStore) UpdateTitle(ctx context.Context, title *domain.Title) error {
	title.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var categoryID interface{}
	if title.Category != nil {
		categoryID = title.Category.ID
	}

	query := `UPDATE titles SET name = $1, year = $2, description = $3, category_id = $4, updated_at = $5 WHERE id = $6`
	s.logger.DebugContext(ctx, "Executing UpdateTitle query", slog.String("titleID", title.ID))
	result, err := tx.ExecContext(ctx, query, title.Name, title.Year, title.Description, categoryID, title.UpdatedAt, title.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update title in DB", slog.String("titleID", title.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update title: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTitleNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM title_genres WHERE title_id = $1`, title.ID); err != nil {
		return fmt.Errorf("failed to clear title genres: %w", err)
	}
	if err := insertTitleGenres(ctx, tx, title.ID, title.Genres); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit title update: %w", err)
	}
	s.logger.InfoContext(ctx, "Title updated successfully in DB", slog.String("titleID", title.ID))
	return nil
}

// DeleteTitle удаляет произведение. Отзывы и их комментарии уходят
// каскадом внешних ключей.
func (s *PostgresCatalogStore) DeleteTitle(ctx context.Context, titleID string) error {
	query := `DELETE FROM titles WHERE id = $1`

	s.logger.DebugContext(ctx, "Executing DeleteTitle query", slog.String("titleID", titleID))
	result, err := s.db.ExecContext(ctx, query, titleID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete title from DB", slog.String("titleID", titleID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete title: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTitleNotFound
	}
	s.logger.InfoContext(ctx, "Title deleted successfully from DB", slog.String("titleID", titleID))
	return nil
}
