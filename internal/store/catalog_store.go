package store

import (
	"context"
	"errors"

	"github.com/code3452/api-yamdb/internal/domain"
)

// Кастомные ошибки каталога.
var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this slug already exists")
	ErrGenreNotFound         = errors.New("genre not found")
	ErrGenreAlreadyExists    = errors.New("genre with this slug already exists")
	ErrTitleNotFound         = errors.New("title not found")
)

// CategoryStore определяет интерфейс для операций с категориями.
// Обновление не поддерживается: категория создается и удаляется целиком.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context, params CatalogListParams) ([]*domain.Category, int, error)
	// DeleteCategory обнуляет категорию у зависимых произведений,
	// не удаляя их.
	DeleteCategory(ctx context.Context, slug string) error
}

// GenreStore определяет интерфейс для операций с жанрами.
type GenreStore interface {
	CreateGenre(ctx context.Context, genre *domain.Genre) error
	GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error)
	// GetGenresBySlugs возвращает жанры для списка слагов в порядке
	// запроса. Если хотя бы один слаг не существует, возвращается
	// ErrGenreNotFound.
	GetGenresBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error)
	ListGenres(ctx context.Context, params CatalogListParams) ([]*domain.Genre, int, error)
	DeleteGenre(ctx context.Context, slug string) error
}

// TitleStore определяет интерфейс для операций с произведениями.
// Category и Genres в передаваемом Title должны быть уже разрешены по
// слагам (этим занимается обработчик). Rating хранилище не заполняет:
// он вычисляется на чтении из оценок отзывов.
type TitleStore interface {
	CreateTitle(ctx context.Context, title *domain.Title) error
	GetTitleByID(ctx context.Context, titleID string) (*domain.Title, error)
	ListTitles(ctx context.Context, params TitleListParams) ([]*domain.Title, int, error)
	// UpdateTitle перезаписывает скалярные поля и полностью заменяет
	// набор жанров и категорию.
	UpdateTitle(ctx context.Context, title *domain.Title) error
	// DeleteTitle каскадно удаляет отзывы произведения и их комментарии.
	DeleteTitle(ctx context.Context, titleID string) error
}
