package domain

import (
	"time"
)

// Category представляет категорию произведения ("Книги", "Фильмы" и т.д.).
// Слаг - естественный ключ: по нему категория адресуется в URL и в телах
// запросов на создание произведений.
type Category struct {
	ID        string    `json:"-" db:"id"` // UUID
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// Genre представляет жанр произведения. Устроен так же, как Category.
type Genre struct {
	ID        string    `json:"-" db:"id"` // UUID
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// Title представляет произведение (книгу, фильм и т.п.), на которое
// пользователи оставляют отзывы.
type Title struct {
	ID          string    `json:"id" db:"id"` // UUID
	Name        string    `json:"name" db:"name"`
	Year        int       `json:"year" db:"year"`
	Description string    `json:"description,omitempty" db:"description"`
	Category    *Category `json:"category"` // nil, если категория удалена или не задана
	Genres      []Genre   `json:"genre"`
	Rating      *float64  `json:"rating"` // Производное значение, не хранится; nil без отзывов
	CreatedAt   time.Time `json:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"-" db:"updated_at"`
}

// CreateCategoryRequest определяет тело запроса для создания категории.
// Тот же DTO используется и для жанров: поля у них совпадают.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// CreateTitleRequest определяет тело запроса для создания произведения.
// Категория и жанры адресуются по слагам; несуществующий слаг - ошибка
// валидации, а не 404. Год дополнительно проверяется через ValidateYear.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=256"`
	Year        int      `json:"year" validate:"required"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=256"`
	Category    string   `json:"category,omitempty" validate:"omitempty,max=50,slug"`
	Genres      []string `json:"genre" validate:"required,min=1,dive,max=50,slug"`
}

// UpdateTitleRequest определяет тело запроса для частичного обновления
// произведения.
type UpdateTitleRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
	Year        *int     `json:"year,omitempty"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=256"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50,slug"`
	Genres      []string `json:"genre,omitempty" validate:"omitempty,min=1,dive,max=50,slug"`
}
