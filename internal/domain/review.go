package domain

import (
	"time"
)

// Review представляет отзыв на произведение. На пару (произведение, автор)
// может существовать не больше одного отзыва - это обеспечивается
// ограничением уникальности в хранилище.
type Review struct {
	ID       string    `json:"id" db:"id"`        // UUID
	TitleID  string    `json:"-" db:"title_id"`   // Внешний ключ к Title
	AuthorID string    `json:"-" db:"author_id"`  // Внешний ключ к User
	Author   string    `json:"author" db:"author"` // username автора, подтягивается join-ом
	Text     string    `json:"text" db:"text"`
	Score    int       `json:"score" db:"score"` // Оценка 1-10
	PubDate  time.Time `json:"pub_date" db:"pub_date"`
}

// Comment представляет комментарий к отзыву.
type Comment struct {
	ID       string    `json:"id" db:"id"`         // UUID
	ReviewID string    `json:"-" db:"review_id"`   // Внешний ключ к Review
	AuthorID string    `json:"-" db:"author_id"`   // Внешний ключ к User
	Author   string    `json:"author" db:"author"` // username автора
	Text     string    `json:"text" db:"text"`
	PubDate  time.Time `json:"pub_date" db:"pub_date"`
}

// CreateReviewRequest определяет тело запроса для создания отзыва.
type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required,gte=1,lte=10"`
}

// UpdateReviewRequest определяет тело запроса для обновления отзыва.
type UpdateReviewRequest struct {
	Text  *string `json:"text,omitempty" validate:"omitempty,min=1"`
	Score *int    `json:"score,omitempty" validate:"omitempty,gte=1,lte=10"`
}

// CreateCommentRequest определяет тело запроса для создания комментария.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// UpdateCommentRequest определяет тело запроса для обновления комментария.
type UpdateCommentRequest struct {
	Text *string `json:"text,omitempty" validate:"omitempty,min=1"`
}
