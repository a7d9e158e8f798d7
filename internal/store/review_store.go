package store

import (
	"context"
	"errors"

	"github.com/code3452/api-yamdb/internal/domain"
)

// Кастомные ошибки отзывов и комментариев.
var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("author has already reviewed this title")
	ErrCommentNotFound = errors.New("comment not found")
)

// ReviewStore определяет интерфейс для операций с отзывами. Все операции
// чтения ограничены родительским произведением: сквозного списка отзывов
// не существует.
type ReviewStore interface {
	// CreateReview возвращает ErrDuplicateReview, если автор уже
	// оставлял отзыв на это произведение. Проверка выполняется
	// ограничением уникальности на уровне хранилища и потому корректна
	// при конкурентных попытках создания.
	CreateReview(ctx context.Context, review *domain.Review) error
	GetReviewByID(ctx context.Context, titleID, reviewID string) (*domain.Review, error)
	// ListReviewsByTitle возвращает отзывы в порядке публикации
	// (старые первыми).
	ListReviewsByTitle(ctx context.Context, titleID string, params ListParams) ([]*domain.Review, int, error)
	// ScoresByTitle возвращает все оценки произведения для вычисления
	// рейтинга. Рейтинг не кешируется и пересчитывается на каждом чтении.
	ScoresByTitle(ctx context.Context, titleID string) ([]int, error)
	UpdateReview(ctx context.Context, review *domain.Review) error
	// DeleteReview каскадно удаляет комментарии отзыва.
	DeleteReview(ctx context.Context, titleID, reviewID string) error
}

// CommentStore определяет интерфейс для операций с комментариями.
// Операции чтения ограничены родительским отзывом.
type CommentStore interface {
	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetCommentByID(ctx context.Context, reviewID, commentID string) (*domain.Comment, error)
	ListCommentsByReview(ctx context.Context, reviewID string, params ListParams) ([]*domain.Comment, int, error)
	UpdateComment(ctx context.Context, comment *domain.Comment) error
	DeleteComment(ctx context.Context, reviewID, commentID string) error
}
