package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Для обработки ошибок PostgreSQL

	"github.com/code3452/api-yamdb/internal/domain"
)

// PostgresReviewStore реализует ReviewStore и CommentStore для PostgreSQL.
type PostgresReviewStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresReviewStore создает новый экземпляр PostgresReviewStore.
// db должен быть уже подключен и передан сюда.
func NewPostgresReviewStore(db *sqlx.DB, logger *slog.Logger) (*PostgresReviewStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresReviewStore")
	}
	return &PostgresReviewStore{db: db, logger: logger}, nil
}

const reviewSelect = `SELECT r.id, r.title_id, r.author_id, u.username AS author, r.text, r.score, r.pub_date
  FROM reviews r JOIN users u ON u.id = r.author_id`

// CreateReview создает новый отзыв. Пара (произведение, автор) защищена
// ограничением уникальности uq_review_title_author, поэтому повторная
// попытка того же автора детерминированно завершается ErrDuplicateReview
// даже при конкурентных запросах.
func (s *PostgresReviewStore) CreateReview(ctx context.Context, review *domain.Review) error {
	query := `INSERT INTO reviews (id, title_id, author_id, text, score, pub_date)
              VALUES ($1, $2, $3, $4, $5, $6)`

	review.PubDate = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing CreateReview query",
		slog.String("reviewID", review.ID),
		slog.String("titleID", review.TitleID),
		slog.String("authorID", review.AuthorID))

	_, err := s.db.ExecContext(ctx, query,
		review.ID, review.TitleID, review.AuthorID, review.Text, review.Score, review.PubDate,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			if pqErr.Constraint == "uq_review_title_author" {
				s.logger.WarnContext(ctx, "Author has already reviewed this title (DB constraint)",
					slog.String("titleID", review.TitleID), slog.String("authorID", review.AuthorID))
				return ErrDuplicateReview
			}
			return fmt.Errorf("failed to create review due to unique constraint %s: %w", pqErr.Constraint, err)
		}
		s.logger.ErrorContext(ctx, "Failed to create review in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create review: %w", err)
	}
	s.logger.InfoContext(ctx, "Review created successfully in DB", slog.String("reviewID", review.ID))
	return nil
}

// GetReviewByID находит отзыв в пределах произведения.
func (s *PostgresReviewStore) GetReviewByID(ctx context.Context, titleID, reviewID string) (*domain.Review, error) {
	query := reviewSelect + ` WHERE r.id = $1 AND r.title_id = $2`
	var review domain.Review
	err := s.db.GetContext(ctx, &review, query, reviewID, titleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get review by ID from DB", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}
	return &review, nil
}

// ListReviewsByTitle возвращает страницу отзывов произведения в порядке
// публикации.
func (s *PostgresReviewStore) ListReviewsByTitle(ctx context.Context, titleID string, params ListParams) ([]*domain.Review, int, error) {
	countQuery := `SELECT COUNT(*) FROM reviews WHERE title_id = $1`

	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, titleID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count reviews by title in DB", slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count reviews by title: %w", err)
	}
	if totalCount == 0 {
		return []*domain.Review{}, 0, nil
	}

	limit, offset := params.LimitOffset()
	query := reviewSelect + fmt.Sprintf(` WHERE r.title_id = $1 ORDER BY r.pub_date ASC LIMIT %d OFFSET %d`, limit, offset)

	var reviews []*domain.Review
	if err := s.db.SelectContext(ctx, &reviews, query, titleID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews by title from DB", slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list reviews by title: %w", err)
	}
	return reviews, totalCount, nil
}

// ScoresByTitle возвращает оценки всех отзывов произведения.
func (s *PostgresReviewStore) ScoresByTitle(ctx context.Context, titleID string) ([]int, error) {
	query := `SELECT score FROM reviews WHERE title_id = $1`

	var scores []int
	if err := s.db.SelectContext(ctx, &scores, query, titleID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get review scores from DB", slog.String("titleID", titleID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review scores: %w", err)
	}
	return scores, nil
}

// UpdateReview обновляет текст и оценку существующего отзыва.
func (s *PostgresReviewStore) UpdateReview(ctx context.Context, review *domain.Review) error {
	query := `UPDATE reviews SET text = $1, score = $2 WHERE id = $3`

	s.logger.DebugContext(ctx, "Executing UpdateReview query", slog.String("reviewID", review.ID))
	result, err := s.db.ExecContext(ctx, query, review.Text, review.Score, review.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update review in DB", slog.String("reviewID", review.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review update result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrReviewNotFound
	}
	s.logger.InfoContext(ctx, "Review updated successfully in DB", slog.String("reviewID", review.ID))
	return nil
}

// DeleteReview удаляет отзыв. Комментарии уходят каскадом внешнего ключа.
func (s *PostgresReviewStore) DeleteReview(ctx context.Context, titleID, reviewID string) error {
	query := `DELETE FROM reviews WHERE id = $1 AND title_id = $2`

	s.logger.DebugContext(ctx, "Executing DeleteReview query", slog.String("reviewID", reviewID))
	result, err := s.db.ExecContext(ctx, query, reviewID, titleID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete review from DB", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review delete result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrReviewNotFound
	}
	s.logger.InfoContext(ctx, "Review deleted successfully from DB", slog.String("reviewID", reviewID))
	return nil
}

// --- Комментарии ---

const commentSelect = `SELECT c.id, c.review_id, c.author_id, u.username AS author, c.text, c.pub_date
  FROM comments c JOIN users u ON u.id = c.author_id`

// CreateComment создает новый комментарий к отзыву.
func (s *PostgresReviewStore) CreateComment(ctx context.Context, comment *domain.Comment) error {
	query := `INSERT INTO comments (id, review_id, author_id, text, pub_date)
              VALUES ($1, $2, $3, $4, $5)`

	comment.PubDate = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing CreateComment query",
		slog.String("commentID", comment.ID), slog.String("reviewID", comment.ReviewID))
	_, err := s.db.ExecContext(ctx, query,
		comment.ID, comment.ReviewID, comment.AuthorID, comment.Text, comment.PubDate,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create comment in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	s.logger.InfoContext(ctx, "Comment created successfully in DB", slog.String("commentID", comment.ID))
	return nil
}

// GetCommentByID находит комментарий в пределах отзыва.
func (s *PostgresReviewStore) GetCommentByID(ctx context.Context, reviewID, commentID string) (*domain.Comment, error) {
	query := commentSelect + ` WHERE c.id = $1 AND c.review_id = $2`
	var comment domain.Comment
	err := s.db.GetContext(ctx, &comment, query, commentID, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get comment by ID from DB", slog.String("commentID", commentID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return &comment, nil
}

// ListCommentsByReview возвращает страницу комментариев отзыва в порядке
// публикации.
func (s *PostgresReviewStore) ListCommentsByReview(ctx context.Context, reviewID string, params ListParams) ([]*domain.Comment, int, error) {
	countQuery := `SELECT COUNT(*) FROM comments WHERE review_id = $1`

	var totalCount int
	if err := s.db.GetContext(ctx, &totalCount, countQuery, reviewID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count comments by review in DB", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count comments by review: %w", err)
	}
	if totalCount == 0 {
		return []*domain.Comment{}, 0, nil
	}

	limit, offset := params.LimitOffset()
	query := commentSelect + fmt.Sprintf(` WHERE c.review_id = $1 ORDER BY c.pub_date ASC LIMIT %d OFFSET %d`, limit, offset)

	var comments []*domain.Comment
	if err := s.db.SelectContext(ctx, &comments, query, reviewID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list comments by review from DB", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list comments by review: %w", err)
	}
	return comments, totalCount, nil
}

// UpdateComment обновляет текст существующего комментария.
func (s *PostgresReviewStore) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	query := `UPDATE comments SET text = $1 WHERE id = $2`

	s.logger.DebugContext(ctx, "Executing UpdateComment query", slog.String("commentID", comment.ID))
	result, err := s.db.ExecContext(ctx, query, comment.Text, comment.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update comment in DB", slog.String("commentID", comment.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check comment update result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCommentNotFound
	}
	s.logger.InfoContext(ctx, "Comment updated successfully in DB", slog.String("commentID", comment.ID))
	return nil
}

// DeleteComment удаляет комментарий.
func (s *PostgresReviewStore) DeleteComment(ctx context.Context, reviewID, commentID string) error {
	query := `DELETE FROM comments WHERE id = $1 AND review_id = $2`

	s.logger.DebugContext(ctx, "Executing DeleteComment query", slog.String("commentID", commentID))
	result, err := s.db.ExecContext(ctx, query, commentID, reviewID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete comment from DB", slog.String("commentID", commentID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check comment delete result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCommentNotFound
	}
	s.logger.InfoContext(ctx, "Comment deleted successfully from DB", slog.String("commentID", commentID))
	return nil
}
