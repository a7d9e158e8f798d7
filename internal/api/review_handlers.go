package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/code3452/api-yamdb/internal/access"
	"github.com/code3452/api-yamdb/internal/domain"
	"github.com/code3452/api-yamdb/internal/store"
)

// requireTitle проверяет, что родительское произведение существует.
// При ошибке сам пишет ответ и возвращает false.
func (h *Handler) requireTitle(w http.ResponseWriter, r *http.Request, titleID string) bool {
	_, err := h.stores.Titles.GetTitleByID(r.Context(), titleID)
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrTitleNotFound) {
		h.respondError(w, r, http.StatusNotFound, "Title not found")
		return false
	}
	h.logger.ErrorContext(r.Context(), "Failed to check title existence", slog.String("titleID", titleID), slog.String("error", err.Error()))
	h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve title")
	return false
}

// allowOwnerWrite применяет политику "запись автору, модератору или
// администратору" к существующему объекту. При отказе сам пишет 401/403
// и возвращает false.
func (h *Handler) allowOwnerWrite(w http.ResponseWriter, r *http.Request, ownerID string) bool {
	actor := actorFromContext(r.Context())
	if access.IsAuthorOrModeratorOrAdminOrReadOnly(actor, r.Method, ownerID) {
		return true
	}
	if !actor.Authenticated {
		h.respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return false
	}
	h.logger.WarnContext(r.Context(), "Write access to foreign object denied",
		slog.String("username", actor.Username), slog.String("path", r.URL.Path))
	h.respondError(w, r, http.StatusForbidden, "You can only modify your own content")
	return false
}

// ListReviews возвращает страницу отзывов произведения в порядке
// публикации. Доступно без токена.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	titleID := mux.Vars(r)["titleID"]
	if !h.requireTitle(w, r, titleID) {
		return
	}

	params := parseListParams(r)
	reviews, totalCount, err := h.stores.Reviews.ListReviewsByTitle(ctx, titleID, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list reviews", slog.String("titleID", titleID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve reviews")
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Results:    reviews,
		TotalCount: totalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
}

// CreateReview создает отзыв от имени действующего лица. Второй отзыв
// того же автора на то же произведение отклоняется с 409.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFromContext(ctx)
	if !actor.Authenticated {
		h.respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	titleID := mux.Vars(r)["titleID"]
	if !h.requireTitle(w, r, titleID) {
		return
	}

	var req domain.CreateReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	review := &domain.Review{
		ID:       uuid.NewString(),
		TitleID:  titleID,
		AuthorID: actor.ID,
		Author:   actor.Username,
		Text:     req.Text,
		Score:    req.Score,
		PubDate:  time.Now().UTC(),
	}
	if err := h.stores.Reviews.CreateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrDuplicateReview) {
			h.logger.WarnContext(ctx, "Duplicate review attempt",
				slog.String("titleID", titleID), slog.String("username", actor.Username))
			h.respondError(w, r, http.StatusConflict, "You have already reviewed this title")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create review", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create review")
		return
	}
	h.logger.InfoContext(ctx, "Review created",
		slog.String("reviewID", review.ID), slog.String("titleID", titleID), slog.String("author", actor.Username))
	h.respondJSON(w, r, http.StatusCreated, review)
}

// GetReview возвращает отзыв в рамках произведения. Доступно без токена.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	if !h.requireTitle(w, r, vars["titleID"]) {
		return
	}

	review, err := h.stores.Reviews.GetReviewByID(ctx, vars["titleID"], vars["reviewID"])
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Review not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review", slog.String("reviewID", vars["reviewID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve review")
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

// UpdateReview частично обновляет отзыв. Разрешено автору, модератору
// и администратору.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	if !h.requireTitle(w, r, vars["titleID"]) {
		return
	}

	review, err := h.stores.Reviews.GetReviewByID(ctx, vars["titleID"], vars["reviewID"])
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Review not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review for update", slog.String("reviewID", vars["reviewID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update review")
		return
	}
	if !h.allowOwnerWrite(w, r, review.AuthorID) {
		return
	}

	var req domain.UpdateReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	if err := h.stores.Reviews.UpdateReview(ctx, review); err != nil {
		h.logger.ErrorContext(ctx, "Failed to update review", slog.String("reviewID", review.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update review")
		return
	}
	h.logger.InfoContext(ctx, "Review updated", slog.String("reviewID", review.ID))
	h.respondJSON(w, r, http.StatusOK, review)
}

// DeleteReview удаляет отзыв вместе с его комментариями. Разрешено
// автору, модератору и администратору.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	if !h.requireTitle(w, r, vars["titleID"]) {
		return
	}

	review, err := h.stores.Reviews.GetReviewByID(ctx, vars["titleID"], vars["reviewID"])
	if err != nil {
		if errors.Is(err, store.ErrReviewNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Review not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get review for delete", slog.String("reviewID", vars["reviewID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete review")
		return
	}
	if !h.allowOwnerWrite(w, r, review.AuthorID) {
		return
	}

	if err := h.stores.Reviews.DeleteReview(ctx, vars["titleID"], vars["reviewID"]); err != nil {
		h.logger.ErrorContext(ctx, "Failed to delete review", slog.String("reviewID", vars["reviewID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete review")
		return
	}
	h.logger.InfoContext(ctx, "Review deleted", slog.String("reviewID", vars["reviewID"]))
	h.respondJSON(w, r, http.StatusNoContent, nil)
}
