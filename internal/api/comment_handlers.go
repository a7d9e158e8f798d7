package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/code3452/api-yamdb/internal/domain"
	"github.com/code3452/api-yamdb/internal/store"
)

// requireReview проверяет цепочку родителей комментария: произведение
// существует и отзыв принадлежит именно ему. При ошибке сам пишет ответ
// и возвращает false.
func (h *Handler) requireReview(w http.ResponseWriter, r *http.Request, titleID, reviewID string) bool {
	if !h.requireTitle(w, r, titleID) {
		return false
	}
	_, err := h.stores.Reviews.GetReviewByID(r.Context(), titleID, reviewID)
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrReviewNotFound) {
		h.respondError(w, r, http.StatusNotFound, "Review not found")
		return false
	}
	h.logger.ErrorContext(r.Context(), "Failed to check review existence", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
	h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve review")
	return false
}

// ListComments возвращает страницу комментариев отзыва в порядке
// создания. Доступно без токена.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	if !h.requireReview(w, r, vars["titleID"], vars["reviewID"]) {
		return
	}

	params := parseListParams(r)
	comments, totalCount, err := h.stores.Comments.ListCommentsByReview(ctx, vars["reviewID"], params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list comments", slog.String("reviewID", vars["reviewID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve comments")
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Results:    comments,
		TotalCount: totalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
}

// CreateComment создает комментарий к отзыву от имени действующего лица.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFromContext(ctx)
	if !actor.Authenticated {
		h.respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	vars := mux.Vars(r)
	if !h.requireReview(w, r, vars["titleID"], vars["reviewID"]) {
		return
	}

	var req domain.CreateCommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	comment := &domain.Comment{
		ID:       uuid.NewString(),
		ReviewID: vars["reviewID"],
		AuthorID: actor.ID,
		Author:   actor.Username,
		Text:     req.Text,
		PubDate:  time.Now().UTC(),
	}
	if err := h.stores.Comments.CreateComment(ctx, comment); err != nil {
		h.logger.ErrorContext(ctx, "Failed to create comment", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create comment")
		return
	}
	h.logger.InfoContext(ctx, "Comment created",
		slog.String("commentID", comment.ID), slog.String("reviewID", comment.ReviewID), slog.String("author", actor.Username))
	h.respondJSON(w, r, http.StatusCreated, comment)
}

// GetComment возвращает комментарий в рамках отзыва. Доступно без токена.
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	if !h.requireReview(w, r, vars["titleID"], vars["reviewID"]) {
		return
	}

	comment, err := h.stores.Comments.GetCommentByID(ctx, vars["reviewID"], vars["commentID"])
	if err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Comment not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get comment", slog.String("commentID", vars["commentID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve comment")
		return
	}
	h.respondJSON(w, r, http.StatusOK, comment)
}

// UpdateComment частично обновляет комментарий. Разрешено автору,
// модератору и администратору.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	if !h.requireReview(w, r, vars["titleID"], vars["reviewID"]) {
		return
	}

	comment, err := h.stores.Comments.GetCommentByID(ctx, vars["reviewID"], vars["commentID"])
	if err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Comment not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get comment for update", slog.String("commentID", vars["commentID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update comment")
		return
	}
	if !h.allowOwnerWrite(w, r, comment.AuthorID) {
		return
	}

	var req domain.UpdateCommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Text != nil {
		comment.Text = *req.Text
	}

	if err := h.stores.Comments.UpdateComment(ctx, comment); err != nil {
		h.logger.ErrorContext(ctx, "Failed to update comment", slog.String("commentID", comment.ID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update comment")
		return
	}
	h.logger.InfoContext(ctx, "Comment updated", slog.String("commentID", comment.ID))
	h.respondJSON(w, r, http.StatusOK, comment)
}

// DeleteComment удаляет комментарий. Разрешено автору, модератору и
// администратору.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	if !h.requireReview(w, r, vars["titleID"], vars["reviewID"]) {
		return
	}

	comment, err := h.stores.Comments.GetCommentByID(ctx, vars["reviewID"], vars["commentID"])
	if err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Comment not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get comment for delete", slog.String("commentID", vars["commentID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete comment")
		return
	}
	if !h.allowOwnerWrite(w, r, comment.AuthorID) {
		return
	}

	if err := h.stores.Comments.DeleteComment(ctx, vars["reviewID"], vars["commentID"]); err != nil {
		h.logger.ErrorContext(ctx, "Failed to delete comment", slog.String("commentID", vars["commentID"]), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete comment")
		return
	}
	h.logger.InfoContext(ctx, "Comment deleted", slog.String("commentID", vars["commentID"]))
	h.respondJSON(w, r, http.StatusNoContent, nil)
}
