package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/code3452/api-yamdb/internal/store"
)

// listResponse - общая форма ответа для списковых эндпоинтов.
type listResponse struct {
	Results    interface{} `json:"results"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// decodeAndValidate разбирает тело запроса в dst и прогоняет его через
// валидатор. При ошибке сама пишет 400 и возвращает false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	defer r.Body.Close()

	if err := h.validator.StructCtx(r.Context(), dst); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// parseListParams читает параметры пагинации page/limit из строки запроса
// с теми же ограничениями, что и везде: страница >= 1, размер 1..50,
// по умолчанию 10.
func parseListParams(r *http.Request) store.ListParams {
	queryParams := r.URL.Query()

	page, _ := strconv.Atoi(queryParams.Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(queryParams.Get("limit"))
	if limit <= 0 {
		limit = 10
	} else if limit > 50 {
		limit = 50
	}
	return store.ListParams{Page: page, PageSize: limit}
}
