package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/code3452/api-yamdb/internal/access"
	"github.com/code3452/api-yamdb/internal/domain"
	"github.com/code3452/api-yamdb/internal/store"
)

// allowAdminOrReadOnly применяет политику "чтение всем, запись
// администратору". При отказе сам пишет 401/403 и возвращает false.
func (h *Handler) allowAdminOrReadOnly(w http.ResponseWriter, r *http.Request) bool {
	actor := actorFromContext(r.Context())
	if access.IsAdminOrReadOnly(actor, r.Method) {
		return true
	}
	if !actor.Authenticated {
		h.respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return false
	}
	h.logger.WarnContext(r.Context(), "Write access denied",
		slog.String("username", actor.Username), slog.String("path", r.URL.Path))
	h.respondError(w, r, http.StatusForbidden, "Admin access required")
	return false
}

// --- Категории ---

// ListCategories возвращает страницу категорий. Доступно без токена.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := store.CatalogListParams{
		ListParams: parseListParams(r),
		Search:     r.URL.Query().Get("search"),
	}
	categories, totalCount, err := h.stores.Categories.ListCategories(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list categories", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Results:    categories,
		TotalCount: totalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
}

// CreateCategory создает категорию. Доступно только администратору.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.allowAdminOrReadOnly(w, r) {
		return
	}
	ctx := r.Context()

	var req domain.CreateCategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	category := &domain.Category{ID: uuid.NewString(), Name: req.Name, Slug: req.Slug}
	if err := h.stores.Categories.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategoryAlreadyExists) {
			h.respondError(w, r, http.StatusBadRequest, "Category with this slug already exists")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create category", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create category")
		return
	}
	h.respondJSON(w, r, http.StatusCreated, category)
}

// DeleteCategory удаляет категорию по слагу. Зависимые произведения
// остаются без категории. Доступно только администратору.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !h.allowAdminOrReadOnly(w, r) {
		return
	}
	ctx := r.Context()
	slug := mux.Vars(r)["slug"]

	if err := h.stores.Categories.DeleteCategory(ctx, slug); err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Category not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete category", slog.String("slug", slug), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

// --- Жанры ---

// ListGenres возвращает страницу жанров. Доступно без токена.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := store.CatalogListParams{
		ListParams: parseListParams(r),
		Search:     r.URL.Query().Get("search"),
	}
	genres, totalCount, err := h.stores.Genres.ListGenres(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list genres", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve genres")
		return
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Results:    genres,
		TotalCount: totalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
}

// CreateGenre создает жанр. Доступно только администратору.
func (h *Handler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	if !h.allowAdminOrReadOnly(w, r) {
		return
	}
	ctx := r.Context()

	var req domain.CreateCategoryRequest // У жанра те же поля
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	genre := &domain.Genre{ID: uuid.NewString(), Name: req.Name, Slug: req.Slug}
	if err := h.stores.Genres.CreateGenre(ctx, genre); err != nil {
		if errors.Is(err, store.ErrGenreAlreadyExists) {
			h.respondError(w, r, http.StatusBadRequest, "Genre with this slug already exists")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to create genre", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create genre")
		return
	}
	h.respondJSON(w, r, http.StatusCreated, genre)
}

// DeleteGenre удаляет жанр по слагу. Доступно только администратору.
func (h *Handler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	if !h.allowAdminOrReadOnly(w, r) {
		return
	}
	ctx := r.Context()
	slug := mux.Vars(r)["slug"]

	if err := h.stores.Genres.DeleteGenre(ctx, slug); err != nil {
		if errors.Is(err, store.ErrGenreNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Genre not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete genre", slog.String("slug", slug), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete genre")
		return
	}
	h.respondJSON(w, r, http.StatusNoContent, nil)
}

// --- Произведения ---

// attachRating вычисляет рейтинг произведения из оценок его отзывов.
// Рейтинг не хранится и пересчитывается на каждом чтении.
func (h *Handler) attachRating(r *http.Request, title *domain.Title) error {
	scores, err := h.stores.Reviews.ScoresByTitle(r.Context(), title.ID)
	if err != nil {
		return err
	}
	title.Rating = domain.Rating(scores)
	return nil
}

// resolveCategoryAndGenres разрешает слаги категории и жанров в записи
// каталога. Несуществующий слаг - ошибка валидации (400), а не 404:
// клиент ссылается на значение поля, а не на адрес ресурса.
func (h *Handler) resolveCategoryAndGenres(w http.ResponseWriter, r *http.Request, categorySlug string, genreSlugs []string) (*domain.Category, []domain.Genre, bool) {
	ctx := r.Context()

	var category *domain.Category
	if categorySlug != "" {
		var err error
		category, err = h.stores.Categories.GetCategoryBySlug(ctx, categorySlug)
		if err != nil {
			if errors.Is(err, store.ErrCategoryNotFound) {
				h.respondError(w, r, http.StatusBadRequest, "Unknown category slug: "+categorySlug)
				return nil, nil, false
			}
			h.logger.ErrorContext(ctx, "Failed to resolve category slug", slog.String("slug", categorySlug), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to resolve category")
			return nil, nil, false
		}
	}

	var genres []domain.Genre
	if len(genreSlugs) > 0 {
		var err error
		genres, err = h.stores.Genres.GetGenresBySlugs(ctx, genreSlugs)
		if err != nil {
			if errors.Is(err, store.ErrGenreNotFound) {
				h.respondError(w, r, http.StatusBadRequest, "Unknown genre slug in request")
				return nil, nil, false
			}
			h.logger.ErrorContext(ctx, "Failed to resolve genre slugs", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to resolve genres")
			return nil, nil, false
		}
	}
	return category, genres, true
}

// ListTitles возвращает страницу произведений с фильтрами и рейтингом.
// Доступно без токена.
func (h *Handler) ListTitles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	queryParams := r.URL.Query()

	var year int
	if raw := queryParams.Get("year"); raw != "" {
		var err error
		if year, err = strconv.Atoi(raw); err != nil {
			h.respondError(w, r, http.StatusBadRequest, "Invalid year filter: "+raw)
			return
		}
	}
	params := store.TitleListParams{
		ListParams: parseListParams(r),
		Genre:      queryParams.Get("genre"),
		Category:   queryParams.Get("category"),
		Year:       year,
		Name:       queryParams.Get("name"),
	}

	titles, totalCount, err := h.stores.Titles.ListTitles(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list titles", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve titles")
		return
	}
	for _, title := range titles {
		if err := h.attachRating(r, title); err != nil {
			h.logger.ErrorContext(ctx, "Failed to compute title rating", slog.String("titleID", title.ID), slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve titles")
			return
		}
	}
	h.respondJSON(w, r, http.StatusOK, listResponse{
		Results:    titles,
		TotalCount: totalCount,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
}

// CreateTitle создает произведение. Доступно только администратору.
func (h *Handler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	if !h.allowAdminOrReadOnly(w, r) {
		return
	}
	ctx := r.Context()

	var req domain.CreateTitleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := domain.ValidateYear(req.Year); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	category, genres, ok := h.resolveCategoryAndGenres(w, r, req.Category, req.Genres)
	if !ok {
		return
	}

	title := &domain.Title{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    category,
		Genres:      genres,
	}
	if err := h.stores.Titles.CreateTitle(ctx, title); err != nil {
		h.logger.ErrorContext(ctx, "Failed to create title", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to create title")
		return
	}
	h.logger.InfoContext(ctx, "Title created", slog.String("titleID", title.ID), slog.String("name", title.Name))
	h.respondJSON(w, r, http.StatusCreated, title)
}

// GetTitle возвращает произведение с вычисленным рейтингом. Доступно
// без токена.
func (h *Handler) GetTitle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	titleID := mux.Vars(r)["titleID"]

	title, err := h.stores.Titles.GetTitleByID(ctx, titleID)
	if err != nil {
		if errors.Is(err, store.ErrTitleNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Title not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get title", slog.String("titleID", titleID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve title")
		return
	}
	if err := h.attachRating(r, title); err != nil {
		h.logger.ErrorContext(ctx, "Failed to compute title rating", slog.String("titleID", titleID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to retrieve title")
		return
	}
	h.respondJSON(w, r, http.StatusOK, title)
}

// UpdateTitle частично обновляет произведение. Доступно только
// администратору.
func (h *Handler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	if !h.allowAdminOrReadOnly(w, r) {
		return
	}
	ctx := r.Context()
	titleID := mux.Vars(r)["titleID"]

	var req domain.UpdateTitleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if req.Year != nil {
		if err := domain.ValidateYear(*req.Year); err != nil {
			h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
			return
		}
	}

	title, err := h.stores.Titles.GetTitleByID(ctx, titleID)
	if err != nil {
		if errors.Is(err, store.ErrTitleNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Title not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to get title for update", slog.String("titleID", titleID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update title")
		return
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if req.Category != nil || len(req.Genres) > 0 {
		categorySlug := ""
		if req.Category != nil {
			categorySlug = *req.Category
		} else if title.Category != nil {
			categorySlug = title.Category.Slug
		}
		genreSlugs := req.Genres
		if len(genreSlugs) == 0 {
			for _, g := range title.Genres {
				genreSlugs = append(genreSlugs, g.Slug)
			}
		}
		category, genres, ok := h.resolveCategoryAndGenres(w, r, categorySlug, genreSlugs)
		if !ok {
			return
		}
		title.Category = category
		title.Genres = genres
	}

	if err := h.stores.Titles.UpdateTitle(ctx, title); err != nil {
		h.logger.ErrorContext(ctx, "Failed to update title", slog.String("titleID", titleID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update title")
		return
	}
	if err := h.attachRating(r, title); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, "Failed to update title")
		return
	}
	h.logger.InfoContext(ctx, "Title updated", slog.String("titleID", title.ID))
	h.respondJSON(w, r, http.StatusOK, title)
}

// DeleteTitle удаляет произведение вместе с отзывами и их комментариями.
// Доступно только администратору.
func (h *Handler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	if !h.allowAdminOrReadOnly(w, r) {
		return
	}
	ctx := r.Context()
	titleID := mux.Vars(r)["titleID"]

	if err := h.stores.Titles.DeleteTitle(ctx, titleID); err != nil {
		if errors.Is(err, store.ErrTitleNotFound) {
			h.respondError(w, r, http.StatusNotFound, "Title not found")
			return
		}
		h.logger.ErrorContext(ctx, "Failed to delete title", slog.String("titleID", titleID), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Failed to delete title")
		return
	}
	h.logger.InfoContext(ctx, "Title deleted", slog.String("titleID", titleID))
	h.respondJSON(w, r, http.StatusNoContent, nil)
}
