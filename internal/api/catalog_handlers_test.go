package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code3452/api-yamdb/internal/domain"
	"github.com/code3452/api-yamdb/internal/store"
)

func TestCategories_CRUD(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)
	token := env.tokenFor(t, admin)

	rec := env.do(t, http.MethodPost, "/api/v1/categories/", token, map[string]string{
		"name": "Фильмы",
		"slug": "movies",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Дубликат слага отклоняется.
	rec = env.do(t, http.MethodPost, "/api/v1/categories/", token, map[string]string{
		"name": "Другие фильмы",
		"slug": "movies",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Список читается без токена.
	rec = env.do(t, http.MethodGet, "/api/v1/categories/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body listBody
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.TotalCount)

	rec = env.do(t, http.MethodDelete, "/api/v1/categories/movies/", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/categories/movies/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategories_WriteRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	regular := env.addUser(t, "bob", domain.RoleUser)
	moderator := env.addUser(t, "mod", domain.RoleModerator)
	payload := map[string]string{"name": "Books", "slug": "books"}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/v1/categories/", "", payload).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/categories/", env.tokenFor(t, regular), payload).Code)
	// Модератор управляет контентом, но не каталогом.
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/categories/", env.tokenFor(t, moderator), payload).Code)
}

func TestCategories_InvalidSlug(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/api/v1/categories/", env.tokenFor(t, admin), map[string]string{
		"name": "Bad",
		"slug": "no spaces!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenres_CRUD(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)
	token := env.tokenFor(t, admin)

	rec := env.do(t, http.MethodPost, "/api/v1/genres/", token, map[string]string{
		"name": "Drama",
		"slug": "drama",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/genres/?search=dra", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body listBody
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.TotalCount)

	rec = env.do(t, http.MethodDelete, "/api/v1/genres/drama/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateTitle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)
	env.addCategory(t, "Фильмы", "movies")
	env.addGenre(t, "Drama", "drama")
	env.addGenre(t, "Sci-Fi", "sci-fi")

	rec := env.do(t, http.MethodPost, "/api/v1/titles/", env.tokenFor(t, admin), map[string]interface{}{
		"name":     "Dune",
		"year":     2021,
		"genre":    []string{"drama", "sci-fi"},
		"category": "movies",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var body domain.Title
	decodeBody(t, rec, &body)
	assert.Equal(t, "Dune", body.Name)
	require.NotNil(t, body.Category)
	assert.Equal(t, "movies", body.Category.Slug)
	require.Len(t, body.Genres, 2)
	assert.Nil(t, body.Rating)
}

func TestCreateTitle_Validation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)
	token := env.tokenFor(t, admin)
	env.addGenre(t, "Drama", "drama")

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"future year", map[string]interface{}{
			"name": "Later", "year": time.Now().Year() + 1, "genre": []string{"drama"},
		}},
		{"no genres", map[string]interface{}{
			"name": "Empty", "year": 2000, "genre": []string{},
		}},
		{"unknown genre slug", map[string]interface{}{
			"name": "Ghost", "year": 2000, "genre": []string{"nope"},
		}},
		{"unknown category slug", map[string]interface{}{
			"name": "Ghost", "year": 2000, "genre": []string{"drama"}, "category": "nope",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/titles/", token, tc.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// Обычному пользователю создание недоступно.
	regular := env.addUser(t, "bob", domain.RoleUser)
	rec := env.do(t, http.MethodPost, "/api/v1/titles/", env.tokenFor(t, regular), map[string]interface{}{
		"name": "Dune", "year": 2021, "genre": []string{"drama"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetTitle_RatingFromReviews(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)
	alice := env.addUser(t, "alice", domain.RoleUser)
	bob := env.addUser(t, "bob", domain.RoleUser)

	// Без отзывов рейтинг null.
	rec := env.do(t, http.MethodGet, "/api/v1/titles/"+title.ID+"/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.Title
	decodeBody(t, rec, &body)
	assert.Nil(t, body.Rating)

	env.addReview(t, title, alice, 6)
	env.addReview(t, title, bob, 8)

	rec = env.do(t, http.MethodGet, "/api/v1/titles/"+title.ID+"/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &body)
	require.NotNil(t, body.Rating)
	assert.InDelta(t, 7.0, *body.Rating, 0.001)
}

func TestListTitles_Filters(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)
	token := env.tokenFor(t, admin)
	env.addCategory(t, "Фильмы", "movies")
	env.addCategory(t, "Книги", "books")
	env.addGenre(t, "Drama", "drama")
	env.addGenre(t, "Comedy", "comedy")

	create := func(name string, year int, genre, category string) {
		rec := env.do(t, http.MethodPost, "/api/v1/titles/", token, map[string]interface{}{
			"name": name, "year": year, "genre": []string{genre}, "category": category,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	create("Dune", 2021, "drama", "movies")
	create("Dune the book", 1965, "drama", "books")
	create("Airplane", 1980, "comedy", "movies")

	tests := []struct {
		query string
		want  int
	}{
		{"?category=movies", 2},
		{"?genre=drama", 2},
		{"?year=1965", 1},
		{"?name=dune", 2},
		{"?category=movies&genre=comedy", 1},
		{"?category=nope", 0},
	}
	for _, tc := range tests {
		rec := env.do(t, http.MethodGet, "/api/v1/titles/"+tc.query, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, tc.query)
		var body listBody
		decodeBody(t, rec, &body)
		assert.Equal(t, tc.want, body.TotalCount, tc.query)
	}

	// Нечисловой год - ошибка фильтра, а не его отсутствие.
	rec := env.do(t, http.MethodGet, "/api/v1/titles/?year=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTitle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)
	token := env.tokenFor(t, admin)
	env.addCategory(t, "Фильмы", "movies")
	env.addGenre(t, "Drama", "drama")
	env.addGenre(t, "Comedy", "comedy")

	rec := env.do(t, http.MethodPost, "/api/v1/titles/", token, map[string]interface{}{
		"name": "Dune", "year": 2021, "genre": []string{"drama"}, "category": "movies",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Title
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodPatch, "/api/v1/titles/"+created.ID+"/", token, map[string]interface{}{
		"description": "updated",
		"genre":       []string{"comedy"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.Title
	decodeBody(t, rec, &updated)
	assert.Equal(t, "updated", updated.Description)
	require.Len(t, updated.Genres, 1)
	assert.Equal(t, "comedy", updated.Genres[0].Slug)
	// Не тронутые поля сохраняются.
	assert.Equal(t, "Dune", updated.Name)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "movies", updated.Category.Slug)
}

func TestDeleteTitle_CascadesReviews(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)
	author := env.addUser(t, "alice", domain.RoleUser)
	title := env.addTitle(t, "Dune", 2021)
	review := env.addReview(t, title, author, 9)
	env.addComment(t, review, author)

	rec := env.do(t, http.MethodDelete, "/api/v1/titles/"+title.ID+"/", env.tokenFor(t, admin), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.store.GetTitleByID(context.Background(), title.ID)
	assert.ErrorIs(t, err, store.ErrTitleNotFound)
	_, err = env.store.GetReviewByID(context.Background(), title.ID, review.ID)
	assert.ErrorIs(t, err, store.ErrReviewNotFound)
	_, total, err := env.store.ListCommentsByReview(context.Background(), review.ID, store.ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeleteCategory_KeepsTitles(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "admin", domain.RoleAdmin)
	token := env.tokenFor(t, admin)
	env.addCategory(t, "Фильмы", "movies")
	env.addGenre(t, "Drama", "drama")

	rec := env.do(t, http.MethodPost, "/api/v1/titles/", token, map[string]interface{}{
		"name": "Dune", "year": 2021, "genre": []string{"drama"}, "category": "movies",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Title
	decodeBody(t, rec, &created)

	rec = env.do(t, http.MethodDelete, "/api/v1/categories/movies/", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Произведение осталось, но потеряло категорию.
	rec = env.do(t, http.MethodGet, "/api/v1/titles/"+created.ID+"/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]json.RawMessage
	decodeBody(t, rec, &raw)
	assert.Equal(t, "null", string(raw["category"]))
}
