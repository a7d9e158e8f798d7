package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code3452/api-yamdb/internal/domain"
	"github.com/code3452/api-yamdb/internal/store"
)

func reviewsPath(title *domain.Title) string {
	return "/api/v1/titles/" + title.ID + "/reviews/"
}

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)
	user := env.addUser(t, "alice", domain.RoleUser)

	rec := env.do(t, http.MethodPost, reviewsPath(title), env.tokenFor(t, user), map[string]interface{}{
		"text":  "Отличный фильм",
		"score": 9,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var body domain.Review
	decodeBody(t, rec, &body)
	assert.Equal(t, "alice", body.Author)
	assert.Equal(t, 9, body.Score)
	assert.False(t, body.PubDate.IsZero())
}

func TestCreateReview_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)

	rec := env.do(t, http.MethodPost, reviewsPath(title), "", map[string]interface{}{
		"text": "anon", "score": 5,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateReview_UnknownTitle(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice", domain.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/v1/titles/no-such-title/reviews/", env.tokenFor(t, user), map[string]interface{}{
		"text": "void", "score": 5,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReview_DuplicateByAuthor(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)
	user := env.addUser(t, "alice", domain.RoleUser)
	token := env.tokenFor(t, user)
	payload := map[string]interface{}{"text": "first", "score": 7}

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, reviewsPath(title), token, payload).Code)

	// Второй отзыв того же автора конфликтует, от другого - нет.
	rec := env.do(t, http.MethodPost, reviewsPath(title), token, payload)
	assert.Equal(t, http.StatusConflict, rec.Code)

	other := env.addUser(t, "bob", domain.RoleUser)
	rec = env.do(t, http.MethodPost, reviewsPath(title), env.tokenFor(t, other), payload)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateReview_ScoreBounds(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)
	user := env.addUser(t, "alice", domain.RoleUser)
	token := env.tokenFor(t, user)

	for _, score := range []int{0, 11, -3} {
		rec := env.do(t, http.MethodPost, reviewsPath(title), token, map[string]interface{}{
			"text": "bad score", "score": score,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "score %d must be rejected", score)
	}
}

func TestListReviews(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)
	alice := env.addUser(t, "alice", domain.RoleUser)
	bob := env.addUser(t, "bob", domain.RoleUser)
	first := env.addReview(t, title, alice, 6)
	env.addReview(t, title, bob, 8)

	rec := env.do(t, http.MethodGet, reviewsPath(title), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body listBody
	decodeBody(t, rec, &body)
	assert.Equal(t, 2, body.TotalCount)

	var reviews []domain.Review
	require.NoError(t, json.Unmarshal(body.Results, &reviews))
	require.Len(t, reviews, 2)
	// Порядок публикации: старые первыми.
	assert.Equal(t, first.ID, reviews[0].ID)

	rec = env.do(t, http.MethodGet, "/api/v1/titles/no-such-title/reviews/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReview_ScopedToTitle(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)
	otherTitle := env.addTitle(t, "Alien", 1979)
	user := env.addUser(t, "alice", domain.RoleUser)
	review := env.addReview(t, title, user, 7)

	rec := env.do(t, http.MethodGet, reviewsPath(title)+review.ID+"/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Тот же отзыв под чужим произведением не виден.
	rec = env.do(t, http.MethodGet, reviewsPath(otherTitle)+review.ID+"/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReview_OwnershipRules(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)
	author := env.addUser(t, "alice", domain.RoleUser)
	stranger := env.addUser(t, "bob", domain.RoleUser)
	moderator := env.addUser(t, "mod", domain.RoleModerator)
	review := env.addReview(t, title, author, 5)
	path := reviewsPath(title) + review.ID + "/"

	// Аноним - 401, чужой пользователь - 403.
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPatch, path, "", map[string]interface{}{"score": 6}).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPatch, path, env.tokenFor(t, stranger), map[string]interface{}{"score": 6}).Code)

	// Автор меняет свой отзыв.
	rec := env.do(t, http.MethodPatch, path, env.tokenFor(t, author), map[string]interface{}{"score": 6})
	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.Review
	decodeBody(t, rec, &body)
	assert.Equal(t, 6, body.Score)
	assert.Equal(t, "review text", body.Text)

	// Модератор правит чужой.
	rec = env.do(t, http.MethodPatch, path, env.tokenFor(t, moderator), map[string]interface{}{"text": "moderated"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &body)
	assert.Equal(t, "moderated", body.Text)
	assert.Equal(t, 6, body.Score)
}

func TestDeleteReview(t *testing.T) {
	env := newTestEnv(t)
	title := env.addTitle(t, "Dune", 2021)
	author := env.addUser(t, "alice", domain.RoleUser)
	stranger := env.addUser(t, "bob", domain.RoleUser)
	review := env.addReview(t, title, author, 5)
	env.addComment(t, review, stranger)
	path := reviewsPath(title) + review.ID + "/"

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, env.tokenFor(t, stranger), nil).Code)

	rec := env.do(t, http.MethodDelete, path, env.tokenFor(t, author), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Комментарии ушли вместе с отзывом.
	_, total, err := env.store.ListCommentsByReview(context.Background(), review.ID, store.ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)

	rec = env.do(t, http.MethodDelete, path, env.tokenFor(t, author), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
