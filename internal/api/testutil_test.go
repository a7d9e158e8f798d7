package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/code3452/api-yamdb/internal/api"
	"github.com/code3452/api-yamdb/internal/domain"
	"github.com/code3452/api-yamdb/internal/mail"
	"github.com/code3452/api-yamdb/internal/store"
	"github.com/code3452/api-yamdb/pkg/auth"
)

// testEnv собирает сервис на in-memory зависимостях. Запросы идут через
// полный маршрутизатор, так что middleware и коды ответов проверяются
// так же, как в бою.
type testEnv struct {
	store  *store.MockStore
	mailer *mail.MockSender
	tokens auth.TokenManager
	router *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mockStore := store.NewMockStore()
	mockMailer := mail.NewMockSender()
	tokenManager, err := auth.NewTokenManager("unit-test-secret-key-0123456789ab", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := api.NewHandler(api.Stores{
		Users:      mockStore,
		Categories: mockStore,
		Genres:     mockStore,
		Titles:     mockStore,
		Reviews:    mockStore,
		Comments:   mockStore,
	}, logger, domain.NewValidator(), tokenManager, mockMailer)

	return &testEnv{
		store:  mockStore,
		mailer: mockMailer,
		tokens: tokenManager,
		router: api.NewRouter(handler),
	}
}

// do выполняет запрос через маршрутизатор. Пустой token означает
// анонимный запрос.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// listBody - форма ответа списковых эндпоинтов с сырыми результатами.
type listBody struct {
	Results    json.RawMessage `json:"results"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}

func (e *testEnv) addUser(t *testing.T, username, role string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:               uuid.NewString(),
		Username:         username,
		Email:            username + "@example.com",
		Role:             role,
		ConfirmationCode: uuid.NewString(),
	}
	require.NoError(t, e.store.Create(context.Background(), user))
	return user
}

// tokenFor выпускает access токен для пользователя.
func (e *testEnv) tokenFor(t *testing.T, user *domain.User) string {
	t.Helper()
	access, _, err := e.tokens.GeneratePair(user.ID, user.Username, user.Role, user.IsSuperuser)
	require.NoError(t, err)
	return access
}

func (e *testEnv) addCategory(t *testing.T, name, slug string) *domain.Category {
	t.Helper()
	category := &domain.Category{ID: uuid.NewString(), Name: name, Slug: slug}
	require.NoError(t, e.store.CreateCategory(context.Background(), category))
	return category
}

func (e *testEnv) addGenre(t *testing.T, name, slug string) *domain.Genre {
	t.Helper()
	genre := &domain.Genre{ID: uuid.NewString(), Name: name, Slug: slug}
	require.NoError(t, e.store.CreateGenre(context.Background(), genre))
	return genre
}

func (e *testEnv) addTitle(t *testing.T, name string, year int) *domain.Title {
	t.Helper()
	title := &domain.Title{ID: uuid.NewString(), Name: name, Year: year}
	require.NoError(t, e.store.CreateTitle(context.Background(), title))
	return title
}

func (e *testEnv) addReview(t *testing.T, title *domain.Title, author *domain.User, score int) *domain.Review {
	t.Helper()
	review := &domain.Review{
		ID:       uuid.NewString(),
		TitleID:  title.ID,
		AuthorID: author.ID,
		Author:   author.Username,
		Text:     "review text",
		Score:    score,
	}
	require.NoError(t, e.store.CreateReview(context.Background(), review))
	return review
}

func (e *testEnv) addComment(t *testing.T, review *domain.Review, author *domain.User) *domain.Comment {
	t.Helper()
	comment := &domain.Comment{
		ID:       uuid.NewString(),
		ReviewID: review.ID,
		AuthorID: author.ID,
		Author:   author.Username,
		Text:     "comment text",
	}
	require.NoError(t, e.store.CreateComment(context.Background(), comment))
	return comment
}
