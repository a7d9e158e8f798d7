package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code3452/api-yamdb/internal/domain"
)

func newUser(username string) *domain.User {
	return &domain.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		Role:     domain.RoleUser,
	}
}

func TestMockStore_UserUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore()

	require.NoError(t, s.Create(ctx, newUser("alice")))

	// Повтор username или email конфликтует.
	assert.ErrorIs(t, s.Create(ctx, newUser("alice")), ErrUserAlreadyExists)
	dup := newUser("bob")
	dup.Email = "alice@example.com"
	assert.ErrorIs(t, s.Create(ctx, dup), ErrUserAlreadyExists)

	// Обновление не может занять чужой username.
	require.NoError(t, s.Create(ctx, newUser("bob")))
	bob, err := s.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	bob.Username = "alice"
	assert.ErrorIs(t, s.Update(ctx, bob), ErrUserAlreadyExists)
}

func TestMockStore_DuplicateReview(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore()
	author := newUser("alice")
	require.NoError(t, s.Create(ctx, author))
	title := &domain.Title{ID: uuid.NewString(), Name: "Dune", Year: 2021}
	require.NoError(t, s.CreateTitle(ctx, title))

	review := &domain.Review{ID: uuid.NewString(), TitleID: title.ID, AuthorID: author.ID, Author: "alice", Text: "x", Score: 7}
	require.NoError(t, s.CreateReview(ctx, review))

	second := &domain.Review{ID: uuid.NewString(), TitleID: title.ID, AuthorID: author.ID, Author: "alice", Text: "y", Score: 8}
	assert.ErrorIs(t, s.CreateReview(ctx, second), ErrDuplicateReview)

	// На другое произведение тот же автор писать может.
	otherTitle := &domain.Title{ID: uuid.NewString(), Name: "Alien", Year: 1979}
	require.NoError(t, s.CreateTitle(ctx, otherTitle))
	third := &domain.Review{ID: uuid.NewString(), TitleID: otherTitle.ID, AuthorID: author.ID, Author: "alice", Text: "z", Score: 9}
	assert.NoError(t, s.CreateReview(ctx, third))
}

func TestMockStore_DeleteGenreStripsTitles(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore()

	drama := &domain.Genre{ID: uuid.NewString(), Name: "Drama", Slug: "drama"}
	comedy := &domain.Genre{ID: uuid.NewString(), Name: "Comedy", Slug: "comedy"}
	require.NoError(t, s.CreateGenre(ctx, drama))
	require.NoError(t, s.CreateGenre(ctx, comedy))

	title := &domain.Title{ID: uuid.NewString(), Name: "Mix", Year: 2000, Genres: []domain.Genre{*drama, *comedy}}
	require.NoError(t, s.CreateTitle(ctx, title))

	require.NoError(t, s.DeleteGenre(ctx, "drama"))

	got, err := s.GetTitleByID(ctx, title.ID)
	require.NoError(t, err)
	require.Len(t, got.Genres, 1)
	assert.Equal(t, "comedy", got.Genres[0].Slug)
}

func TestMockStore_GetGenresBySlugs(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore()
	require.NoError(t, s.CreateGenre(ctx, &domain.Genre{ID: uuid.NewString(), Name: "Drama", Slug: "drama"}))

	genres, err := s.GetGenresBySlugs(ctx, []string{"drama"})
	require.NoError(t, err)
	require.Len(t, genres, 1)

	_, err = s.GetGenresBySlugs(ctx, []string{"drama", "missing"})
	assert.ErrorIs(t, err, ErrGenreNotFound)
}

func TestMockStore_ScoresByTitle(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore()
	title := &domain.Title{ID: uuid.NewString(), Name: "Dune", Year: 2021}
	require.NoError(t, s.CreateTitle(ctx, title))

	scores, err := s.ScoresByTitle(ctx, title.ID)
	require.NoError(t, err)
	assert.Empty(t, scores)

	for _, score := range []int{4, 9} {
		author := newUser(uuid.NewString()[:8] + "u")
		require.NoError(t, s.Create(ctx, author))
		review := &domain.Review{ID: uuid.NewString(), TitleID: title.ID, AuthorID: author.ID, Author: author.Username, Text: "t", Score: score}
		require.NoError(t, s.CreateReview(ctx, review))
	}

	scores, err = s.ScoresByTitle(ctx, title.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{4, 9}, scores)
}

func TestMockStore_ListPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore()
	for i := 0; i < 7; i++ {
		require.NoError(t, s.CreateCategory(ctx, &domain.Category{
			ID:   uuid.NewString(),
			Name: "Category",
			Slug: uuid.NewString(),
		}))
	}

	page, total, err := s.ListCategories(ctx, CatalogListParams{ListParams: ListParams{Page: 2, PageSize: 3}})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, page, 3)

	// Страница за пределами данных пуста, но total сохраняется.
	page, total, err = s.ListCategories(ctx, CatalogListParams{ListParams: ListParams{Page: 5, PageSize: 3}})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Empty(t, page)
}
