package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/code3452/api-yamdb/internal/domain"
)

// MockStore - in-memory реализация всех интерфейсов хранилищ для тестов
// и локальной разработки. Воспроизводит семантику ограничений боевой
// схемы: уникальность username/email/слагов, уникальность пары
// (произведение, автор) у отзывов, каскадные удаления и обнуление
// категории у произведений при ее удалении.
//
// Сущности хранятся в слайсах в порядке создания, поэтому сортировка
// "по возрастанию id создания" получается бесплатно.
type MockStore struct {
	mu         sync.RWMutex
	users      []*domain.User
	categories []*domain.Category
	genres     []*domain.Genre
	titles     []*domain.Title
	reviews    []*domain.Review
	comments   []*domain.Comment
}

// NewMockStore создает пустой MockStore.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// paginate возвращает границы страницы для слайса длиной total.
func paginate(params ListParams, total int) (start, end int) {
	start = (params.Page - 1) * params.PageSize
	end = start + params.PageSize
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return start, end
}

// containsFold сообщает, входит ли substr в s без учета регистра.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// --- UserStore ---

func (m *MockStore) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrUserAlreadyExists
		}
	}

	userCopy := *user
	userCopy.CreatedAt = time.Now().UTC()
	userCopy.UpdatedAt = userCopy.CreatedAt
	m.users = append(m.users, &userCopy)
	return nil
}

func (m *MockStore) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == userID {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockStore) GetByUsernameAndEmail(ctx context.Context, username, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username && u.Email == email {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockStore) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, u := range m.users {
		if u.ID != user.ID {
			continue
		}
		// Уникальность нового username/email среди остальных пользователей.
		for _, other := range m.users {
			if other.ID != user.ID && (other.Username == user.Username || other.Email == user.Email) {
				return ErrUserAlreadyExists
			}
		}
		userCopy := *user
		userCopy.CreatedAt = u.CreatedAt
		userCopy.UpdatedAt = time.Now().UTC()
		m.users[i] = &userCopy
		return nil
	}
	return ErrUserNotFound
}

func (m *MockStore) Delete(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted *domain.User
	kept := m.users[:0]
	for _, u := range m.users {
		if u.Username == username {
			deleted = u
			continue
		}
		kept = append(kept, u)
	}
	if deleted == nil {
		return ErrUserNotFound
	}
	m.users = kept

	// Каскад: отзывы автора вместе с их комментариями, затем
	// комментарии автора под чужими отзывами.
	for _, r := range m.reviews {
		if r.AuthorID == deleted.ID {
			m.dropCommentsByReviewLocked(r.ID)
		}
	}
	m.reviews = filterReviews(m.reviews, func(r *domain.Review) bool { return r.AuthorID != deleted.ID })
	m.comments = filterComments(m.comments, func(c *domain.Comment) bool { return c.AuthorID != deleted.ID })
	return nil
}

func (m *MockStore) List(ctx context.Context, params UserListParams) ([]*domain.User, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []*domain.User
	for _, u := range m.users {
		if params.Username != "" && u.Username != params.Username {
			continue
		}
		if params.Search != "" && !containsFold(u.Username, params.Search) {
			continue
		}
		userCopy := *u
		filtered = append(filtered, &userCopy)
	}
	total := len(filtered)
	start, end := paginate(params.ListParams, total)
	return filtered[start:end], total, nil
}

// --- CategoryStore ---

func (m *MockStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.categories {
		if c.Slug == category.Slug {
			return ErrCategoryAlreadyExists
		}
	}
	categoryCopy := *category
	categoryCopy.CreatedAt = time.Now().UTC()
	m.categories = append(m.categories, &categoryCopy)
	return nil
}

func (m *MockStore) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			categoryCopy := *c
			return &categoryCopy, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (m *MockStore) ListCategories(ctx context.Context, params CatalogListParams) ([]*domain.Category, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []*domain.Category
	for _, c := range m.categories {
		if params.Search != "" && !containsFold(c.Name, params.Search) {
			continue
		}
		categoryCopy := *c
		filtered = append(filtered, &categoryCopy)
	}
	total := len(filtered)
	start, end := paginate(params.ListParams, total)
	return filtered[start:end], total, nil
}

func (m *MockStore) DeleteCategory(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	kept := m.categories[:0]
	for _, c := range m.categories {
		if c.Slug == slug {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrCategoryNotFound
	}
	m.categories = kept

	// SET NULL: произведения остаются, но теряют категорию.
	for _, t := range m.titles {
		if t.Category != nil && t.Category.Slug == slug {
			t.Category = nil
		}
	}
	return nil
}

// --- GenreStore ---

func (m *MockStore) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.genres {
		if g.Slug == genre.Slug {
			return ErrGenreAlreadyExists
		}
	}
	genreCopy := *genre
	genreCopy.CreatedAt = time.Now().UTC()
	m.genres = append(m.genres, &genreCopy)
	return nil
}

func (m *MockStore) GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.genres {
		if g.Slug == slug {
			genreCopy := *g
			return &genreCopy, nil
		}
	}
	return nil, ErrGenreNotFound
}

func (m *MockStore) GetGenresBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	genres := make([]domain.Genre, 0, len(slugs))
	for _, slug := range slugs {
		found := false
		for _, g := range m.genres {
			if g.Slug == slug {
				genres = append(genres, *g)
				found = true
				break
			}
		}
		if !found {
			return nil, ErrGenreNotFound
		}
	}
	return genres, nil
}

func (m *MockStore) ListGenres(ctx context.Context, params CatalogListParams) ([]*domain.Genre, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []*domain.Genre
	for _, g := range m.genres {
		if params.Search != "" && !containsFold(g.Name, params.Search) {
			continue
		}
		genreCopy := *g
		filtered = append(filtered, &genreCopy)
	}
	total := len(filtered)
	start, end := paginate(params.ListParams, total)
	return filtered[start:end], total, nil
}

func (m *MockStore) DeleteGenre(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	kept := m.genres[:0]
	for _, g := range m.genres {
		if g.Slug == slug {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return ErrGenreNotFound
	}
	m.genres = kept

	// Удаляется только связь произведение-жанр, сами произведения остаются.
	for _, t := range m.titles {
		keptGenres := t.Genres[:0]
		for _, g := range t.Genres {
			if g.Slug != slug {
				keptGenres = append(keptGenres, g)
			}
		}
		t.Genres = keptGenres
	}
	return nil
}

// --- TitleStore ---

func (m *MockStore) CreateTitle(ctx context.Context, title *domain.Title) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	titleCopy := copyTitle(title)
	titleCopy.CreatedAt = time.Now().UTC()
	titleCopy.UpdatedAt = titleCopy.CreatedAt
	m.titles = append(m.titles, titleCopy)
	return nil
}

func (m *MockStore) GetTitleByID(ctx context.Context, titleID string) (*domain.Title, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.titles {
		if t.ID == titleID {
			return copyTitle(t), nil
		}
	}
	return nil, ErrTitleNotFound
}

func (m *MockStore) ListTitles(ctx context.Context, params TitleListParams) ([]*domain.Title, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []*domain.Title
	for _, t := range m.titles {
		if params.Category != "" && (t.Category == nil || t.Category.Slug != params.Category) {
			continue
		}
		if params.Genre != "" && !titleHasGenre(t, params.Genre) {
			continue
		}
		if params.Year != 0 && t.Year != params.Year {
			continue
		}
		if params.Name != "" && !containsFold(t.Name, params.Name) {
			continue
		}
		filtered = append(filtered, copyTitle(t))
	}
	total := len(filtered)
	start, end := paginate(params.ListParams, total)
	return filtered[start:end], total, nil
}

func (m *MockStore) UpdateTitle(ctx context.Context, title *domain.Title) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.titles {
		if t.ID == title.ID {
			titleCopy := copyTitle(title)
			titleCopy.CreatedAt = t.CreatedAt
			titleCopy.UpdatedAt = time.Now().UTC()
			m.titles[i] = titleCopy
			return nil
		}
	}
	return ErrTitleNotFound
}

func (m *MockStore) DeleteTitle(ctx context.Context, titleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	kept := m.titles[:0]
	for _, t := range m.titles {
		if t.ID == titleID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return ErrTitleNotFound
	}
	m.titles = kept

	// Каскад: отзывы произведения и их комментарии.
	for _, r := range m.reviews {
		if r.TitleID == titleID {
			m.dropCommentsByReviewLocked(r.ID)
		}
	}
	m.reviews = filterReviews(m.reviews, func(r *domain.Review) bool { return r.TitleID != titleID })
	return nil
}

// --- ReviewStore ---

func (m *MockStore) CreateReview(ctx context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reviews {
		if r.TitleID == review.TitleID && r.AuthorID == review.AuthorID {
			return ErrDuplicateReview
		}
	}
	reviewCopy := *review
	reviewCopy.PubDate = time.Now().UTC()
	m.reviews = append(m.reviews, &reviewCopy)
	review.PubDate = reviewCopy.PubDate
	return nil
}

func (m *MockStore) GetReviewByID(ctx context.Context, titleID, reviewID string) (*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.reviews {
		if r.ID == reviewID && r.TitleID == titleID {
			reviewCopy := *r
			return &reviewCopy, nil
		}
	}
	return nil, ErrReviewNotFound
}

func (m *MockStore) ListReviewsByTitle(ctx context.Context, titleID string, params ListParams) ([]*domain.Review, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []*domain.Review
	for _, r := range m.reviews {
		if r.TitleID == titleID {
			reviewCopy := *r
			filtered = append(filtered, &reviewCopy)
		}
	}
	total := len(filtered)
	start, end := paginate(params, total)
	return filtered[start:end], total, nil
}

func (m *MockStore) ScoresByTitle(ctx context.Context, titleID string) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var scores []int
	for _, r := range m.reviews {
		if r.TitleID == titleID {
			scores = append(scores, r.Score)
		}
	}
	return scores, nil
}

func (m *MockStore) UpdateReview(ctx context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reviews {
		if r.ID == review.ID {
			r.Text = review.Text
			r.Score = review.Score
			return nil
		}
	}
	return ErrReviewNotFound
}

func (m *MockStore) DeleteReview(ctx context.Context, titleID, reviewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	kept := m.reviews[:0]
	for _, r := range m.reviews {
		if r.ID == reviewID && r.TitleID == titleID {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return ErrReviewNotFound
	}
	m.reviews = kept
	m.dropCommentsByReviewLocked(reviewID)
	return nil
}

// --- CommentStore ---

func (m *MockStore) CreateComment(ctx context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	commentCopy := *comment
	commentCopy.PubDate = time.Now().UTC()
	m.comments = append(m.comments, &commentCopy)
	comment.PubDate = commentCopy.PubDate
	return nil
}

func (m *MockStore) GetCommentByID(ctx context.Context, reviewID, commentID string) (*domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.comments {
		if c.ID == commentID && c.ReviewID == reviewID {
			commentCopy := *c
			return &commentCopy, nil
		}
	}
	return nil, ErrCommentNotFound
}

func (m *MockStore) ListCommentsByReview(ctx context.Context, reviewID string, params ListParams) ([]*domain.Comment, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []*domain.Comment
	for _, c := range m.comments {
		if c.ReviewID == reviewID {
			commentCopy := *c
			filtered = append(filtered, &commentCopy)
		}
	}
	total := len(filtered)
	start, end := paginate(params, total)
	return filtered[start:end], total, nil
}

func (m *MockStore) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.comments {
		if c.ID == comment.ID {
			c.Text = comment.Text
			return nil
		}
	}
	return ErrCommentNotFound
}

func (m *MockStore) DeleteComment(ctx context.Context, reviewID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	kept := m.comments[:0]
	for _, c := range m.comments {
		if c.ID == commentID && c.ReviewID == reviewID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrCommentNotFound
	}
	m.comments = kept
	return nil
}

// --- Вспомогательные функции ---

// dropCommentsByReviewLocked удаляет комментарии отзыва. Вызывающий
// должен держать m.mu.
func (m *MockStore) dropCommentsByReviewLocked(reviewID string) {
	m.comments = filterComments(m.comments, func(c *domain.Comment) bool { return c.ReviewID != reviewID })
}

func filterReviews(reviews []*domain.Review, keep func(*domain.Review) bool) []*domain.Review {
	out := reviews[:0]
	for _, r := range reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func filterComments(comments []*domain.Comment, keep func(*domain.Comment) bool) []*domain.Comment {
	out := comments[:0]
	for _, c := range comments {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func copyTitle(t *domain.Title) *domain.Title {
	titleCopy := *t
	if t.Category != nil {
		categoryCopy := *t.Category
		titleCopy.Category = &categoryCopy
	}
	titleCopy.Genres = append([]domain.Genre(nil), t.Genres...)
	titleCopy.Rating = nil // Рейтинг всегда пересчитывается на чтении
	return &titleCopy
}

func titleHasGenre(t *domain.Title, slug string) bool {
	for _, g := range t.Genres {
		if g.Slug == slug {
			return true
		}
	}
	return false
}
