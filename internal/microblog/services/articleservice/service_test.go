package articleservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/domain/policy"
	repo "github.com/mberezin/microblog/internal/microblog/repository/articlerepo"
	"github.com/mberezin/microblog/internal/microblog/services/articleservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockArticleRepo struct {
	createArticleFunc func(ctx context.Context, a models.Article, tagIDs []int64) (int64, error)
	getArticleFunc    func(ctx context.Context, id int64) (models.Article, error)
	listArticlesFunc  func(ctx context.Context, req repo.ListRequest) ([]models.Article, int, error)
	updateArticleFunc func(ctx context.Context, a models.Article, tagIDs []int64, replaceTags bool) error
	deleteArticleFunc func(ctx context.Context, id int64) error
	toggleLikeFunc    func(ctx context.Context, userID, articleID int64) (bool, error)
	listTagsFunc      func(ctx context.Context) ([]models.Tag, error)
	createTagFunc     func(ctx context.Context, name string) (models.Tag, error)
}

func (m *mockArticleRepo) CreateArticle(ctx context.Context, a models.Article, tagIDs []int64) (int64, error) {
	if m.createArticleFunc != nil {
		return m.createArticleFunc(ctx, a, tagIDs)
	}

	return 0, errors.New("not implemented")
}

func (m *mockArticleRepo) GetArticle(ctx context.Context, id int64) (models.Article, error) {
	if m.getArticleFunc != nil {
		return m.getArticleFunc(ctx, id)
	}

	return models.Article{}, errors.New("not implemented")
}

func (m *mockArticleRepo) ListArticles(ctx context.Context, req repo.ListRequest) ([]models.Article, int, error) {
	if m.listArticlesFunc != nil {
		return m.listArticlesFunc(ctx, req)
	}

	return nil, 0, errors.New("not implemented")
}

func (m *mockArticleRepo) UpdateArticle(ctx context.Context, a models.Article, tagIDs []int64, replaceTags bool) error {
	if m.updateArticleFunc != nil {
		return m.updateArticleFunc(ctx, a, tagIDs, replaceTags)
	}

	return errors.New("not implemented")
}

func (m *mockArticleRepo) DeleteArticle(ctx context.Context, id int64) error {
	if m.deleteArticleFunc != nil {
		return m.deleteArticleFunc(ctx, id)
	}

	return errors.New("not implemented")
}

func (m *mockArticleRepo) ToggleLike(ctx context.Context, userID, articleID int64) (bool, error) {
	if m.toggleLikeFunc != nil {
		return m.toggleLikeFunc(ctx, userID, articleID)
	}

	return false, errors.New("not implemented")
}

func (m *mockArticleRepo) ListTags(ctx context.Context) ([]models.Tag, error) {
	if m.listTagsFunc != nil {
		return m.listTagsFunc(ctx)
	}

	return nil, errors.New("not implemented")
}

func (m *mockArticleRepo) CreateTag(ctx context.Context, name string) (models.Tag, error) {
	if m.createTagFunc != nil {
		return m.createTagFunc(ctx, name)
	}

	return models.Tag{}, errors.New("not implemented")
}

func (m *mockArticleRepo) Shutdown(_ context.Context) error {
	return nil
}

type mockCache struct {
	articles map[int64]models.Article
	saves    int
	hits     int
}

func newMockCache() *mockCache {
	return &mockCache{articles: make(map[int64]models.Article)} //nolint:exhaustruct
}

func (m *mockCache) SaveArticle(_ context.Context, a models.Article) error {
	m.articles[a.ID] = a
	m.saves++

	return nil
}

func (m *mockCache) GetArticle(_ context.Context, id int64) (models.Article, error) {
	a, ok := m.articles[id]
	if !ok {
		return models.Article{}, repo.ErrNotFound
	}

	m.hits++

	return a, nil
}

func (m *mockCache) DeleteArticle(_ context.Context, id int64) error {
	delete(m.articles, id)

	return nil
}

type nopLogger struct{}

func (nopLogger) Info(args ...interface{})                    {}
func (nopLogger) Infof(template string, args ...interface{})  {}
func (nopLogger) Warnf(template string, args ...interface{})  {}
func (nopLogger) Error(args ...interface{})                   {}
func (nopLogger) Errorf(template string, args ...interface{}) {}

func reader(id int64) *models.Identity {
	return &models.Identity{UserID: id, Email: "reader@example.com", Role: models.RoleReader}
}

func editor(id int64) *models.Identity {
	return &models.Identity{UserID: id, Email: "editor@example.com", Role: models.RoleEditor}
}

func storedArticle(id, authorID int64, published bool) models.Article {
	return models.Article{ //nolint:exhaustruct
		ID:        id,
		Title:     "title",
		Content:   "content",
		Published: published,
		AuthorID:  authorID,
	}
}

func TestListArticlesVisibility(t *testing.T) {
	var gotReq repo.ListRequest

	r := &mockArticleRepo{ //nolint:exhaustruct
		listArticlesFunc: func(_ context.Context, req repo.ListRequest) ([]models.Article, int, error) {
			gotReq = req

			return []models.Article{storedArticle(1, 1, true)}, 1, nil
		},
	}
	s := articleservice.New(r, newMockCache(), nopLogger{})

	_, _, err := s.ListArticles(context.Background(), nil, articleservice.ListRequest{Page: 1, Limit: 10, Tag: " Tech "})
	require.NoError(t, err)
	assert.True(t, gotReq.PublishedOnly)
	assert.Equal(t, "tech", gotReq.Tag)

	_, _, err = s.ListArticles(context.Background(), reader(2), articleservice.ListRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.True(t, gotReq.PublishedOnly)

	_, _, err = s.ListArticles(context.Background(), editor(2), articleservice.ListRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.False(t, gotReq.PublishedOnly)
}

func TestGetArticleCaching(t *testing.T) {
	repoCalls := 0

	r := &mockArticleRepo{ //nolint:exhaustruct
		getArticleFunc: func(_ context.Context, id int64) (models.Article, error) {
			repoCalls++

			return storedArticle(id, 1, true), nil
		},
	}
	cache := newMockCache()
	s := articleservice.New(r, cache, nopLogger{})

	// First anonymous read misses the cache and fills it.
	_, err := s.GetArticle(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, repoCalls)
	assert.Equal(t, 1, cache.saves)

	// Second anonymous read is served from the cache.
	_, err = s.GetArticle(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, repoCalls)
	assert.Equal(t, 1, cache.hits)

	// Authenticated reads bypass the cache.
	_, err = s.GetArticle(context.Background(), reader(2), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, repoCalls)
}

func TestGetArticleUnpublishedNotCached(t *testing.T) {
	r := &mockArticleRepo{ //nolint:exhaustruct
		getArticleFunc: func(_ context.Context, id int64) (models.Article, error) {
			return storedArticle(id, 1, false), nil
		},
	}
	cache := newMockCache()
	s := articleservice.New(r, cache, nopLogger{})

	_, err := s.GetArticle(context.Background(), reader(1), 10)
	require.NoError(t, err)
	assert.Zero(t, cache.saves)

	var denied *policy.DeniedError

	_, err = s.GetArticle(context.Background(), reader(2), 10)
	require.ErrorAs(t, err, &denied)

	_, err = s.GetArticle(context.Background(), nil, 10)
	require.ErrorAs(t, err, &denied)
}

func TestGetArticleNotFound(t *testing.T) {
	r := &mockArticleRepo{ //nolint:exhaustruct
		getArticleFunc: func(_ context.Context, _ int64) (models.Article, error) {
			return models.Article{}, repo.ErrNotFound
		},
	}
	s := articleservice.New(r, newMockCache(), nopLogger{})

	_, err := s.GetArticle(context.Background(), reader(1), 99)
	require.ErrorIs(t, err, articleservice.ErrNotFound)
}

func TestCreateArticle(t *testing.T) {
	var created models.Article
	var gotTags []int64

	r := &mockArticleRepo{ //nolint:exhaustruct
		createArticleFunc: func(_ context.Context, a models.Article, tagIDs []int64) (int64, error) {
			created = a
			gotTags = tagIDs

			return 10, nil
		},
		getArticleFunc: func(_ context.Context, id int64) (models.Article, error) {
			return storedArticle(id, 2, true), nil
		},
	}
	cache := newMockCache()
	s := articleservice.New(r, cache, nopLogger{})

	a, err := s.CreateArticle(context.Background(), reader(2), articleservice.CreateRequest{
		Title:     "title",
		Content:   "content",
		Published: true,
		TagIDs:    []int64{1, 2, 2, 3},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), a.ID)
	assert.Equal(t, int64(2), created.AuthorID)
	assert.Equal(t, []int64{1, 2, 3}, gotTags)
	assert.Equal(t, 1, cache.saves)

	var denied *policy.DeniedError

	_, err = s.CreateArticle(context.Background(), nil, articleservice.CreateRequest{Title: "t", Content: "c"}) //nolint:exhaustruct
	require.ErrorAs(t, err, &denied)
}

func TestUpdateArticleEditor(t *testing.T) {
	published := true
	title := "new title"
	stored := storedArticle(10, 1, false)

	var updated models.Article

	r := &mockArticleRepo{ //nolint:exhaustruct
		getArticleFunc: func(_ context.Context, _ int64) (models.Article, error) {
			return stored, nil
		},
		updateArticleFunc: func(_ context.Context, a models.Article, _ []int64, _ bool) error {
			updated = a
			stored = a

			return nil
		},
	}
	s := articleservice.New(r, newMockCache(), nopLogger{})

	// Publication flip on someone else's article is allowed.
	_, err := s.UpdateArticle(context.Background(), editor(2), 10,
		articleservice.UpdateRequest{Published: &published}) //nolint:exhaustruct
	require.NoError(t, err)
	assert.True(t, updated.Published)
	assert.Equal(t, "title", updated.Title)

	// Touching the content is not.
	var denied *policy.DeniedError

	_, err = s.UpdateArticle(context.Background(), editor(2), 10,
		articleservice.UpdateRequest{Title: &title}) //nolint:exhaustruct
	require.ErrorAs(t, err, &denied)
}

func TestUpdateArticleAuthor(t *testing.T) {
	title := "new title"
	tagIDs := []int64{3, 3, 4}

	var gotTags []int64
	var gotReplace bool

	r := &mockArticleRepo{ //nolint:exhaustruct
		getArticleFunc: func(_ context.Context, id int64) (models.Article, error) {
			return storedArticle(id, 1, true), nil
		},
		updateArticleFunc: func(_ context.Context, _ models.Article, tags []int64, replace bool) error {
			gotTags = tags
			gotReplace = replace

			return nil
		},
	}
	cache := newMockCache()
	s := articleservice.New(r, cache, nopLogger{})

	_, err := s.UpdateArticle(context.Background(), reader(1), 10, articleservice.UpdateRequest{
		Title:  &title,
		TagIDs: &tagIDs,
	}) //nolint:exhaustruct
	require.NoError(t, err)
	assert.True(t, gotReplace)
	assert.Equal(t, []int64{3, 4}, gotTags)
	assert.Equal(t, 1, cache.saves)
}

func TestToggleLike(t *testing.T) {
	liked := false

	r := &mockArticleRepo{ //nolint:exhaustruct
		getArticleFunc: func(_ context.Context, id int64) (models.Article, error) {
			return storedArticle(id, 1, true), nil
		},
		toggleLikeFunc: func(_ context.Context, _, _ int64) (bool, error) {
			liked = !liked

			return liked, nil
		},
	}
	cache := newMockCache()
	cache.articles[10] = storedArticle(10, 1, true)
	s := articleservice.New(r, cache, nopLogger{})

	got, err := s.ToggleLike(context.Background(), reader(2), 10)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Empty(t, cache.articles)

	got, err = s.ToggleLike(context.Background(), reader(2), 10)
	require.NoError(t, err)
	assert.False(t, got)

	var denied *policy.DeniedError

	_, err = s.ToggleLike(context.Background(), nil, 10)
	require.ErrorAs(t, err, &denied)
}

func TestDeleteArticle(t *testing.T) {
	deleted := false

	r := &mockArticleRepo{ //nolint:exhaustruct
		getArticleFunc: func(_ context.Context, id int64) (models.Article, error) {
			return storedArticle(id, 1, true), nil
		},
		deleteArticleFunc: func(_ context.Context, _ int64) error {
			deleted = true

			return nil
		},
	}
	cache := newMockCache()
	cache.articles[10] = storedArticle(10, 1, true)
	s := articleservice.New(r, cache, nopLogger{})

	var denied *policy.DeniedError

	err := s.DeleteArticle(context.Background(), reader(2), 10)
	require.ErrorAs(t, err, &denied)
	assert.False(t, deleted)

	err = s.DeleteArticle(context.Background(), reader(1), 10)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, cache.articles)
}

func TestCreateTag(t *testing.T) {
	var gotName string

	r := &mockArticleRepo{ //nolint:exhaustruct
		createTagFunc: func(_ context.Context, name string) (models.Tag, error) {
			gotName = name

			return models.Tag{ID: 1, Name: name}, nil
		},
	}
	s := articleservice.New(r, newMockCache(), nopLogger{})

	tag, err := s.CreateTag(context.Background(), editor(1), "  GoLang ")
	require.NoError(t, err)
	assert.Equal(t, "golang", tag.Name)
	assert.Equal(t, "golang", gotName)

	var denied *policy.DeniedError

	_, err = s.CreateTag(context.Background(), reader(1), "tech")
	require.ErrorAs(t, err, &denied)
}

func TestCreateTagExists(t *testing.T) {
	r := &mockArticleRepo{ //nolint:exhaustruct
		createTagFunc: func(_ context.Context, _ string) (models.Tag, error) {
			return models.Tag{}, repo.ErrTagExists
		},
	}
	s := articleservice.New(r, newMockCache(), nopLogger{})

	_, err := s.CreateTag(context.Background(), editor(1), "tech")
	require.ErrorIs(t, err, articleservice.ErrTagExists)
}
