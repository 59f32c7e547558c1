package articleservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/domain/policy"
	repo "github.com/mberezin/microblog/internal/microblog/repository/articlerepo"
	"github.com/mberezin/microblog/pkg/logger"
)

var (
	ErrNotFound  = errors.New("article not found")
	ErrTagExists = errors.New("tag already exists")
)

type ArticleService struct {
	articleRepo  Repository
	articleCache Cache
	lg           logger.Logger
}

type Repository interface {
	CreateArticle(context.Context, models.Article, []int64) (int64, error)
	GetArticle(context.Context, int64) (models.Article, error)
	ListArticles(context.Context, repo.ListRequest) ([]models.Article, int, error)
	UpdateArticle(context.Context, models.Article, []int64, bool) error
	DeleteArticle(context.Context, int64) error
	ToggleLike(ctx context.Context, userID, articleID int64) (bool, error)
	ListTags(context.Context) ([]models.Tag, error)
	CreateTag(context.Context, string) (models.Tag, error)
	Shutdown(context.Context) error
}

type Cache interface {
	SaveArticle(context.Context, models.Article) error
	GetArticle(context.Context, int64) (models.Article, error)
	DeleteArticle(context.Context, int64) error
}

func New(articleRepo Repository, articleCache Cache, lg logger.Logger) *ArticleService {
	return &ArticleService{
		articleRepo:  articleRepo,
		articleCache: articleCache,
		lg:           lg,
	}
}

// ListArticles returns a page of articles. Anonymous callers and
// readers see published articles only; staff and authors see drafts in
// listings too.
func (s *ArticleService) ListArticles(ctx context.Context, actor *models.Identity,
	req ListRequest,
) ([]models.Article, int, error) {
	publishedOnly := actor == nil || actor.Role == models.RoleReader

	articles, total, err := s.articleRepo.ListArticles(ctx, repo.ListRequest{
		Page:          req.Page,
		Limit:         req.Limit,
		PublishedOnly: publishedOnly,
		Tag:           strings.ToLower(strings.TrimSpace(req.Tag)),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list articles error: %w", err)
	}

	return articles, total, nil
}

func (s *ArticleService) GetArticle(ctx context.Context, actor *models.Identity, id int64) (models.Article, error) {
	// Anonymous readers are served from the cache when possible; only
	// published articles are ever cached.
	if actor == nil {
		if a, err := s.articleCache.GetArticle(ctx, id); err == nil {
			s.lg.Info("cache hit")

			return a, nil
		}

		s.lg.Info("cache missed")
	}

	a, err := s.articleRepo.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Article{}, ErrNotFound
		}

		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	if err := policy.Decide(actor, policy.ActionRead, policy.Article{Article: a}).Err(); err != nil { //nolint:exhaustruct
		return models.Article{}, err
	}

	if a.Published {
		if err := s.articleCache.SaveArticle(ctx, a); err != nil {
			s.lg.Errorf("save article cache error: %s", err.Error())
		}
	}

	return a, nil
}

func (s *ArticleService) CreateArticle(ctx context.Context, actor *models.Identity,
	req CreateRequest,
) (models.Article, error) {
	if err := policy.Decide(actor, policy.ActionCreate, policy.Article{}).Err(); err != nil { //nolint:exhaustruct
		return models.Article{}, err
	}

	a := models.Article{ //nolint:exhaustruct
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  actor.UserID,
		Published: req.Published,
	}

	id, err := s.articleRepo.CreateArticle(ctx, a, dedup(req.TagIDs))
	if err != nil {
		return models.Article{}, fmt.Errorf("create article error: %w", err)
	}

	created, err := s.articleRepo.GetArticle(ctx, id)
	if err != nil {
		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	if created.Published {
		if err := s.articleCache.SaveArticle(ctx, created); err != nil {
			s.lg.Errorf("save article cache error: %s", err.Error())
		}
	}

	return created, nil
}

func (s *ArticleService) UpdateArticle(ctx context.Context, actor *models.Identity, //nolint:cyclop
	id int64, req UpdateRequest,
) (models.Article, error) {
	a, err := s.articleRepo.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Article{}, ErrNotFound
		}

		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	dec := policy.Decide(actor, policy.ActionUpdate, policy.Article{
		Article:        a,
		ContentChanged: req.ContentChanged(),
	})
	if err := dec.Err(); err != nil {
		return models.Article{}, err
	}

	if req.Title != nil && *req.Title != "" {
		a.Title = *req.Title
	}

	if req.Content != nil && *req.Content != "" {
		a.Content = *req.Content
	}

	if req.Published != nil {
		a.Published = *req.Published
	}

	var tagIDs []int64

	replaceTags := req.TagIDs != nil
	if replaceTags {
		tagIDs = dedup(*req.TagIDs)
	}

	if err := s.articleRepo.UpdateArticle(ctx, a, tagIDs, replaceTags); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Article{}, ErrNotFound
		}

		return models.Article{}, fmt.Errorf("update article error: %w", err)
	}

	updated, err := s.articleRepo.GetArticle(ctx, id)
	if err != nil {
		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	if err := s.articleCache.DeleteArticle(ctx, id); err != nil {
		s.lg.Errorf("delete article cache error: %s", err.Error())
	}

	if updated.Published {
		if err := s.articleCache.SaveArticle(ctx, updated); err != nil {
			s.lg.Errorf("save article cache error: %s", err.Error())
		}
	}

	return updated, nil
}

func (s *ArticleService) DeleteArticle(ctx context.Context, actor *models.Identity, id int64) error {
	a, err := s.articleRepo.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("get article error: %w", err)
	}

	if err := policy.Decide(actor, policy.ActionDelete, policy.Article{Article: a}).Err(); err != nil { //nolint:exhaustruct
		return err
	}

	if err := s.articleCache.DeleteArticle(ctx, id); err != nil {
		s.lg.Errorf("delete article cache error: %s", err.Error())
	}

	if err := s.articleRepo.DeleteArticle(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("delete article error: %w", err)
	}

	return nil
}

// ToggleLike flips the actor's like on an article. Two toggles in a
// row return to the unliked state.
func (s *ArticleService) ToggleLike(ctx context.Context, actor *models.Identity, id int64) (bool, error) {
	a, err := s.articleRepo.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrNotFound
		}

		return false, fmt.Errorf("get article error: %w", err)
	}

	if err := policy.Decide(actor, policy.ActionLike, policy.Article{Article: a}).Err(); err != nil { //nolint:exhaustruct
		return false, err
	}

	liked, err := s.articleRepo.ToggleLike(ctx, actor.UserID, id)
	if err != nil {
		return false, fmt.Errorf("toggle like error: %w", err)
	}

	if err := s.articleCache.DeleteArticle(ctx, id); err != nil {
		s.lg.Errorf("delete article cache error: %s", err.Error())
	}

	return liked, nil
}

func (s *ArticleService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.articleRepo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags error: %w", err)
	}

	return tags, nil
}

// CreateTag normalizes the name to trimmed lowercase so "Tech" and
// "tech " collapse into one tag.
func (s *ArticleService) CreateTag(ctx context.Context, actor *models.Identity, name string) (models.Tag, error) {
	if err := policy.Decide(actor, policy.ActionCreate, policy.Tag{}).Err(); err != nil {
		return models.Tag{}, err
	}

	t, err := s.articleRepo.CreateTag(ctx, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		if errors.Is(err, repo.ErrTagExists) {
			return models.Tag{}, ErrTagExists
		}

		return models.Tag{}, fmt.Errorf("create tag error: %w", err)
	}

	return t, nil
}

func (s *ArticleService) Shutdown(ctx context.Context) error {
	if err := s.articleRepo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown article repo error: %w", err)
	}

	return nil
}

func dedup(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
