package commentservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/domain/policy"
	"github.com/mberezin/microblog/internal/microblog/repository/articlerepo"
	"github.com/mberezin/microblog/internal/microblog/repository/commentrepo"
	"github.com/mberezin/microblog/pkg/logger"
)

var (
	ErrNotFound        = errors.New("comment not found")
	ErrArticleNotFound = errors.New("article not found")
)

type CommentService struct {
	commentRepo  Repository
	articleRepo  ArticleRepository
	articleCache Cache
	lg           logger.Logger
}

type Repository interface {
	CreateComment(context.Context, models.Comment) (int64, error)
	GetComment(context.Context, int64) (models.Comment, error)
	ListByArticle(context.Context, int64) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id int64, content string) error
	DeleteComment(context.Context, int64) error
	Shutdown(context.Context) error
}

// ArticleRepository provides the parent article; comment visibility
// follows article visibility.
type ArticleRepository interface {
	GetArticle(context.Context, int64) (models.Article, error)
}

// Cache holds cached parent articles; comment writes move the
// article's comment count, so the entry is dropped on create/delete.
type Cache interface {
	DeleteArticle(context.Context, int64) error
}

func New(commentRepo Repository, articleRepo ArticleRepository,
	articleCache Cache, lg logger.Logger,
) *CommentService {
	return &CommentService{
		commentRepo:  commentRepo,
		articleRepo:  articleRepo,
		articleCache: articleCache,
		lg:           lg,
	}
}

func (s *CommentService) ListByArticle(ctx context.Context, actor *models.Identity,
	articleID int64,
) ([]models.Comment, error) {
	parent, err := s.parent(ctx, articleID)
	if err != nil {
		return nil, err
	}

	dec := policy.Decide(actor, policy.ActionRead, policy.Comment{Parent: parent}) //nolint:exhaustruct
	if err := dec.Err(); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("list comments error: %w", err)
	}

	return comments, nil
}

func (s *CommentService) CreateComment(ctx context.Context, actor *models.Identity,
	articleID int64, content string,
) (models.Comment, error) {
	parent, err := s.parent(ctx, articleID)
	if err != nil {
		return models.Comment{}, err
	}

	dec := policy.Decide(actor, policy.ActionCreate, policy.Comment{Parent: parent}) //nolint:exhaustruct
	if err := dec.Err(); err != nil {
		return models.Comment{}, err
	}

	id, err := s.commentRepo.CreateComment(ctx, models.Comment{ //nolint:exhaustruct
		Content:   content,
		UserID:    actor.UserID,
		ArticleID: articleID,
	})
	if err != nil {
		return models.Comment{}, fmt.Errorf("create comment error: %w", err)
	}

	c, err := s.commentRepo.GetComment(ctx, id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment error: %w", err)
	}

	if err := s.articleCache.DeleteArticle(ctx, articleID); err != nil {
		s.lg.Errorf("delete article cache error: %s", err.Error())
	}

	return c, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, actor *models.Identity,
	id int64, content string,
) (models.Comment, error) {
	c, err := s.commentRepo.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, commentrepo.ErrNotFound) {
			return models.Comment{}, ErrNotFound
		}

		return models.Comment{}, fmt.Errorf("get comment error: %w", err)
	}

	dec := policy.Decide(actor, policy.ActionUpdate, policy.Comment{Comment: c}) //nolint:exhaustruct
	if err := dec.Err(); err != nil {
		return models.Comment{}, err
	}

	if err := s.commentRepo.UpdateComment(ctx, id, content); err != nil {
		return models.Comment{}, fmt.Errorf("update comment error: %w", err)
	}

	c.Content = content

	return c, nil
}

// DeleteComment allows the comment's author, an admin, or the author
// of the parent article to remove a comment.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.Identity, id int64) error {
	c, err := s.commentRepo.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, commentrepo.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("get comment error: %w", err)
	}

	parent, err := s.parent(ctx, c.ArticleID)
	if err != nil {
		return err
	}

	dec := policy.Decide(actor, policy.ActionDelete, policy.Comment{Comment: c, Parent: parent})
	if err := dec.Err(); err != nil {
		return err
	}

	if err := s.commentRepo.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("delete comment error: %w", err)
	}

	if err := s.articleCache.DeleteArticle(ctx, c.ArticleID); err != nil {
		s.lg.Errorf("delete article cache error: %s", err.Error())
	}

	return nil
}

func (s *CommentService) Shutdown(ctx context.Context) error {
	if err := s.commentRepo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown comment repo error: %w", err)
	}

	return nil
}

func (s *CommentService) parent(ctx context.Context, articleID int64) (models.Article, error) {
	parent, err := s.articleRepo.GetArticle(ctx, articleID)
	if err != nil {
		if errors.Is(err, articlerepo.ErrNotFound) {
			return models.Article{}, ErrArticleNotFound
		}

		return models.Article{}, fmt.Errorf("get article error: %w", err)
	}

	return parent, nil
}
