package adminservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/domain/policy"
	"github.com/mberezin/microblog/internal/microblog/repository/userrepo"
	"golang.org/x/crypto/bcrypt"
)

var ErrNotFound = errors.New("user not found")

const recentLimit = 5

type AdminService struct {
	userRepo    UserRepository
	articleRepo ArticleRepository
	commentRepo CommentRepository
}

type UserRepository interface {
	GetUserByID(context.Context, int64) (models.User, error)
	ListUsers(context.Context) ([]userrepo.UserWithCounts, error)
	RecentUsers(context.Context, int) ([]models.User, error)
	UpdateUser(context.Context, models.User) error
	DeleteUser(context.Context, int64) error
	CountUsers(context.Context) (int, error)
}

type ArticleRepository interface {
	CountArticles(ctx context.Context, publishedOnly bool) (int, error)
	CountTags(context.Context) (int, error)
	RecentArticles(context.Context, int) ([]models.Article, error)
}

type CommentRepository interface {
	CountComments(context.Context) (int, error)
}

func New(userRepo UserRepository, articleRepo ArticleRepository, commentRepo CommentRepository) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		articleRepo: articleRepo,
		commentRepo: commentRepo,
	}
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Verified *bool   `json:"is_verified"` //nolint:tagliatelle
}

type Stats struct {
	Counts struct {
		Users             int `json:"users"`
		Articles          int `json:"articles"`
		PublishedArticles int `json:"published_articles"` //nolint:tagliatelle
		Comments          int `json:"comments"`
		Tags              int `json:"tags"`
	} `json:"counts"`
	Recent struct {
		Users    []models.User    `json:"users"`
		Articles []models.Article `json:"articles"`
	} `json:"recent"`
}

func (s *AdminService) ListUsers(ctx context.Context, actor *models.Identity) ([]userrepo.UserWithCounts, error) {
	dec := policy.Decide(actor, policy.ActionRead, policy.User{}) //nolint:exhaustruct
	if err := dec.Err(); err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users error: %w", err)
	}

	return users, nil
}

func (s *AdminService) GetUser(ctx context.Context, actor *models.Identity, id int64) (models.User, error) {
	dec := policy.Decide(actor, policy.ActionRead, policy.User{TargetID: id}) //nolint:exhaustruct
	if err := dec.Err(); err != nil {
		return models.User{}, err
	}

	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, ErrNotFound
		}

		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	return u, nil
}

// UpdateUser applies an admin edit. Changing one's own admin role away
// is refused to avoid lockout.
func (s *AdminService) UpdateUser(ctx context.Context, actor *models.Identity, //nolint:cyclop
	id int64, req UpdateUserRequest,
) (models.User, error) {
	dec := policy.Decide(actor, policy.ActionUpdate, policy.User{TargetID: id, NewRole: req.Role})
	if err := dec.Err(); err != nil {
		return models.User{}, err
	}

	u, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return models.User{}, ErrNotFound
		}

		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	if req.Name != nil && *req.Name != "" {
		u.Name = *req.Name
	}

	if req.Email != nil && *req.Email != "" {
		u.Email = *req.Email
	}

	if req.Role != nil && *req.Role != "" {
		u.Role = *req.Role
	}

	if req.Verified != nil {
		u.Verified = *req.Verified
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("generate from password error: %w", err)
		}

		u.PasswordHash = string(hash)
	}

	if err := s.userRepo.UpdateUser(ctx, u); err != nil {
		return models.User{}, fmt.Errorf("update user error: %w", err)
	}

	return u, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor *models.Identity, id int64) error {
	dec := policy.Decide(actor, policy.ActionDelete, policy.User{TargetID: id}) //nolint:exhaustruct
	if err := dec.Err(); err != nil {
		return err
	}

	if err := s.userRepo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("delete user error: %w", err)
	}

	return nil
}

func (s *AdminService) DashboardStats(ctx context.Context, actor *models.Identity) (Stats, error) { //nolint:cyclop
	dec := policy.Decide(actor, policy.ActionRead, policy.User{}) //nolint:exhaustruct
	if err := dec.Err(); err != nil {
		return Stats{}, err
	}

	var st Stats

	var err error

	if st.Counts.Users, err = s.userRepo.CountUsers(ctx); err != nil {
		return Stats{}, fmt.Errorf("count users error: %w", err)
	}

	if st.Counts.Articles, err = s.articleRepo.CountArticles(ctx, false); err != nil {
		return Stats{}, fmt.Errorf("count articles error: %w", err)
	}

	if st.Counts.PublishedArticles, err = s.articleRepo.CountArticles(ctx, true); err != nil {
		return Stats{}, fmt.Errorf("count published articles error: %w", err)
	}

	if st.Counts.Comments, err = s.commentRepo.CountComments(ctx); err != nil {
		return Stats{}, fmt.Errorf("count comments error: %w", err)
	}

	if st.Counts.Tags, err = s.articleRepo.CountTags(ctx); err != nil {
		return Stats{}, fmt.Errorf("count tags error: %w", err)
	}

	if st.Recent.Users, err = s.userRepo.RecentUsers(ctx, recentLimit); err != nil {
		return Stats{}, fmt.Errorf("recent users error: %w", err)
	}

	if st.Recent.Articles, err = s.articleRepo.RecentArticles(ctx, recentLimit); err != nil {
		return Stats{}, fmt.Errorf("recent articles error: %w", err)
	}

	return st, nil
}
