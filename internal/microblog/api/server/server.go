package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/repository/userrepo"
	"github.com/mberezin/microblog/internal/microblog/services/adminservice"
	"github.com/mberezin/microblog/internal/microblog/services/articleservice"
	"github.com/mberezin/microblog/internal/microblog/services/authservice"
	"github.com/mberezin/microblog/internal/pkg/config"
	"github.com/mberezin/microblog/pkg/logger"
)

type Server struct {
	serv           *http.Server
	authService    AuthService
	articleService ArticleService
	commentService CommentService
	adminService   AdminService
	secret         string
	lg             logger.Logger
}

type AuthService interface {
	Register(context.Context, authservice.RegisterRequest) (models.User, error)
	VerifyEmail(context.Context, string) (models.User, error)
	Login(ctx context.Context, email, password string) (string, models.User, error)
	RequestPasswordReset(ctx context.Context, email string)
	ResetPassword(ctx context.Context, token, newPassword string) error
	Identity(context.Context, int64) (models.Identity, error)
	Me(context.Context, int64) (models.User, error)
	Shutdown(context.Context) error
}

type ArticleService interface {
	ListArticles(context.Context, *models.Identity, articleservice.ListRequest) ([]models.Article, int, error)
	GetArticle(context.Context, *models.Identity, int64) (models.Article, error)
	CreateArticle(context.Context, *models.Identity, articleservice.CreateRequest) (models.Article, error)
	UpdateArticle(context.Context, *models.Identity, int64, articleservice.UpdateRequest) (models.Article, error)
	DeleteArticle(context.Context, *models.Identity, int64) error
	ToggleLike(context.Context, *models.Identity, int64) (bool, error)
	ListTags(context.Context) ([]models.Tag, error)
	CreateTag(context.Context, *models.Identity, string) (models.Tag, error)
	Shutdown(context.Context) error
}

type CommentService interface {
	ListByArticle(context.Context, *models.Identity, int64) ([]models.Comment, error)
	CreateComment(ctx context.Context, actor *models.Identity, articleID int64, content string) (models.Comment, error)
	UpdateComment(ctx context.Context, actor *models.Identity, id int64, content string) (models.Comment, error)
	DeleteComment(context.Context, *models.Identity, int64) error
	Shutdown(context.Context) error
}

type AdminService interface {
	ListUsers(context.Context, *models.Identity) ([]userrepo.UserWithCounts, error)
	GetUser(context.Context, *models.Identity, int64) (models.User, error)
	UpdateUser(context.Context, *models.Identity, int64, adminservice.UpdateUserRequest) (models.User, error)
	DeleteUser(context.Context, *models.Identity, int64) error
	DashboardStats(context.Context, *models.Identity) (adminservice.Stats, error)
}

func New(cfg config.Server, secret string, as AuthService, arts ArticleService,
	cs CommentService, adm AdminService, lg logger.Logger,
) *Server {
	s := &Server{ //nolint:exhaustruct
		authService:    as,
		articleService: arts,
		commentService: cs,
		adminService:   adm,
		secret:         secret,
		lg:             lg,
	}

	r := chi.NewRouter()
	r.Use(loggingMiddleware(lg))
	r.Use(s.identityMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Get("/verify/{token}", s.verifyEmail)
			r.Post("/forgot-password", s.forgotPassword)
			r.Post("/reset-password/{token}", s.resetPassword)
			r.Get("/me", s.me)
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.listArticles)
			r.Get("/tags", s.listTags)
			r.Post("/tags", s.createTag)
			r.Get("/{id}", s.getArticle)
			r.Post("/", s.createArticle)
			r.Put("/{id}", s.updateArticle)
			r.Delete("/{id}", s.deleteArticle)
			r.Post("/{id}/like", s.toggleLike)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/article/{articleID}", s.listComments)
			r.Post("/article/{articleID}", s.createComment)
			r.Put("/{commentID}", s.updateComment)
			r.Delete("/{commentID}", s.deleteComment)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", s.listUsers)
			r.Get("/users/{id}", s.getUser)
			r.Put("/users/{id}", s.updateUser)
			r.Delete("/users/{id}", s.deleteUser)
			r.Get("/dashboard", s.dashboard)
		})
	})

	s.serv = &http.Server{ //nolint:exhaustruct
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error)

	go func() {
		if err := s.serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			close(errCh)
		}
	}()

	select {
	case <-ctx.Done():
		ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
		defer cancel()

		if err := s.Shutdown(ctxS); err != nil { //nolint:contextcheck
			return fmt.Errorf("context error: %w server error %w", ctxS.Err(), err)
		}

		if !errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("context cancelled error: %w", ctx.Err())
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("listen and serve error: %w", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctxS, cancel := context.WithTimeout(ctx, s.serv.IdleTimeout)
	defer cancel()

	if err := s.serv.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown server error: %w", err)
	}

	if err := s.articleService.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown article service error: %w", err)
	}

	if err := s.commentService.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown comment service error: %w", err)
	}

	if err := s.authService.Shutdown(ctxS); err != nil {
		return fmt.Errorf("shutdown auth service error: %w", err)
	}

	return nil
}
