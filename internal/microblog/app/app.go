package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mberezin/microblog/internal/microblog/api/server"
	"github.com/mberezin/microblog/internal/microblog/repository/articlecache/redis"
	ar "github.com/mberezin/microblog/internal/microblog/repository/articlerepo/postgres"
	cr "github.com/mberezin/microblog/internal/microblog/repository/commentrepo/postgres"
	ur "github.com/mberezin/microblog/internal/microblog/repository/userrepo/postgres"
	"github.com/mberezin/microblog/internal/microblog/services/adminservice"
	"github.com/mberezin/microblog/internal/microblog/services/articleservice"
	"github.com/mberezin/microblog/internal/microblog/services/authservice"
	"github.com/mberezin/microblog/internal/microblog/services/commentservice"
	"github.com/mberezin/microblog/internal/pkg/config"
	"github.com/mberezin/microblog/internal/pkg/mailer"
	"github.com/mberezin/microblog/pkg/logger"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type MicroblogApp struct {
	s   Server
	lg  logger.Logger
	cfg config.Config
}

func New(ctx context.Context, cfg config.Config) (MicroblogApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return MicroblogApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	userRepo, err := ur.New(ctx, cfg.PostgresDB)
	if err != nil {
		return MicroblogApp{}, fmt.Errorf("postgres user repo initializing error: %w", err)
	}

	articleRepo, err := ar.New(ctx, cfg.PostgresDB)
	if err != nil {
		return MicroblogApp{}, fmt.Errorf("postgres article repo initializing error: %w", err)
	}

	commentRepo, err := cr.New(ctx, cfg.PostgresDB)
	if err != nil {
		return MicroblogApp{}, fmt.Errorf("postgres comment repo initializing error: %w", err)
	}

	articleCache, err := redis.New(ctx, cfg.RedisCache)
	if err != nil {
		return MicroblogApp{}, fmt.Errorf("redis article cache initializing error: %w", err)
	}

	mail := mailer.New(cfg.SMTP)

	authService := authservice.New(userRepo, mail, cfg.Auth, lg)
	articleService := articleservice.New(articleRepo, articleCache, lg)
	commentService := commentservice.New(commentRepo, articleRepo, articleCache, lg)
	adminService := adminservice.New(userRepo, articleRepo, commentRepo)

	s := server.New(cfg.Server, cfg.Auth.Secret, authService, articleService, commentService, adminService, lg)

	return MicroblogApp{
		s:   s,
		lg:  lg,
		cfg: cfg,
	}, nil
}

func (ma *MicroblogApp) Run(ctx context.Context) {
	ma.lg.Infof("STARTED SERVER ON %s", ma.cfg.Server.Addr)

	go func() {
		if err := ma.s.Start(ctx); err != nil {
			ma.lg.Errorf("server start error: %s", err.Error())
			ctx.Done()

			return
		}
	}()

	<-ctx.Done()

	ctxS, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := ma.Stop(ctxS); err != nil { //nolint:contextcheck
		ma.lg.Errorf("server shutdown error: %s", err.Error())
	}
}

func (ma *MicroblogApp) Stop(ctx context.Context) error {
	if err := ma.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	ma.lg.Info("Shutdowned successfully")

	return nil
}
