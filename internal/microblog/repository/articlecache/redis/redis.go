package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/repository/articlerepo"
	"github.com/mberezin/microblog/internal/pkg/config"
	"github.com/mberezin/microblog/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

// ArticleCache keeps published articles for the public read path so
// anonymous traffic doesn't hit postgres on every GET.
type ArticleCache struct {
	rdb     *redis.Client
	expTime time.Duration
}

func New(ctx context.Context, cfg config.RedisCache) (ArticleCache, error) {
	rdb := redis.NewClient(&redis.Options{ //nolint:exhaustruct
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := redistools.Connect(ctx, rdb); err != nil {
		return ArticleCache{}, fmt.Errorf("connect error: %w", err)
	}

	return ArticleCache{
		rdb:     rdb,
		expTime: cfg.ExpTime,
	}, nil
}

func (ac ArticleCache) SaveArticle(ctx context.Context, a models.Article) error {
	articleJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	_, err = ac.rdb.Set(ctx, fmt.Sprintf("article:%d", a.ID), articleJSON, ac.expTime).Result() //nolint:perfsprint
	if err != nil {
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

func (ac ArticleCache) GetArticle(ctx context.Context, id int64) (models.Article, error) {
	articleJSON, err := ac.rdb.Get(ctx, fmt.Sprintf("article:%d", id)).Result() //nolint:perfsprint
	if errors.Is(err, redis.Nil) {
		return models.Article{}, articlerepo.ErrNotFound
	} else if err != nil {
		return models.Article{}, fmt.Errorf("get error: %w", err)
	}

	var a models.Article

	if err := json.Unmarshal([]byte(articleJSON), &a); err != nil {
		return models.Article{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return a, nil
}

func (ac ArticleCache) DeleteArticle(ctx context.Context, id int64) error {
	key := fmt.Sprintf("article:%d", id) //nolint:perfsprint

	if _, err := ac.rdb.Del(ctx, key).Result(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}
