package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/repository/commentrepo"
	"github.com/mberezin/microblog/internal/pkg/config"
	"github.com/mberezin/microblog/internal/pkg/pgtools"
)

type CommentsPostgresRepo struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, cfg config.PostgresDB) (CommentsPostgresRepo, error) {
	connString := "postgres://" + cfg.Username + ":" + cfg.Password + "@" +
		cfg.Addr + "/" + cfg.DB + "?" + "sslmode=" + cfg.SSLmode + "&pool_max_conns=" + cfg.MaxConns

	db, err := pgtools.Connect(ctx, connString)
	if err != nil {
		return CommentsPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	if err := pgtools.ApplyMigration(cfg); err != nil {
		return CommentsPostgresRepo{}, fmt.Errorf("apply migration error: %w", err)
	}

	return CommentsPostgresRepo{
		db: db,
	}, nil
}

func (cr CommentsPostgresRepo) CreateComment(ctx context.Context, c models.Comment) (id int64, err error) { //nolint:nonamedreturns
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("comments").
		Columns("content", "user_id", "article_id").
		Values(c.Content, c.UserID, c.ArticleID).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("scan error: %w", err)
	}

	return id, nil
}

func (cr CommentsPostgresRepo) GetComment(ctx context.Context, id int64) (c models.Comment, err error) { //nolint:nonamedreturns
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("c.id", "c.content", "c.user_id", "u.name", "c.article_id",
		"c.created_at", "c.updated_at").
		From("comments c").
		Join("users u ON u.id = c.user_id").
		Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return models.Comment{}, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Content, &c.UserID, &c.UserName, &c.ArticleID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, commentrepo.ErrNotFound
		}

		return c, fmt.Errorf("scan error: %w", err)
	}

	return c, nil
}

func (cr CommentsPostgresRepo) ListByArticle(ctx context.Context, articleID int64) (comments []models.Comment, err error) { //nolint:nonamedreturns
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "list")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("c.id", "c.content", "c.user_id", "u.name", "c.article_id",
		"c.created_at", "c.updated_at").
		From("comments c").
		Join("users u ON u.id = c.user_id").
		Where(squirrel.Eq{"c.article_id": articleID}).
		OrderBy("c.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	comments = make([]models.Comment, 0, 10) //nolint:gomnd

	for rows.Next() {
		var c models.Comment

		err = rows.Scan(&c.ID, &c.Content, &c.UserID, &c.UserName, &c.ArticleID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		comments = append(comments, c)
	}

	return comments, nil
}

func (cr CommentsPostgresRepo) UpdateComment(ctx context.Context, id int64, content string) (err error) { //nolint:nonamedreturns
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Update("comments").
		Set("content", content).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return commentrepo.ErrNotFound
	}

	return nil
}

func (cr CommentsPostgresRepo) DeleteComment(ctx context.Context, id int64) (err error) { //nolint:nonamedreturns
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Delete("comments").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return commentrepo.ErrNotFound
	}

	return nil
}

func (cr CommentsPostgresRepo) CountComments(ctx context.Context) (count int, err error) { //nolint:nonamedreturns
	tx, err := cr.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "count")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("COUNT(*)").From("comments").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan error: %w", err)
	}

	return count, nil
}

func (cr CommentsPostgresRepo) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		cr.db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}
