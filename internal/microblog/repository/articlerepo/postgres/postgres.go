package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mberezin/microblog/internal/microblog/domain/models"
	repo "github.com/mberezin/microblog/internal/microblog/repository/articlerepo"
	"github.com/mberezin/microblog/internal/pkg/config"
	"github.com/mberezin/microblog/internal/pkg/pgtools"
)

type ArticlesPostgresRepo struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, cfg config.PostgresDB) (ArticlesPostgresRepo, error) {
	connString := "postgres://" + cfg.Username + ":" + cfg.Password + "@" +
		cfg.Addr + "/" + cfg.DB + "?" + "sslmode=" + cfg.SSLmode + "&pool_max_conns=" + cfg.MaxConns

	db, err := pgtools.Connect(ctx, connString)
	if err != nil {
		return ArticlesPostgresRepo{}, fmt.Errorf("connect to db error: %w", err)
	}

	if err := pgtools.ApplyMigration(cfg); err != nil {
		return ArticlesPostgresRepo{}, fmt.Errorf("apply migration error: %w", err)
	}

	return ArticlesPostgresRepo{
		db: db,
	}, nil
}

func (ar ArticlesPostgresRepo) CreateArticle(ctx context.Context, //nolint:nonamedreturns
	a models.Article, tagIDs []int64,
) (id int64, err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("articles").
		Columns("title", "content", "author_id", "is_published").
		Values(a.Title, a.Content, a.AuthorID, a.Published).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("scan error: %w", err)
	}

	if err = assignTags(ctx, tx, id, tagIDs); err != nil {
		return 0, err
	}

	return id, nil
}

// assignTags links the article to each tag. The (article_id, tag_id)
// primary key guards against duplicate assignment.
func assignTags(ctx context.Context, tx pgx.Tx, articleID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	ib := psql.Insert("article_tags").Columns("article_id", "tag_id")
	for _, tagID := range tagIDs {
		ib = ib.Values(articleID, tagID)
	}

	query, args, err := ib.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		target := new(pgconn.PgError)
		if errors.As(err, &target) {
			switch target.Code { //nolint:gocritic
			case "23503":
				return repo.ErrNoTag
			}
		}

		return fmt.Errorf("exec error: %w", err)
	}

	return nil
}

func (ar ArticlesPostgresRepo) GetArticle(ctx context.Context, id int64) (a models.Article, err error) { //nolint:nonamedreturns
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return models.Article{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "get")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("a.id", "a.title", "a.content", "a.author_id", "u.name",
		"a.is_published", "a.created_at", "a.updated_at",
		"(SELECT COUNT(*) FROM likes l WHERE l.article_id = a.id)",
		"(SELECT COUNT(*) FROM comments c WHERE c.article_id = a.id)").
		From("articles a").
		Join("users u ON u.id = a.author_id").
		Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return models.Article{}, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.Title, &a.Content, &a.AuthorID, &a.AuthorName,
		&a.Published, &a.CreatedAt, &a.UpdatedAt, &a.LikeCount, &a.CommentCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, repo.ErrNotFound
		}

		return a, fmt.Errorf("scan error: %w", err)
	}

	if a.Tags, err = articleTags(ctx, tx, a.ID); err != nil {
		return a, err
	}

	return a, nil
}

func articleTags(ctx context.Context, tx pgx.Tx, articleID int64) ([]models.Tag, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("t.id", "t.name").
		From("article_tags at").
		Join("tags t ON t.id = at.tag_id").
		Where(squirrel.Eq{"at.article_id": articleID}).
		OrderBy("t.name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tags := make([]models.Tag, 0, 4) //nolint:gomnd

	for rows.Next() {
		var t models.Tag

		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		tags = append(tags, t)
	}

	return tags, nil
}

func (ar ArticlesPostgresRepo) ListArticles(ctx context.Context, //nolint:cyclop,nonamedreturns
	req repo.ListRequest,
) (articles []models.Article, total int, err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "list")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	where := squirrel.And{}
	if req.PublishedOnly {
		where = append(where, squirrel.Eq{"a.is_published": true})
	}

	if req.Tag != "" {
		where = append(where, squirrel.Expr(
			"EXISTS (SELECT 1 FROM article_tags at JOIN tags t ON t.id = at.tag_id "+
				"WHERE at.article_id = a.id AND t.name = ?)", req.Tag))
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("articles a").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("scan error: %w", err)
	}

	sb := psql.Select("a.id", "a.title", "a.content", "a.author_id", "u.name",
		"a.is_published", "a.created_at", "a.updated_at",
		"(SELECT COUNT(*) FROM likes l WHERE l.article_id = a.id)",
		"(SELECT COUNT(*) FROM comments c WHERE c.article_id = a.id)").
		From("articles a").
		Join("users u ON u.id = a.author_id").
		Where(where).
		OrderBy("a.created_at DESC")

	if req.Page > 1 {
		sb = sb.Offset(uint64((req.Page - 1) * req.Limit))
	}

	if req.Limit != 0 {
		sb = sb.Limit(uint64(req.Limit))
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	articles = make([]models.Article, 0, 10) //nolint:gomnd

	for rows.Next() {
		var a models.Article

		err = rows.Scan(&a.ID, &a.Title, &a.Content, &a.AuthorID, &a.AuthorName,
			&a.Published, &a.CreatedAt, &a.UpdatedAt, &a.LikeCount, &a.CommentCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan error %w", err)
		}

		articles = append(articles, a)
	}
	rows.Close()

	for i := range articles {
		if articles[i].Tags, err = articleTags(ctx, tx, articles[i].ID); err != nil {
			return nil, 0, err
		}
	}

	return articles, total, nil
}

func (ar ArticlesPostgresRepo) UpdateArticle(ctx context.Context, //nolint:nonamedreturns
	a models.Article, tagIDs []int64, replaceTags bool,
) (err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "update")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Update("articles").
		Set("title", a.Title).
		Set("content", a.Content).
		Set("is_published", a.Published).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": a.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if replaceTags {
		var delQuery string

		var delArgs []interface{}

		delQuery, delArgs, err = psql.Delete("article_tags").
			Where(squirrel.Eq{"article_id": a.ID}).ToSql()
		if err != nil {
			return fmt.Errorf("to sql error: %w", err)
		}

		if _, err = tx.Exec(ctx, delQuery, delArgs...); err != nil {
			return fmt.Errorf("exec error: %w", err)
		}

		if err = assignTags(ctx, tx, a.ID, tagIDs); err != nil {
			return err
		}
	}

	return nil
}

func (ar ArticlesPostgresRepo) DeleteArticle(ctx context.Context, id int64) (err error) { //nolint:nonamedreturns
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "delete")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Delete("articles").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	return nil
}

// ToggleLike removes the like row if present, inserts it otherwise.
// The unique (user_id, article_id) constraint resolves concurrent
// toggles; a conflicting insert means another request already liked.
func (ar ArticlesPostgresRepo) ToggleLike(ctx context.Context, //nolint:nonamedreturns
	userID, articleID int64,
) (liked bool, err error) {
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "toggle like")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	delQuery, delArgs, err := psql.Delete("likes").
		Where(squirrel.Eq{"user_id": userID, "article_id": articleID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("to sql error: %w", err)
	}

	ct, err := tx.Exec(ctx, delQuery, delArgs...)
	if err != nil {
		return false, fmt.Errorf("exec error: %w", err)
	}

	if ct.RowsAffected() > 0 {
		return false, nil
	}

	insQuery, insArgs, err := psql.Insert("likes").
		Columns("user_id", "article_id").
		Values(userID, articleID).ToSql()
	if err != nil {
		return false, fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.Exec(ctx, insQuery, insArgs...); err != nil {
		target := new(pgconn.PgError)
		if errors.As(err, &target) && target.Code == "23505" {
			return true, nil
		}

		return false, fmt.Errorf("exec error: %w", err)
	}

	return true, nil
}

func (ar ArticlesPostgresRepo) ListTags(ctx context.Context) (tags []models.Tag, err error) { //nolint:nonamedreturns
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "list tags")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("id", "name").
		From("tags").
		OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tags = make([]models.Tag, 0, 10) //nolint:gomnd

	for rows.Next() {
		var t models.Tag

		if err = rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		tags = append(tags, t)
	}

	return tags, nil
}

func (ar ArticlesPostgresRepo) CreateTag(ctx context.Context, name string) (t models.Tag, err error) { //nolint:nonamedreturns
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return models.Tag{}, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "create tag")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Insert("tags").
		Columns("name").
		Values(name).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return models.Tag{}, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&t.ID); err != nil {
		target := new(pgconn.PgError)
		if errors.As(err, &target) {
			switch target.Code { //nolint:gocritic
			case "23505":
				return models.Tag{}, repo.ErrTagExists
			}
		}

		return models.Tag{}, fmt.Errorf("scan error: %w", err)
	}

	t.Name = name

	return t, nil
}

func (ar ArticlesPostgresRepo) CountArticles(ctx context.Context, publishedOnly bool) (count int, err error) { //nolint:nonamedreturns
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "count")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	sb := psql.Select("COUNT(*)").From("articles")
	if publishedOnly {
		sb = sb.Where(squirrel.Eq{"is_published": true})
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan error: %w", err)
	}

	return count, nil
}

func (ar ArticlesPostgresRepo) CountTags(ctx context.Context) (count int, err error) { //nolint:nonamedreturns
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "count tags")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("COUNT(*)").From("tags").ToSql()
	if err != nil {
		return 0, fmt.Errorf("to sql error: %w", err)
	}

	if err = tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan error: %w", err)
	}

	return count, nil
}

func (ar ArticlesPostgresRepo) RecentArticles(ctx context.Context, limit int) (articles []models.Article, err error) { //nolint:nonamedreturns
	tx, err := ar.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = pgtools.CommitOrRollback(ctx, tx, err, "recent")
	}()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	query, args, err := psql.Select("a.id", "a.title", "a.author_id", "u.name", "a.is_published", "a.created_at").
		From("articles a").
		Join("users u ON u.id = a.author_id").
		OrderBy("a.created_at DESC").
		Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	articles = make([]models.Article, 0, limit)

	for rows.Next() {
		var a models.Article

		err = rows.Scan(&a.ID, &a.Title, &a.AuthorID, &a.AuthorName, &a.Published, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan error %w", err)
		}

		articles = append(articles, a)
	}

	return articles, nil
}

func (ar ArticlesPostgresRepo) Shutdown(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		ar.db.Close()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}
