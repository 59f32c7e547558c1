package models

import (
	"time"
)

type Article struct {
	ID           int64     `json:"article_id"`    //nolint:tagliatelle
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	AuthorID     int64     `json:"author_id"`     //nolint:tagliatelle
	AuthorName   string    `json:"author_name"`   //nolint:tagliatelle
	Published    bool      `json:"is_published"`  //nolint:tagliatelle
	Tags         []Tag     `json:"tags"`
	LikeCount    int       `json:"like_count"`    //nolint:tagliatelle
	CommentCount int       `json:"comment_count"` //nolint:tagliatelle
	CreatedAt    time.Time `json:"created_at"`    //nolint:tagliatelle
	UpdatedAt    time.Time `json:"updated_at"`    //nolint:tagliatelle
}

type Tag struct {
	ID   int64  `json:"tag_id"` //nolint:tagliatelle
	Name string `json:"name"`
}

type Comment struct {
	ID        int64     `json:"comment_id"` //nolint:tagliatelle
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id"`    //nolint:tagliatelle
	UserName  string    `json:"user_name"`  //nolint:tagliatelle
	ArticleID int64     `json:"article_id"` //nolint:tagliatelle
	CreatedAt time.Time `json:"created_at"` //nolint:tagliatelle
	UpdatedAt time.Time `json:"updated_at"` //nolint:tagliatelle
}
