package userrepo

import (
	"errors"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

// UserWithCounts is the admin listing shape: a user plus how much they
// have written.
type UserWithCounts struct {
	models.User
	Articles int `json:"article_count"` //nolint:tagliatelle
	Comments int `json:"comment_count"` //nolint:tagliatelle
}
