package articlerepo

import "errors"

var (
	ErrNotFound  = errors.New("article not found")
	ErrTagExists = errors.New("tag already exists")
	ErrNoTag     = errors.New("tag not found")
)

type ListRequest struct {
	Page          int
	Limit         int
	PublishedOnly bool
	Tag           string
}
