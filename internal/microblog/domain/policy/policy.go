// Package policy holds the access rules for every resource and action
// in one place. Decisions are computed from the actor identity and the
// resource state alone, without touching storage.
package policy

import (
	"github.com/mberezin/microblog/internal/microblog/domain/models"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLike   Action = "like"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err returns nil for an allowing decision and a *DeniedError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}

	return &DeniedError{Reason: d.Reason}
}

type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}

type Resource interface {
	resource()
}

// Article wraps a stored article together with the shape of the
// requested change. ContentChanged is true when the request carries a
// non-empty title or content.
type Article struct {
	Article        models.Article
	ContentChanged bool
}

// Comment carries the comment and its parent article, since comment
// visibility follows the article's.
type Comment struct {
	Comment models.Comment
	Parent  models.Article
}

type Tag struct{}

// User describes an admin operation target. NewRole is non-nil when the
// operation changes the target's role.
type User struct {
	TargetID int64
	NewRole  *string
}

func (Article) resource() {}
func (Comment) resource() {}
func (Tag) resource()     {}
func (User) resource()    {}

// Decide evaluates whether actor may perform action on res. A nil actor
// is an anonymous caller.
func Decide(actor *models.Identity, action Action, res Resource) Decision {
	switch r := res.(type) {
	case Article:
		return decideArticle(actor, action, r)
	case Comment:
		return decideComment(actor, action, r)
	case Tag:
		return decideTag(actor, action)
	case User:
		return decideUser(actor, action, r)
	default:
		return deny("unknown resource")
	}
}

func articleReadable(actor *models.Identity, a models.Article) bool {
	return a.Published ||
		actor.Is(a.AuthorID) ||
		actor.HasRole(models.RoleAdmin, models.RoleEditor)
}

func decideArticle(actor *models.Identity, action Action, r Article) Decision { //nolint:cyclop
	a := r.Article

	switch action {
	case ActionRead:
		if articleReadable(actor, a) {
			return allow()
		}

		return deny("this article is not yet published")
	case ActionCreate:
		if actor != nil {
			return allow()
		}

		return deny("authentication required")
	case ActionUpdate:
		if actor.Is(a.AuthorID) || actor.HasRole(models.RoleAdmin) {
			return allow()
		}

		// Editors may flip the publication flag on others' articles
		// but never touch title or content.
		if actor.HasRole(models.RoleEditor) {
			if r.ContentChanged {
				return deny("editors can only change publication status")
			}

			return allow()
		}

		return deny("you don't have permission to update this article")
	case ActionDelete:
		if actor.Is(a.AuthorID) || actor.HasRole(models.RoleAdmin) {
			return allow()
		}

		return deny("you don't have permission to delete this article")
	case ActionLike:
		if actor == nil {
			return deny("authentication required")
		}

		if a.Published || actor.Is(a.AuthorID) {
			return allow()
		}

		return deny("this article is not yet published")
	default:
		return deny("unsupported article action")
	}
}

func decideComment(actor *models.Identity, action Action, r Comment) Decision {
	switch action {
	case ActionRead:
		if articleReadable(actor, r.Parent) {
			return allow()
		}

		return deny("this article is not published")
	case ActionCreate:
		if actor == nil {
			return deny("authentication required")
		}

		if articleReadable(actor, r.Parent) {
			return allow()
		}

		return deny("this article is not published")
	case ActionUpdate:
		if actor.Is(r.Comment.UserID) || actor.HasRole(models.RoleAdmin) {
			return allow()
		}

		return deny("you don't have permission to update this comment")
	case ActionDelete:
		if actor.Is(r.Comment.UserID) ||
			actor.HasRole(models.RoleAdmin) ||
			actor.Is(r.Parent.AuthorID) {
			return allow()
		}

		return deny("you don't have permission to delete this comment")
	default:
		return deny("unsupported comment action")
	}
}

func decideTag(actor *models.Identity, action Action) Decision {
	if action != ActionCreate {
		return deny("unsupported tag action")
	}

	if actor.HasRole(models.RoleAdmin, models.RoleEditor) {
		return allow()
	}

	return deny("permission denied")
}

func decideUser(actor *models.Identity, action Action, r User) Decision {
	if !actor.HasRole(models.RoleAdmin) {
		return deny("admin access required")
	}

	switch action {
	case ActionUpdate:
		if actor.Is(r.TargetID) && r.NewRole != nil && *r.NewRole != models.RoleAdmin {
			return deny("you cannot change your own admin role")
		}

		return allow()
	case ActionDelete:
		if actor.Is(r.TargetID) {
			return deny("you cannot delete your own admin account")
		}

		return allow()
	case ActionRead:
		return allow()
	default:
		return deny("unsupported user action")
	}
}
