package policy_test

import (
	"testing"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/domain/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(id int64) *models.Identity {
	return &models.Identity{UserID: id, Email: "reader@example.com", Role: models.RoleReader}
}

func editor(id int64) *models.Identity {
	return &models.Identity{UserID: id, Email: "editor@example.com", Role: models.RoleEditor}
}

func admin(id int64) *models.Identity {
	return &models.Identity{UserID: id, Email: "admin@example.com", Role: models.RoleAdmin}
}

func article(authorID int64, published bool) models.Article {
	return models.Article{ //nolint:exhaustruct
		ID:        10,
		Title:     "title",
		Content:   "content",
		Published: published,
		AuthorID:  authorID,
	}
}

func TestDecideArticle(t *testing.T) {
	tests := []struct {
		name    string
		actor   *models.Identity
		action  policy.Action
		res     policy.Article
		allowed bool
	}{
		{"anonymous reads published", nil, policy.ActionRead, policy.Article{Article: article(1, true)}, true},
		{"anonymous denied unpublished", nil, policy.ActionRead, policy.Article{Article: article(1, false)}, false},
		{"reader denied others unpublished", reader(2), policy.ActionRead, policy.Article{Article: article(1, false)}, false},
		{"author reads own unpublished", reader(1), policy.ActionRead, policy.Article{Article: article(1, false)}, true},
		{"editor reads any unpublished", editor(2), policy.ActionRead, policy.Article{Article: article(1, false)}, true},
		{"admin reads any unpublished", admin(2), policy.ActionRead, policy.Article{Article: article(1, false)}, true},

		{"anonymous denied create", nil, policy.ActionCreate, policy.Article{}, false},
		{"reader creates", reader(1), policy.ActionCreate, policy.Article{}, true},

		{"author updates own content", reader(1), policy.ActionUpdate, policy.Article{Article: article(1, true), ContentChanged: true}, true},
		{"reader denied others update", reader(2), policy.ActionUpdate, policy.Article{Article: article(1, true)}, false},
		{"admin updates any content", admin(2), policy.ActionUpdate, policy.Article{Article: article(1, true), ContentChanged: true}, true},
		{"editor flips publication flag", editor(2), policy.ActionUpdate, policy.Article{Article: article(1, false)}, true},
		{"editor denied content change", editor(2), policy.ActionUpdate, policy.Article{Article: article(1, false), ContentChanged: true}, false},
		{"editor changes own content", editor(2), policy.ActionUpdate, policy.Article{Article: article(2, false), ContentChanged: true}, true},

		{"author deletes own", reader(1), policy.ActionDelete, policy.Article{Article: article(1, true)}, true},
		{"editor denied others delete", editor(2), policy.ActionDelete, policy.Article{Article: article(1, true)}, false},
		{"admin deletes any", admin(2), policy.ActionDelete, policy.Article{Article: article(1, true)}, true},
		{"reader denied others delete", reader(2), policy.ActionDelete, policy.Article{Article: article(1, true)}, false},

		{"anonymous denied like", nil, policy.ActionLike, policy.Article{Article: article(1, true)}, false},
		{"reader likes published", reader(2), policy.ActionLike, policy.Article{Article: article(1, true)}, true},
		{"reader denied like unpublished", reader(2), policy.ActionLike, policy.Article{Article: article(1, false)}, false},
		{"author likes own unpublished", reader(1), policy.ActionLike, policy.Article{Article: article(1, false)}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Decide(tt.actor, tt.action, tt.res)
			assert.Equal(t, tt.allowed, d.Allowed)

			if tt.allowed {
				assert.NoError(t, d.Err())
			} else {
				var denied *policy.DeniedError
				require.ErrorAs(t, d.Err(), &denied)
				assert.NotEmpty(t, denied.Reason)
			}
		})
	}
}

func TestDecideComment(t *testing.T) {
	comment := func(userID int64) models.Comment {
		return models.Comment{ID: 7, Content: "hi", ArticleID: 10, UserID: userID} //nolint:exhaustruct
	}

	tests := []struct {
		name    string
		actor   *models.Identity
		action  policy.Action
		res     policy.Comment
		allowed bool
	}{
		{"anonymous reads comments on published", nil, policy.ActionRead, policy.Comment{Parent: article(1, true)}, true},
		{"anonymous denied comments on unpublished", nil, policy.ActionRead, policy.Comment{Parent: article(1, false)}, false},
		{"author reads comments on own unpublished", reader(1), policy.ActionRead, policy.Comment{Parent: article(1, false)}, true},

		{"anonymous denied comment create", nil, policy.ActionCreate, policy.Comment{Parent: article(1, true)}, false},
		{"reader comments on published", reader(2), policy.ActionCreate, policy.Comment{Parent: article(1, true)}, true},
		{"reader denied comment on unpublished", reader(2), policy.ActionCreate, policy.Comment{Parent: article(1, false)}, false},

		{"comment author updates own", reader(3), policy.ActionUpdate, policy.Comment{Comment: comment(3), Parent: article(1, true)}, true},
		{"article author denied comment update", reader(1), policy.ActionUpdate, policy.Comment{Comment: comment(3), Parent: article(1, true)}, false},
		{"admin updates any comment", admin(4), policy.ActionUpdate, policy.Comment{Comment: comment(3), Parent: article(1, true)}, true},

		{"comment author deletes own", reader(3), policy.ActionDelete, policy.Comment{Comment: comment(3), Parent: article(1, true)}, true},
		{"article author deletes comment", reader(1), policy.ActionDelete, policy.Comment{Comment: comment(3), Parent: article(1, true)}, true},
		{"admin deletes any comment", admin(4), policy.ActionDelete, policy.Comment{Comment: comment(3), Parent: article(1, true)}, true},
		{"stranger denied comment delete", reader(5), policy.ActionDelete, policy.Comment{Comment: comment(3), Parent: article(1, true)}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Decide(tt.actor, tt.action, tt.res)
			assert.Equal(t, tt.allowed, d.Allowed)
		})
	}
}

func TestDecideTag(t *testing.T) {
	assert.False(t, policy.Decide(nil, policy.ActionCreate, policy.Tag{}).Allowed)
	assert.False(t, policy.Decide(reader(1), policy.ActionCreate, policy.Tag{}).Allowed)
	assert.True(t, policy.Decide(editor(1), policy.ActionCreate, policy.Tag{}).Allowed)
	assert.True(t, policy.Decide(admin(1), policy.ActionCreate, policy.Tag{}).Allowed)
	assert.False(t, policy.Decide(admin(1), policy.ActionDelete, policy.Tag{}).Allowed)
}

func TestDecideUser(t *testing.T) {
	roleReader := models.RoleReader
	roleAdmin := models.RoleAdmin

	tests := []struct {
		name    string
		actor   *models.Identity
		action  policy.Action
		res     policy.User
		allowed bool
	}{
		{"anonymous denied", nil, policy.ActionRead, policy.User{TargetID: 2}, false},
		{"reader denied", reader(1), policy.ActionRead, policy.User{TargetID: 2}, false},
		{"editor denied", editor(1), policy.ActionRead, policy.User{TargetID: 2}, false},
		{"admin reads users", admin(1), policy.ActionRead, policy.User{TargetID: 2}, true},

		{"admin updates other", admin(1), policy.ActionUpdate, policy.User{TargetID: 2, NewRole: &roleReader}, true},
		{"admin demotes other admin", admin(1), policy.ActionUpdate, policy.User{TargetID: 2, NewRole: &roleReader}, true},
		{"admin denied self demotion", admin(1), policy.ActionUpdate, policy.User{TargetID: 1, NewRole: &roleReader}, false},
		{"admin keeps own role", admin(1), policy.ActionUpdate, policy.User{TargetID: 1, NewRole: &roleAdmin}, true},
		{"admin updates self without role change", admin(1), policy.ActionUpdate, policy.User{TargetID: 1}, true},

		{"admin deletes other", admin(1), policy.ActionDelete, policy.User{TargetID: 2}, true},
		{"admin denied self delete", admin(1), policy.ActionDelete, policy.User{TargetID: 1}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Decide(tt.actor, tt.action, tt.res)
			assert.Equal(t, tt.allowed, d.Allowed)
		})
	}
}
