package articleservice

type ListRequest struct {
	Page  int
	Limit int
	Tag   string
}

type CreateRequest struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Published bool    `json:"is_published"` //nolint:tagliatelle
	TagIDs    []int64 `json:"tag_ids"`      //nolint:tagliatelle
}

// UpdateRequest carries only the fields present in the request body;
// nil means "leave as is".
type UpdateRequest struct {
	Title     *string  `json:"title"`
	Content   *string  `json:"content"`
	Published *bool    `json:"is_published"` //nolint:tagliatelle
	TagIDs    *[]int64 `json:"tag_ids"`      //nolint:tagliatelle
}

// ContentChanged reports whether the request touches title or content.
// Empty strings don't count, matching the publication-flag-only scope
// granted to editors.
func (ur UpdateRequest) ContentChanged() bool {
	return (ur.Title != nil && *ur.Title != "") ||
		(ur.Content != nil && *ur.Content != "")
}
