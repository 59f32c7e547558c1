package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mberezin/microblog/internal/microblog/services/articleservice"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Список статей с пагинацией и фильтром по тегу
// (GET /api/articles).
func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	req := articleservice.ListRequest{
		Page:  defaultPage,
		Limit: defaultLimit,
		Tag:   r.URL.Query().Get("tag"),
	}

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		req.Page = p
	}

	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		req.Limit = l
	}

	articles, total, err := s.articleService.ListArticles(r.Context(), identityFrom(r), req)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	pages := total / req.Limit
	if total%req.Limit != 0 {
		pages++
	}

	resp := ListArticlesResponse{
		Articles: articles,
		Pagination: Pagination{
			Page:  req.Page,
			Limit: req.Limit,
			Total: total,
			Pages: pages,
		},
	}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Получение статьи
// (GET /api/articles/{id}).
func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid article id")

		return
	}

	a, err := s.articleService.GetArticle(r.Context(), identityFrom(r), id)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(a) //nolint:errcheck,errchkjson
}

// Создание статьи
// (POST /api/articles).
func (s *Server) createArticle(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	var req articleservice.CreateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if req.Title == "" || req.Content == "" {
		handleError(w, http.StatusBadRequest, "title and content are required")

		return
	}

	a, err := s.articleService.CreateArticle(r.Context(), identity, req)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(a) //nolint:errcheck,errchkjson
}

// Обновление статьи
// (PUT /api/articles/{id}).
func (s *Server) updateArticle(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid article id")

		return
	}

	var req articleservice.UpdateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	a, err := s.articleService.UpdateArticle(r.Context(), identity, id, req)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(a) //nolint:errcheck,errchkjson
}

// Удаление статьи
// (DELETE /api/articles/{id}).
func (s *Server) deleteArticle(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid article id")

		return
	}

	if err := s.articleService.DeleteArticle(r.Context(), identity, id); err != nil {
		handleServiceError(w, err)

		return
	}

	resp := MessageResponse{Message: "Article deleted successfully"}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Лайк/дизлайк статьи
// (POST /api/articles/{id}/like).
func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid article id")

		return
	}

	liked, err := s.articleService.ToggleLike(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	resp := LikeResponse{Liked: liked, Message: "Article unliked"}
	if liked {
		resp.Message = "Article liked"
	}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Список тегов
// (GET /api/articles/tags).
func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	tags, err := s.articleService.ListTags(r.Context())
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(tags) //nolint:errcheck,errchkjson
}

// Создание тега
// (POST /api/articles/tags).
func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if req.Name == "" {
		handleError(w, http.StatusBadRequest, "tag name is required")

		return
	}

	t, err := s.articleService.CreateTag(r.Context(), identity, req.Name)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(t) //nolint:errcheck,errchkjson
}
