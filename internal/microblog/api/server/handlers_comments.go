package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Комментарии к статье
// (GET /api/comments/article/{articleID}).
func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	articleID, err := strconv.ParseInt(chi.URLParam(r, "articleID"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid article id")

		return
	}

	comments, err := s.commentService.ListByArticle(r.Context(), identityFrom(r), articleID)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(comments) //nolint:errcheck,errchkjson
}

// Создание комментария
// (POST /api/comments/article/{articleID}).
func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	articleID, err := strconv.ParseInt(chi.URLParam(r, "articleID"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid article id")

		return
	}

	var req struct {
		Content string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if req.Content == "" {
		handleError(w, http.StatusBadRequest, "comment content is required")

		return
	}

	c, err := s.commentService.CreateComment(r.Context(), identity, articleID, req.Content)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c) //nolint:errcheck,errchkjson
}

// Редактирование комментария
// (PUT /api/comments/{commentID}).
func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid comment id")

		return
	}

	var req struct {
		Content string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if req.Content == "" {
		handleError(w, http.StatusBadRequest, "comment content is required")

		return
	}

	c, err := s.commentService.UpdateComment(r.Context(), identity, commentID, req.Content)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(c) //nolint:errcheck,errchkjson
}

// Удаление комментария
// (DELETE /api/comments/{commentID}).
func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid comment id")

		return
	}

	if err := s.commentService.DeleteComment(r.Context(), identity, commentID); err != nil {
		handleServiceError(w, err)

		return
	}

	resp := MessageResponse{Message: "Comment deleted successfully"}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}
