package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/microblog/services/adminservice"
)

func validRole(role string) bool {
	switch role {
	case models.RoleReader, models.RoleEditor, models.RoleAdmin:
		return true
	default:
		return false
	}
}

// Список пользователей
// (GET /api/admin/users).
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	users, err := s.adminService.ListUsers(r.Context(), identity)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(users) //nolint:errcheck,errchkjson
}

// Пользователь по идентификатору
// (GET /api/admin/users/{id}).
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid user id")

		return
	}

	u, err := s.adminService.GetUser(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(u) //nolint:errcheck,errchkjson
}

// Обновление пользователя
// (PUT /api/admin/users/{id}).
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid user id")

		return
	}

	var req adminservice.UpdateUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if req.Role != nil && !validRole(*req.Role) {
		handleError(w, http.StatusBadRequest, "role must be one of READER, EDITOR, ADMIN")

		return
	}

	u, err := s.adminService.UpdateUser(r.Context(), identity, id, req)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(u) //nolint:errcheck,errchkjson
}

// Удаление пользователя
// (DELETE /api/admin/users/{id}).
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		handleError(w, http.StatusBadRequest, "invalid user id")

		return
	}

	if err := s.adminService.DeleteUser(r.Context(), identity, id); err != nil {
		handleServiceError(w, err)

		return
	}

	resp := MessageResponse{Message: "User deleted successfully"}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Сводная статистика
// (GET /api/admin/dashboard).
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	st, err := s.adminService.DashboardStats(r.Context(), identity)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(st) //nolint:errcheck,errchkjson
}
