package server

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/mberezin/microblog/internal/microblog/services/authservice"
)

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 8

// Регистрация пользователя
// (POST /api/auth/register).
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var req authservice.RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if req.Name == "" || !emailRx.MatchString(req.Email) || len(req.Password) < minPasswordLen {
		handleError(w, http.StatusBadRequest, "name, valid email and a password of at least 8 characters are required")

		return
	}

	if _, err := s.authService.Register(r.Context(), req); err != nil {
		handleServiceError(w, err)

		return
	}

	w.WriteHeader(http.StatusCreated)

	resp := MessageResponse{
		Message: "Registration successful. Please check your email to verify your account.",
	}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Подтверждение email по одноразовому токену
// (GET /api/auth/verify/{token}).
func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	token := chi.URLParam(r, "token")

	if _, err := s.authService.VerifyEmail(r.Context(), token); err != nil {
		handleServiceError(w, err)

		return
	}

	resp := MessageResponse{Message: "Email verified successfully. You can now log in."}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Аутентификация пользователя
// (POST /api/auth/login).
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if req.Email == "" || req.Password == "" {
		handleError(w, http.StatusBadRequest, "email and password are required")

		return
	}

	token, u, err := s.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	resp := LoginResponse{Token: token, User: u}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Запрос на сброс пароля. Ответ всегда одинаковый, чтобы нельзя было
// проверить, зарегистрирован ли email.
// (POST /api/auth/forgot-password).
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	var req struct {
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if !emailRx.MatchString(req.Email) {
		handleError(w, http.StatusBadRequest, "valid email is required")

		return
	}

	s.authService.RequestPasswordReset(r.Context(), req.Email)

	resp := MessageResponse{
		Message: "If an account with that email exists, a password reset link has been sent.",
	}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Установка нового пароля по токену сброса
// (POST /api/auth/reset-password/{token}).
func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	token := chi.URLParam(r, "token")

	var req struct {
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, http.StatusBadRequest, "decode error: "+err.Error())

		return
	}

	if len(req.Password) < minPasswordLen {
		handleError(w, http.StatusBadRequest, "password must be at least 8 characters")

		return
	}

	if err := s.authService.ResetPassword(r.Context(), token, req.Password); err != nil {
		handleServiceError(w, err)

		return
	}

	resp := MessageResponse{
		Message: "Password reset successful. You can now log in with your new password.",
	}

	json.NewEncoder(w).Encode(resp) //nolint:errcheck,errchkjson
}

// Текущий пользователь
// (GET /api/auth/me).
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	identity := identityFrom(r)
	if identity == nil {
		handleError(w, http.StatusUnauthorized, "authentication required")

		return
	}

	u, err := s.authService.Me(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)

		return
	}

	json.NewEncoder(w).Encode(u) //nolint:errcheck,errchkjson
}
