package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/mberezin/microblog/internal/microblog/domain/models"
	"github.com/mberezin/microblog/internal/pkg/jwtauth"
	"github.com/mberezin/microblog/pkg/logger"
)

type ctxKey int

const identityKey ctxKey = iota

func loggingMiddleware(logg logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := httptest.NewRecorder()

			defer func() {
				latency := time.Since(start).String()

				logg.Infof("METHOD %s URI %s %s	STATUS %d Latency %s Client IP %s User Agent %s",
					r.Method,
					r.Proto,
					r.URL.RequestURI(),
					rr.Code,
					latency,
					r.RemoteAddr,
					r.UserAgent(),
				)
			}()

			next.ServeHTTP(rr, r)

			for k, v := range rr.Header() {
				w.Header()[k] = v
			}

			w.WriteHeader(rr.Code)

			if rr.Code >= 400 && rr.Body.Len() != 0 {
				logg.Errorf("error: %s", rr.Body)
			}

			_, err := rr.Body.WriteTo(w)
			if err != nil {
				logg.Errorf("middleware write error: %s", err.Error())
			}
		})
	}
}

// identityMiddleware resolves the bearer token into an Identity for
// downstream handlers. Requests without a token pass through as
// anonymous; a presented but unusable token fails the request.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)

			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			handleError(w, http.StatusUnauthorized, "invalid authorization header")

			return
		}

		claims, err := jwtauth.ValidateToken(token, s.secret)
		if err != nil {
			handleError(w, http.StatusUnauthorized, "invalid token")

			return
		}

		// The session token is stateless; re-fetch the user so deleted
		// or unverified accounts lose access immediately.
		identity, err := s.authService.Identity(r.Context(), claims.UserID)
		if err != nil {
			handleError(w, http.StatusUnauthorized, "invalid token")

			return
		}

		ctx := context.WithValue(r.Context(), identityKey, &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) *models.Identity {
	identity, ok := r.Context().Value(identityKey).(*models.Identity)
	if !ok {
		return nil
	}

	return identity
}
