package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mberezin/microblog/internal/microblog/domain/policy"
	"github.com/mberezin/microblog/internal/microblog/services/adminservice"
	"github.com/mberezin/microblog/internal/microblog/services/articleservice"
	"github.com/mberezin/microblog/internal/microblog/services/authservice"
	"github.com/mberezin/microblog/internal/microblog/services/commentservice"
)

type Error struct {
	Err string `json:"error"`
}

func (se Error) ToJSON() []byte {
	b, err := json.Marshal(se)
	if err != nil {
		se.Err = err.Error()

		b, err := json.Marshal(se)
		if err != nil {
			return []byte(`{
				"error": "marshal error"
			  }`)
		}

		return b
	}

	return b
}

func handleError(w http.ResponseWriter, code int, msg string) {
	w.WriteHeader(code)

	e := Error{msg}

	w.Write(e.ToJSON()) //nolint:errcheck
}

// statusFromError maps the closed set of domain errors onto HTTP
// status codes. Anything outside the set is an internal error and is
// not leaked to the client.
func statusFromError(err error) (int, string) { //nolint:cyclop
	var denied *policy.DeniedError

	switch {
	case errors.As(err, &denied):
		return http.StatusForbidden, denied.Reason
	case errors.Is(err, authservice.ErrEmailTaken),
		errors.Is(err, articleservice.ErrTagExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, authservice.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, authservice.ErrUnverifiedAccount):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, authservice.ErrInvalidToken),
		errors.Is(err, authservice.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, articleservice.ErrNotFound),
		errors.Is(err, commentservice.ErrNotFound),
		errors.Is(err, commentservice.ErrArticleNotFound),
		errors.Is(err, adminservice.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, authservice.ErrDelivery):
		return http.StatusBadGateway, "failed to send email"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	code, msg := statusFromError(err)
	handleError(w, code, msg)
}
