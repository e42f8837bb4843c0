package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/storage"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")

	// ErrForbidden means the subject is authenticated but not authorized.
	ErrForbidden = errors.New("forbidden")
)

// FieldErrors accumulates every violated field of a request body so the
// response enumerates all of them, not just the first.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func (fe FieldErrors) Error() string { return "invalid input" }

// Err returns fe as an error when any field was violated, nil otherwise.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

type errorBody struct {
	Error any `json:"error"`
}

type fieldErrorBody struct {
	FieldErrors FieldErrors `json:"fieldErrors"`
}

// respondError maps the error taxonomy onto HTTP responses. Unknown errors
// become 500s with the detail logged by the caller, not leaked to the client.
func respondError(c echo.Context, err error) error {
	var fe FieldErrors
	switch {
	case errors.As(err, &fe):
		return c.JSON(http.StatusBadRequest, errorBody{Error: fieldErrorBody{FieldErrors: fe}})
	case errors.Is(err, errMissingAuthorization), errors.Is(err, errBadAuthorization):
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	case errors.Is(err, ErrForbidden):
		return c.JSON(http.StatusForbidden, errorBody{Error: "Forbidden"})
	case errors.Is(err, storage.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: "Not found"})
	case errors.Is(err, storage.ErrEmailTaken):
		return c.JSON(http.StatusConflict, errorBody{Error: "Email already registered"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal error"})
	}
}
