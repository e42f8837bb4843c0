package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const subjectContextKey = "taskboard.subject"

// requireAuth verifies the request's access token and stashes the subject id
// in the echo context. Every route below the auth boundary uses it; the
// realtime gateway performs the same check once at handshake instead.
func requireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject, err := auth.SubjectFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
			}
			c.Set(subjectContextKey, subject)
			return next(c)
		}
	}
}

// subjectID returns the authenticated subject stored by requireAuth.
func subjectID(c echo.Context) string {
	subject, _ := c.Get(subjectContextKey).(string)
	return subject
}
