package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard/domain"
)

func listUsers(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := store.FetchUsers(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]domain.User{"users": users})
	}
}
