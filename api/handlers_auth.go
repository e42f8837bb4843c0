package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"taskboard/domain"
	"taskboard/storage"
)

const bcryptCost = 10

type credentialsBody struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User         domain.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func registerUser(store Storage, issuer *TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body credentialsBody
		if err := decodeBody(c, &body); err != nil {
			return invalidBody(c)
		}
		fe := FieldErrors{}
		if strings.TrimSpace(body.Name) == "" {
			fe.Add("name", "required")
		}
		if !validEmail(body.Email) {
			fe.Add("email", "must be a valid email address")
		}
		if len(body.Password) < 8 {
			fe.Add("password", "must be at least 8 characters")
		}
		if err := fe.Err(); err != nil {
			return respondError(c, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcryptCost)
		if err != nil {
			return respondError(c, err)
		}
		user := domain.User{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(body.Name),
			Email:        strings.ToLower(body.Email),
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		}
		if err := store.CreateUser(c.Request().Context(), user); err != nil {
			return respondError(c, err)
		}

		resp, err := newSession(issuer, user)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, resp)
	}
}

func login(store Storage, issuer *TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body credentialsBody
		if err := decodeBody(c, &body); err != nil {
			return invalidBody(c)
		}
		fe := FieldErrors{}
		if !validEmail(body.Email) {
			fe.Add("email", "must be a valid email address")
		}
		if len(body.Password) < 8 {
			fe.Add("password", "must be at least 8 characters")
		}
		if err := fe.Err(); err != nil {
			return respondError(c, err)
		}

		user, err := store.FetchUserByEmail(c.Request().Context(), strings.ToLower(body.Email))
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "Invalid credentials"})
		}
		if err != nil {
			return respondError(c, err)
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "Invalid credentials"})
		}

		resp, err := newSession(issuer, user)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func newSession(issuer *TokenIssuer, user domain.User) (sessionResponse, error) {
	access, err := issuer.SignAccess(user.ID)
	if err != nil {
		return sessionResponse{}, err
	}
	refresh, err := issuer.SignRefresh(user.ID)
	if err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func refreshToken(issuer *TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(c, &body); err != nil {
			return invalidBody(c)
		}
		if body.RefreshToken == "" {
			fe := FieldErrors{}
			fe.Add("refreshToken", "required")
			return respondError(c, fe)
		}
		subject, err := issuer.VerifyRefresh(body.RefreshToken)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "Invalid refresh token"})
		}
		access, err := issuer.SignAccess(subject)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]string{"accessToken": access})
	}
}

func logout() echo.HandlerFunc {
	return func(c echo.Context) error {
		// Stateless tokens: nothing to revoke server-side.
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	}
}

func me(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := store.FetchUser(c.Request().Context(), subjectID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]domain.User{"user": user})
	}
}
