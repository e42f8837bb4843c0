package api

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskboard/domain"
	"taskboard/storage"
)

const (
	inviteCodeLength   = 6
	inviteCodeCharset  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeAttempts = 5
)

// newInviteCode generates a short join token. Uniqueness is enforced by the
// store, not here; collisions are retried by the caller.
func newInviteCode() string {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = inviteCodeCharset[int(b)%len(inviteCodeCharset)]
	}
	return string(buf)
}

func listProjects(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		projects, err := store.FetchProjectsForUser(c.Request().Context(), subjectID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]domain.Project{"projects": projects})
	}
}

type projectBody struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
}

func createProject(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body projectBody
		if err := decodeBody(c, &body); err != nil {
			return invalidBody(c)
		}
		fe := FieldErrors{}
		if strings.TrimSpace(body.Name) == "" {
			fe.Add("name", "required")
		}
		deadline := parseDateField(fe, "deadline", body.Deadline)
		if err := fe.Err(); err != nil {
			return respondError(c, err)
		}

		now := time.Now().UTC()
		project := domain.Project{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(body.Name),
			Description: body.Description,
			Deadline:    deadline,
			OwnerID:     subjectID(c),
			MemberIDs:   []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		// Invite collisions are retried with a fresh code; the caller never
		// sees the conflict.
		var err error
		for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
			project.InviteCode = newInviteCode()
			err = store.CreateProject(c.Request().Context(), project)
			if !errors.Is(err, storage.ErrInviteCodeTaken) {
				break
			}
		}
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, map[string]domain.Project{"project": project})
	}
}

func getProject(store Storage, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		project, err := guard.MemberProject(ctx, subjectID(c), ProjectRef(c.Param("projectId")))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]domain.Project{"project": project})
	}
}

type projectPatchBody struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Deadline    json.RawMessage `json:"deadline"`
}

func updateProject(store Storage, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var body projectPatchBody
		if err := decodeBody(c, &body); err != nil {
			return invalidBody(c)
		}
		fe := FieldErrors{}
		if body.Name != nil && strings.TrimSpace(*body.Name) == "" {
			fe.Add("name", "required")
		}
		patch := storage.ProjectPatch{Name: body.Name, Description: body.Description}
		if len(body.Deadline) > 0 {
			if string(body.Deadline) == "null" {
				patch.ClearDeadline = true
			} else {
				var raw string
				if err := json.Unmarshal(body.Deadline, &raw); err != nil {
					fe.Add("deadline", "must be an RFC 3339 datetime")
				} else {
					patch.Deadline = parseDateField(fe, "deadline", raw)
				}
			}
		}
		if err := fe.Err(); err != nil {
			return respondError(c, err)
		}

		if err := guard.CheckOwner(ctx, subjectID(c), ProjectRef(c.Param("projectId"))); err != nil {
			return respondError(c, err)
		}
		project, err := store.UpdateProject(ctx, c.Param("projectId"), patch)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]domain.Project{"project": project})
	}
}

func deleteProject(store Storage, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := guard.CheckOwner(ctx, subjectID(c), ProjectRef(c.Param("projectId"))); err != nil {
			return respondError(c, err)
		}
		if _, err := store.DeleteProject(ctx, c.Param("projectId")); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func joinProject(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var body struct {
			InviteCode string `json:"inviteCode"`
		}
		if err := decodeBody(c, &body); err != nil {
			return invalidBody(c)
		}
		if len(body.InviteCode) < 4 {
			fe := FieldErrors{}
			fe.Add("inviteCode", "must be at least 4 characters")
			return respondError(c, fe)
		}

		project, err := store.FetchProjectByInviteCode(ctx, body.InviteCode)
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorBody{Error: "Invalid invite code"})
		}
		if err != nil {
			return respondError(c, err)
		}
		// Re-joining is idempotent: owners and existing members get the
		// project back unchanged.
		if project.HasMember(subjectID(c)) {
			return c.JSON(http.StatusOK, map[string]domain.Project{"project": project})
		}
		project, err = store.AddProjectMember(ctx, project.ID, subjectID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]domain.Project{"project": project})
	}
}

func leaveProject(store Storage, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		project, err := guard.MemberProject(ctx, subjectID(c), ProjectRef(c.Param("projectId")))
		if err != nil {
			return respondError(c, err)
		}
		// The owner is implicitly a member and cannot leave.
		if project.IsOwner(subjectID(c)) {
			return respondError(c, ErrForbidden)
		}
		project, err = store.RemoveProjectMember(ctx, project.ID, subjectID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]domain.Project{"project": project})
	}
}

// parseDateField parses an optional RFC 3339 datetime, recording a field error
// when the value is present but malformed.
func parseDateField(fe FieldErrors, field, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		fe.Add(field, "must be an RFC 3339 datetime")
		return nil
	}
	return &t
}
