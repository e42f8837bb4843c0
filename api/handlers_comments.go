package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

func listComments(store Storage, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := guard.CheckMember(ctx, subjectID(c), TaskRef(c.Param("taskId"))); err != nil {
			return respondError(c, err)
		}
		comments, err := store.FetchComments(ctx, c.Param("taskId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]domain.Comment{"comments": comments})
	}
}

func createComment(store Storage, guard *Guard, bc Broadcaster, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newMutationMetrics(ctx, logger, "comment.create")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var body struct {
			Body string `json:"body"`
		}
		if err := decodeBody(c, &body); err != nil {
			metrics.SetErrorStage("decode")
			return invalidBody(c)
		}
		if strings.TrimSpace(body.Body) == "" {
			metrics.SetErrorStage("validate")
			fe := FieldErrors{}
			fe.Add("body", "required")
			return respondError(c, fe)
		}

		guardStart := time.Now()
		project, gerr := guard.MemberProject(ctx, subjectID(c), TaskRef(c.Param("taskId")))
		metrics.ObserveGuard(time.Since(guardStart))
		if gerr != nil {
			metrics.SetErrorStage("guard")
			return respondError(c, gerr)
		}

		comment := domain.Comment{
			ID:        uuid.NewString(),
			TaskID:    c.Param("taskId"),
			AuthorID:  subjectID(c),
			Body:      body.Body,
			CreatedAt: time.Now().UTC(),
		}
		persistStart := time.Now()
		perr := store.CreateComment(ctx, comment)
		metrics.ObservePersist(time.Since(persistStart))
		if perr != nil {
			metrics.SetErrorStage("persist")
			return respondError(c, perr)
		}

		broadcastStart := time.Now()
		bc.Publish(project.ID, domain.CommentCreated{Comment: comment})
		metrics.ObserveBroadcast(time.Since(broadcastStart))

		return c.JSON(http.StatusCreated, map[string]domain.Comment{"comment": comment})
	}
}
