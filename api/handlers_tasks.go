package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
	"taskboard/storage"
)

func listTasks(store Storage, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		fe := FieldErrors{}
		filter := storage.TaskFilter{AssigneeID: c.QueryParam("assigneeId")}
		if raw := c.QueryParam("status"); raw != "" {
			status := domain.TaskStatus(raw)
			if !status.Valid() {
				fe.Add("status", "must be one of todo, in_progress, done")
			}
			filter.Status = status
		}
		if err := fe.Err(); err != nil {
			return respondError(c, err)
		}

		if err := guard.CheckMember(ctx, subjectID(c), ProjectRef(c.Param("projectId"))); err != nil {
			return respondError(c, err)
		}
		tasks, err := store.FetchTasks(ctx, c.Param("projectId"), filter)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]domain.Task{"tasks": tasks})
	}
}

func getTask(store Storage, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := guard.CheckMember(ctx, subjectID(c), TaskRef(c.Param("taskId"))); err != nil {
			return respondError(c, err)
		}
		task, err := store.FetchTask(ctx, c.Param("taskId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]domain.Task{"task": task})
	}
}

type taskBody struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AssigneeID  string `json:"assigneeId,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

func createTask(store Storage, guard *Guard, bc Broadcaster, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newMutationMetrics(ctx, logger, "task.create")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var body taskBody
		if err := decodeBody(c, &body); err != nil {
			metrics.SetErrorStage("decode")
			return invalidBody(c)
		}
		fe := FieldErrors{}
		if strings.TrimSpace(body.Title) == "" {
			fe.Add("title", "required")
		}
		status := domain.StatusTodo
		if body.Status != "" {
			status = domain.TaskStatus(body.Status)
			if !status.Valid() {
				fe.Add("status", "must be one of todo, in_progress, done")
			}
		}
		priority := domain.PriorityMedium
		if body.Priority != "" {
			priority = domain.TaskPriority(body.Priority)
			if !priority.Valid() {
				fe.Add("priority", "must be one of low, medium, high")
			}
		}
		dueDate := parseDateField(fe, "dueDate", body.DueDate)
		if ferr := fe.Err(); ferr != nil {
			metrics.SetErrorStage("validate")
			return respondError(c, ferr)
		}

		guardStart := time.Now()
		gerr := guard.CheckMember(ctx, subjectID(c), ProjectRef(c.Param("projectId")))
		metrics.ObserveGuard(time.Since(guardStart))
		if gerr != nil {
			metrics.SetErrorStage("guard")
			return respondError(c, gerr)
		}

		now := time.Now().UTC()
		task := domain.Task{
			ID:          uuid.NewString(),
			ProjectID:   c.Param("projectId"),
			Title:       strings.TrimSpace(body.Title),
			Description: body.Description,
			AssigneeID:  body.AssigneeID,
			Status:      status,
			Priority:    priority,
			DueDate:     dueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		persistStart := time.Now()
		perr := store.CreateTask(ctx, task)
		metrics.ObservePersist(time.Since(persistStart))
		if perr != nil {
			metrics.SetErrorStage("persist")
			return respondError(c, perr)
		}

		broadcastStart := time.Now()
		bc.Publish(task.ProjectID, domain.TaskCreated{Task: task})
		metrics.ObserveBroadcast(time.Since(broadcastStart))

		return c.JSON(http.StatusCreated, map[string]domain.Task{"task": task})
	}
}

type taskPatchBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssigneeID  *string `json:"assigneeId"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	Order       *int    `json:"order"`
}

func (b taskPatchBody) toPatch(fe FieldErrors) storage.TaskPatch {
	patch := storage.TaskPatch{
		Title:       b.Title,
		Description: b.Description,
		AssigneeID:  b.AssigneeID,
		Order:       b.Order,
	}
	if b.Title != nil && strings.TrimSpace(*b.Title) == "" {
		fe.Add("title", "required")
	}
	if b.Status != nil {
		status := domain.TaskStatus(*b.Status)
		if !status.Valid() {
			fe.Add("status", "must be one of todo, in_progress, done")
		}
		patch.Status = &status
	}
	if b.Priority != nil {
		priority := domain.TaskPriority(*b.Priority)
		if !priority.Valid() {
			fe.Add("priority", "must be one of low, medium, high")
		}
		patch.Priority = &priority
	}
	if b.DueDate != nil {
		patch.DueDate = parseDateField(fe, "dueDate", *b.DueDate)
	}
	return patch
}

func updateTask(store Storage, guard *Guard, bc Broadcaster, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newMutationMetrics(ctx, logger, "task.update")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var body taskPatchBody
		if err := decodeBody(c, &body); err != nil {
			metrics.SetErrorStage("decode")
			return invalidBody(c)
		}
		fe := FieldErrors{}
		patch := body.toPatch(fe)
		if ferr := fe.Err(); ferr != nil {
			metrics.SetErrorStage("validate")
			return respondError(c, ferr)
		}

		guardStart := time.Now()
		gerr := guard.CheckMember(ctx, subjectID(c), TaskRef(c.Param("taskId")))
		metrics.ObserveGuard(time.Since(guardStart))
		if gerr != nil {
			metrics.SetErrorStage("guard")
			return respondError(c, gerr)
		}

		persistStart := time.Now()
		task, perr := store.UpdateTask(ctx, c.Param("taskId"), patch)
		metrics.ObservePersist(time.Since(persistStart))
		if perr != nil {
			metrics.SetErrorStage("persist")
			return respondError(c, perr)
		}

		broadcastStart := time.Now()
		bc.Publish(task.ProjectID, domain.TaskUpdated{Task: task})
		metrics.ObserveBroadcast(time.Since(broadcastStart))

		return c.JSON(http.StatusOK, map[string]domain.Task{"task": task})
	}
}

func updateTaskStatus(store Storage, guard *Guard, bc Broadcaster, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newMutationMetrics(ctx, logger, "task.status")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(c, &body); err != nil {
			metrics.SetErrorStage("decode")
			return invalidBody(c)
		}
		status := domain.TaskStatus(body.Status)
		if !status.Valid() {
			metrics.SetErrorStage("validate")
			fe := FieldErrors{}
			fe.Add("status", "must be one of todo, in_progress, done")
			return respondError(c, fe)
		}

		guardStart := time.Now()
		gerr := guard.CheckMember(ctx, subjectID(c), TaskRef(c.Param("taskId")))
		metrics.ObserveGuard(time.Since(guardStart))
		if gerr != nil {
			metrics.SetErrorStage("guard")
			return respondError(c, gerr)
		}

		persistStart := time.Now()
		task, perr := store.UpdateTask(ctx, c.Param("taskId"), storage.TaskPatch{Status: &status})
		metrics.ObservePersist(time.Since(persistStart))
		if perr != nil {
			metrics.SetErrorStage("persist")
			return respondError(c, perr)
		}

		// Status-only updates broadcast the narrow event, not a full
		// task:update.
		broadcastStart := time.Now()
		bc.Publish(task.ProjectID, domain.TaskStatusChanged{TaskID: task.ID, Status: task.Status})
		metrics.ObserveBroadcast(time.Since(broadcastStart))

		return c.JSON(http.StatusOK, map[string]domain.Task{"task": task})
	}
}

func deleteTask(store Storage, guard *Guard, bc Broadcaster, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newMutationMetrics(ctx, logger, "task.delete")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		guardStart := time.Now()
		gerr := guard.CheckMember(ctx, subjectID(c), TaskRef(c.Param("taskId")))
		metrics.ObserveGuard(time.Since(guardStart))
		if gerr != nil {
			metrics.SetErrorStage("guard")
			return respondError(c, gerr)
		}

		persistStart := time.Now()
		task, perr := store.DeleteTask(ctx, c.Param("taskId"))
		metrics.ObservePersist(time.Since(persistStart))
		if perr != nil {
			metrics.SetErrorStage("persist")
			return respondError(c, perr)
		}

		broadcastStart := time.Now()
		bc.Publish(task.ProjectID, domain.TaskDeleted{TaskID: task.ID})
		metrics.ObserveBroadcast(time.Since(broadcastStart))

		return c.NoContent(http.StatusNoContent)
	}
}
