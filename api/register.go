package api

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, issuer *TokenIssuer, bc Broadcaster, logger *log.Logger) {
	guard := NewGuard(store)
	authed := requireAuth(auth)

	ag := e.Group("/api/auth")
	ag.POST("/register", registerUser(store, issuer))
	ag.POST("/login", login(store, issuer))
	ag.POST("/refresh", refreshToken(issuer))
	ag.POST("/logout", logout())
	ag.GET("/me", me(store), authed)

	e.GET("/api/users", listUsers(store), authed)

	pg := e.Group("/api/projects", authed)
	pg.GET("", listProjects(store))
	pg.POST("", createProject(store))
	pg.POST("/join", joinProject(store))
	pg.GET("/:projectId", getProject(store, guard))
	pg.PATCH("/:projectId", updateProject(store, guard))
	pg.DELETE("/:projectId", deleteProject(store, guard))
	pg.POST("/:projectId/leave", leaveProject(store, guard))

	tg := e.Group("/api/tasks", authed)
	tg.GET("/project/:projectId/tasks", listTasks(store, guard))
	tg.POST("/project/:projectId/tasks", createTask(store, guard, bc, logger))
	tg.GET("/:taskId", getTask(store, guard))
	tg.PATCH("/:taskId", updateTask(store, guard, bc, logger))
	tg.PATCH("/:taskId/status", updateTaskStatus(store, guard, bc, logger))
	tg.DELETE("/:taskId", deleteTask(store, guard, bc, logger))
	tg.GET("/:taskId/comments", listComments(store, guard))
	tg.POST("/:taskId/comments", createComment(store, guard, bc, logger))
	tg.GET("/:taskId/attachments", listAttachments(store, guard))
	tg.POST("/:taskId/attachments", createAttachment(store, guard, bc, logger))

	e.DELETE("/api/attachments/:attachmentId", deleteAttachment(store, guard, bc, logger), authed)

	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// decodeBody strictly decodes a JSON request body into dst.
func decodeBody(c echo.Context, dst any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
}
