package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// Attachment content storage is delegated to an external collaborator; only
// metadata is persisted here, with a synthetic URL standing in for the upload
// target.
const attachmentURLPrefix = "https://example.com/uploads/"

func listAttachments(store Storage, guard *Guard) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := guard.CheckMember(ctx, subjectID(c), TaskRef(c.Param("taskId"))); err != nil {
			return respondError(c, err)
		}
		attachments, err := store.FetchAttachments(ctx, c.Param("taskId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]domain.Attachment{"attachments": attachments})
	}
}

func createAttachment(store Storage, guard *Guard, bc Broadcaster, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newMutationMetrics(ctx, logger, "attachment.create")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		file, ferr := c.FormFile("file")
		if ferr != nil {
			metrics.SetErrorStage("validate")
			fe := FieldErrors{}
			fe.Add("file", "required")
			return respondError(c, fe)
		}

		guardStart := time.Now()
		project, gerr := guard.MemberProject(ctx, subjectID(c), TaskRef(c.Param("taskId")))
		metrics.ObserveGuard(time.Since(guardStart))
		if gerr != nil {
			metrics.SetErrorStage("guard")
			return respondError(c, gerr)
		}

		attachment := domain.Attachment{
			ID:         uuid.NewString(),
			TaskID:     c.Param("taskId"),
			URL:        attachmentURLPrefix + file.Filename,
			Filename:   file.Filename,
			Size:       file.Size,
			MimeType:   file.Header.Get(echo.HeaderContentType),
			UploadedBy: subjectID(c),
			CreatedAt:  time.Now().UTC(),
		}
		persistStart := time.Now()
		perr := store.CreateAttachment(ctx, attachment)
		metrics.ObservePersist(time.Since(persistStart))
		if perr != nil {
			metrics.SetErrorStage("persist")
			return respondError(c, perr)
		}

		broadcastStart := time.Now()
		bc.Publish(project.ID, domain.AttachmentAdded{Attachment: attachment})
		metrics.ObserveBroadcast(time.Since(broadcastStart))

		return c.JSON(http.StatusCreated, map[string]domain.Attachment{"attachment": attachment})
	}
}

func deleteAttachment(store Storage, guard *Guard, bc Broadcaster, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newMutationMetrics(ctx, logger, "attachment.delete")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		attachment, ferr := store.FetchAttachment(ctx, c.Param("attachmentId"))
		if ferr != nil {
			metrics.SetErrorStage("guard")
			return respondError(c, ferr)
		}

		// Only the uploader or the project owner may delete. The uploader
		// path needs no project lookup.
		guardStart := time.Now()
		if attachment.UploadedBy != subjectID(c) {
			_, gerr := guard.OwnerProject(ctx, subjectID(c), TaskRef(attachment.TaskID))
			if gerr != nil {
				metrics.ObserveGuard(time.Since(guardStart))
				metrics.SetErrorStage("guard")
				return respondError(c, gerr)
			}
		}
		metrics.ObserveGuard(time.Since(guardStart))

		persistStart := time.Now()
		deleted, perr := store.DeleteAttachment(ctx, c.Param("attachmentId"))
		metrics.ObservePersist(time.Since(persistStart))
		if perr != nil {
			metrics.SetErrorStage("persist")
			return respondError(c, perr)
		}

		// The broadcast room is resolved after the delete has succeeded. If
		// the owning task or project vanished in between, the delete still
		// counts: report success and skip the broadcast.
		project, rerr := guard.ResolveProject(ctx, TaskRef(deleted.TaskID))
		if rerr != nil {
			metrics.SetErrorStage("broadcast_resolve")
			logger.WithFields(log.Fields{
				"attachment_id": deleted.ID,
				"task_id":       deleted.TaskID,
				"error":         rerr.Error(),
			}).Warn("attachment removed but broadcast room unresolvable; event skipped")
			return c.NoContent(http.StatusNoContent)
		}

		broadcastStart := time.Now()
		bc.Publish(project.ID, domain.AttachmentRemoved{AttachmentID: deleted.ID})
		metrics.ObserveBroadcast(time.Since(broadcastStart))

		return c.NoContent(http.StatusNoContent)
	}
}
