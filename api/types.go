package api

import (
	"context"

	"taskboard/domain"
	"taskboard/storage"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	CreateUser(ctx context.Context, u domain.User) error
	FetchUser(ctx context.Context, id string) (domain.User, error)
	FetchUserByEmail(ctx context.Context, email string) (domain.User, error)
	FetchUsers(ctx context.Context) ([]domain.User, error)

	CreateProject(ctx context.Context, p domain.Project) error
	FetchProject(ctx context.Context, id string) (domain.Project, error)
	FetchProjectByInviteCode(ctx context.Context, code string) (domain.Project, error)
	FetchProjectsForUser(ctx context.Context, userID string) ([]domain.Project, error)
	UpdateProject(ctx context.Context, id string, patch storage.ProjectPatch) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) (domain.Project, error)
	AddProjectMember(ctx context.Context, projectID, userID string) (domain.Project, error)
	RemoveProjectMember(ctx context.Context, projectID, userID string) (domain.Project, error)

	CreateTask(ctx context.Context, t domain.Task) error
	FetchTask(ctx context.Context, id string) (domain.Task, error)
	FetchTasks(ctx context.Context, projectID string, filter storage.TaskFilter) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch storage.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) (domain.Task, error)

	CreateComment(ctx context.Context, c domain.Comment) error
	FetchComments(ctx context.Context, taskID string) ([]domain.Comment, error)

	CreateAttachment(ctx context.Context, a domain.Attachment) error
	FetchAttachment(ctx context.Context, id string) (domain.Attachment, error)
	FetchAttachments(ctx context.Context, taskID string) ([]domain.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) (domain.Attachment, error)
}

// Authenticator is implemented by types able to extract subject IDs from
// Authorization headers.
type Authenticator interface {
	SubjectFromAuthHeader(string) (string, error)
}

// Broadcaster fans a typed event out to every connection currently joined to
// the project's room. Delivery is fire-and-forget.
type Broadcaster interface {
	Publish(projectID string, evt domain.Event)
}
