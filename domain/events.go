package domain

// Event is one realtime update fanned out to a project room. The set of
// implementations is closed; EventType returns the wire name clients switch on.
type Event interface {
	EventType() string
}

// Wire names for every event the server emits.
const (
	EventConnected        = "connected"
	EventTaskCreate       = "task:create"
	EventTaskUpdate       = "task:update"
	EventTaskStatus       = "task:status"
	EventTaskDelete       = "task:delete"
	EventCommentCreate    = "comment:create"
	EventAttachmentAdd    = "attachment:add"
	EventAttachmentRemove = "attachment:remove"
)

// Connected acknowledges a successful realtime handshake. It is sent only to
// the connection that just authenticated, never to a room.
type Connected struct {
	OK bool `json:"ok"`
}

func (Connected) EventType() string { return EventConnected }

// TaskCreated carries the full new task.
type TaskCreated struct {
	Task Task `json:"task"`
}

func (TaskCreated) EventType() string { return EventTaskCreate }

// TaskUpdated carries the full task after any-field update.
type TaskUpdated struct {
	Task Task `json:"task"`
}

func (TaskUpdated) EventType() string { return EventTaskUpdate }

// TaskStatusChanged is the narrow status-only variant of TaskUpdated.
type TaskStatusChanged struct {
	TaskID string     `json:"taskId"`
	Status TaskStatus `json:"status"`
}

func (TaskStatusChanged) EventType() string { return EventTaskStatus }

// TaskDeleted identifies a removed task.
type TaskDeleted struct {
	TaskID string `json:"taskId"`
}

func (TaskDeleted) EventType() string { return EventTaskDelete }

// CommentCreated carries the full new comment.
type CommentCreated struct {
	Comment Comment `json:"comment"`
}

func (CommentCreated) EventType() string { return EventCommentCreate }

// AttachmentAdded carries the full new attachment.
type AttachmentAdded struct {
	Attachment Attachment `json:"attachment"`
}

func (AttachmentAdded) EventType() string { return EventAttachmentAdd }

// AttachmentRemoved identifies a removed attachment.
type AttachmentRemoved struct {
	AttachmentID string `json:"attachmentId"`
}

func (AttachmentRemoved) EventType() string { return EventAttachmentRemove }
