package storage

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// Store provides access to the underlying persistence mechanism. Every entity
// lives under its own key so a single create/update/delete is atomic; there are
// no multi-record transactions.
type Store struct {
	rdb *redis.Client
}

// New creates a Store on top of the given Redis client.
func New(client *redis.Client) *Store {
	if client == nil {
		panic("storage.New: redis client is nil")
	}
	return &Store{rdb: client}
}

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an already known email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInviteCodeTaken is returned when a generated invite code collides
	// with an existing project. Callers retry with a fresh code.
	ErrInviteCodeTaken = errors.New("invite code already in use")
)

func userKey(id string) string { return "user:" + id }

func userEmailKey(email string) string { return "user:email:" + email }

func projectKey(id string) string { return "project:" + id }

func inviteKey(code string) string { return "project:invite:" + code }

func userProjectsKey(id string) string { return "user:" + id + ":projects" }

func projectTasksKey(id string) string { return "project:" + id + ":tasks" }

func taskKey(id string) string { return "task:" + id }

func taskCommentsKey(id string) string { return "task:" + id + ":comments" }

func commentKey(id string) string { return "comment:" + id }

func taskAttachmentsKey(id string) string { return "task:" + id + ":attachments" }

func attachmentKey(id string) string { return "attachment:" + id }

const usersKey = "users"
