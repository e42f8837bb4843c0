package storage

import (
	"context"
	"sort"
	"time"

	"taskboard/domain"
)

// TaskFilter narrows FetchTasks. Zero values mean no filtering.
type TaskFilter struct {
	Status     domain.TaskStatus
	AssigneeID string
}

// CreateTask persists a new task under its project.
func (s *Store) CreateTask(ctx context.Context, t domain.Task) error {
	if err := s.setJSON(ctx, taskKey(t.ID), t); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, projectTasksKey(t.ProjectID), t.ID).Err()
}

// FetchTask loads one task by id.
func (s *Store) FetchTask(ctx context.Context, id string) (domain.Task, error) {
	var t domain.Task
	err := s.getJSON(ctx, taskKey(id), &t)
	return t, err
}

// FetchTasks returns the project's tasks matching the filter, board order first.
func (s *Store) FetchTasks(ctx context.Context, projectID string, filter TaskFilter) ([]domain.Task, error) {
	ids, err := s.rdb.SMembers(ctx, projectTasksKey(projectID)).Result()
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		t, err := s.FetchTask(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.AssigneeID != "" && t.AssigneeID != filter.AssigneeID {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// TaskPatch describes a partial task update. Nil fields are left alone;
// ProjectID is never patchable.
type TaskPatch struct {
	Title       *string
	Description *string
	AssigneeID  *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     *time.Time
	Order       *int
}

// UpdateTask applies the patch and returns the stored result. Last write wins.
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) (domain.Task, error) {
	t, err := s.FetchTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.AssigneeID != nil {
		t.AssigneeID = *patch.AssigneeID
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.Order != nil {
		t.Order = *patch.Order
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.setJSON(ctx, taskKey(id), t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task. Deleting a missing id is an error, not a no-op.
func (s *Store) DeleteTask(ctx context.Context, id string) (domain.Task, error) {
	t, err := s.FetchTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.rdb.Del(ctx, taskKey(id)).Err(); err != nil {
		return domain.Task{}, err
	}
	if err := s.rdb.SRem(ctx, projectTasksKey(t.ProjectID), id).Err(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}
