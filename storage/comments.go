package storage

import (
	"context"
	"sort"

	"taskboard/domain"
)

// CreateComment persists a new comment under its task.
func (s *Store) CreateComment(ctx context.Context, c domain.Comment) error {
	if err := s.setJSON(ctx, commentKey(c.ID), c); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, taskCommentsKey(c.TaskID), c.ID).Err()
}

// FetchComments returns the task's comments, newest first.
func (s *Store) FetchComments(ctx context.Context, taskID string) ([]domain.Comment, error) {
	ids, err := s.rdb.SMembers(ctx, taskCommentsKey(taskID)).Result()
	if err != nil {
		return nil, err
	}
	comments := make([]domain.Comment, 0, len(ids))
	for _, id := range ids {
		var c domain.Comment
		if err := s.getJSON(ctx, commentKey(id), &c); err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		comments = append(comments, c)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return comments, nil
}
