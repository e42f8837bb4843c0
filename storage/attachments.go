package storage

import (
	"context"
	"sort"

	"taskboard/domain"
)

// CreateAttachment persists attachment metadata under its task.
func (s *Store) CreateAttachment(ctx context.Context, a domain.Attachment) error {
	if err := s.setJSON(ctx, attachmentKey(a.ID), a); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, taskAttachmentsKey(a.TaskID), a.ID).Err()
}

// FetchAttachment loads one attachment by id.
func (s *Store) FetchAttachment(ctx context.Context, id string) (domain.Attachment, error) {
	var a domain.Attachment
	err := s.getJSON(ctx, attachmentKey(id), &a)
	return a, err
}

// FetchAttachments returns the task's attachments, newest first.
func (s *Store) FetchAttachments(ctx context.Context, taskID string) ([]domain.Attachment, error) {
	ids, err := s.rdb.SMembers(ctx, taskAttachmentsKey(taskID)).Result()
	if err != nil {
		return nil, err
	}
	attachments := make([]domain.Attachment, 0, len(ids))
	for _, id := range ids {
		a, err := s.FetchAttachment(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	sort.Slice(attachments, func(i, j int) bool { return attachments[i].CreatedAt.After(attachments[j].CreatedAt) })
	return attachments, nil
}

// DeleteAttachment removes attachment metadata. Deleting a missing id is an
// error, not a no-op.
func (s *Store) DeleteAttachment(ctx context.Context, id string) (domain.Attachment, error) {
	a, err := s.FetchAttachment(ctx, id)
	if err != nil {
		return domain.Attachment{}, err
	}
	if err := s.rdb.Del(ctx, attachmentKey(id)).Err(); err != nil {
		return domain.Attachment{}, err
	}
	if err := s.rdb.SRem(ctx, taskAttachmentsKey(a.TaskID), id).Err(); err != nil {
		return domain.Attachment{}, err
	}
	return a, nil
}
