package storage

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

// CreateProject persists a new project. The invite-code index is claimed with
// SETNX; a collision surfaces as ErrInviteCodeTaken so the caller can retry
// with a fresh code.
func (s *Store) CreateProject(ctx context.Context, p domain.Project) error {
	ok, err := s.rdb.SetNX(ctx, inviteKey(p.InviteCode), p.ID, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrInviteCodeTaken
	}
	if err := s.setJSON(ctx, projectKey(p.ID), p); err != nil {
		return err
	}
	return s.rdb.SAdd(ctx, userProjectsKey(p.OwnerID), p.ID).Err()
}

// FetchProject loads one project by id.
func (s *Store) FetchProject(ctx context.Context, id string) (domain.Project, error) {
	var p domain.Project
	err := s.getJSON(ctx, projectKey(id), &p)
	return p, err
}

// FetchProjectByInviteCode resolves the invite index and loads the project.
func (s *Store) FetchProjectByInviteCode(ctx context.Context, code string) (domain.Project, error) {
	id, err := s.rdb.Get(ctx, inviteKey(code)).Result()
	if err == redis.Nil {
		return domain.Project{}, ErrNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}
	return s.FetchProject(ctx, id)
}

// FetchProjectsForUser returns every project the user owns or is a member of,
// most recently updated first.
func (s *Store) FetchProjectsForUser(ctx context.Context, userID string) ([]domain.Project, error) {
	ids, err := s.rdb.SMembers(ctx, userProjectsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(ids))
	for _, id := range ids {
		p, err := s.FetchProject(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].UpdatedAt.After(projects[j].UpdatedAt) })
	return projects, nil
}

// ProjectPatch describes a partial project update. Nil fields are left alone.
type ProjectPatch struct {
	Name          *string
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
}

// UpdateProject applies the patch and returns the stored result. Last write
// wins; there is no version check.
func (s *Store) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (domain.Project, error) {
	p, err := s.FetchProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.ClearDeadline {
		p.Deadline = nil
	} else if patch.Deadline != nil {
		p.Deadline = patch.Deadline
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.setJSON(ctx, projectKey(id), p); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// DeleteProject removes the project, its invite index, and every membership
// index entry pointing at it. Deleting a missing project is an error.
func (s *Store) DeleteProject(ctx context.Context, id string) (domain.Project, error) {
	p, err := s.FetchProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if err := s.rdb.Del(ctx, projectKey(id), inviteKey(p.InviteCode), projectTasksKey(id)).Err(); err != nil {
		return domain.Project{}, err
	}
	members := append([]string{p.OwnerID}, p.MemberIDs...)
	for _, uid := range members {
		if err := s.rdb.SRem(ctx, userProjectsKey(uid), id).Err(); err != nil {
			return domain.Project{}, err
		}
	}
	return p, nil
}

// AddProjectMember records membership. Adding the owner or an existing member
// is a no-op; MemberIDs never holds duplicates.
func (s *Store) AddProjectMember(ctx context.Context, projectID, userID string) (domain.Project, error) {
	p, err := s.FetchProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if p.HasMember(userID) {
		return p, nil
	}
	p.MemberIDs = append(p.MemberIDs, userID)
	p.UpdatedAt = time.Now().UTC()
	if err := s.setJSON(ctx, projectKey(projectID), p); err != nil {
		return domain.Project{}, err
	}
	if err := s.rdb.SAdd(ctx, userProjectsKey(userID), projectID).Err(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// RemoveProjectMember drops a member. The owner cannot be removed.
func (s *Store) RemoveProjectMember(ctx context.Context, projectID, userID string) (domain.Project, error) {
	p, err := s.FetchProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	kept := p.MemberIDs[:0]
	for _, id := range p.MemberIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	p.MemberIDs = kept
	p.UpdatedAt = time.Now().UTC()
	if err := s.setJSON(ctx, projectKey(projectID), p); err != nil {
		return domain.Project{}, err
	}
	if err := s.rdb.SRem(ctx, userProjectsKey(userID), projectID).Err(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}
