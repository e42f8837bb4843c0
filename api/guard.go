package api

import (
	"context"

	"taskboard/domain"
)

// guardStore is the slice of Storage the guard needs.
type guardStore interface {
	FetchProject(ctx context.Context, id string) (domain.Project, error)
	FetchTask(ctx context.Context, id string) (domain.Task, error)
}

// ResourceRef names the authorization scope of an operation: either a project
// directly, or a task that resolves to its parent project.
type ResourceRef struct {
	projectID string
	taskID    string
}

// ProjectRef scopes a check to the project itself.
func ProjectRef(projectID string) ResourceRef { return ResourceRef{projectID: projectID} }

// TaskRef scopes a check to a task's parent project.
func TaskRef(taskID string) ResourceRef { return ResourceRef{taskID: taskID} }

// Guard decides project membership and ownership. It is read-only and never
// caches: membership can change between requests, so every check re-reads the
// current project state.
type Guard struct {
	store guardStore
}

// NewGuard creates a Guard over the given store.
func NewGuard(store guardStore) *Guard {
	return &Guard{store: store}
}

// ResolveProject loads the project a ref points at, resolving task refs to
// their parent project first. Missing task or project yields ErrNotFound.
func (g *Guard) ResolveProject(ctx context.Context, ref ResourceRef) (domain.Project, error) {
	projectID := ref.projectID
	if projectID == "" {
		task, err := g.store.FetchTask(ctx, ref.taskID)
		if err != nil {
			return domain.Project{}, err
		}
		projectID = task.ProjectID
	}
	return g.store.FetchProject(ctx, projectID)
}

// MemberProject resolves the scope project and passes when the subject owns it
// or is a member. The project is returned so mutation handlers learn the
// broadcast room from the same resolution step.
func (g *Guard) MemberProject(ctx context.Context, subject string, ref ResourceRef) (domain.Project, error) {
	p, err := g.ResolveProject(ctx, ref)
	if err != nil {
		return domain.Project{}, err
	}
	if !p.HasMember(subject) {
		return domain.Project{}, ErrForbidden
	}
	return p, nil
}

// OwnerProject resolves the scope project and passes only for its owner.
func (g *Guard) OwnerProject(ctx context.Context, subject string, ref ResourceRef) (domain.Project, error) {
	p, err := g.ResolveProject(ctx, ref)
	if err != nil {
		return domain.Project{}, err
	}
	if !p.IsOwner(subject) {
		return domain.Project{}, ErrForbidden
	}
	return p, nil
}

// CheckMember passes when the subject owns the project or is a member of it.
func (g *Guard) CheckMember(ctx context.Context, subject string, ref ResourceRef) error {
	_, err := g.MemberProject(ctx, subject, ref)
	return err
}

// CheckOwner passes only when the subject owns the project.
func (g *Guard) CheckOwner(ctx context.Context, subject string, ref ResourceRef) error {
	_, err := g.OwnerProject(ctx, subject, ref)
	return err
}
