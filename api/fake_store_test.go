package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskboard/domain"
	"taskboard/storage"
)

// fakeStore is an in-memory Storage used by handler tests. The err* fields
// inject failures for specific calls.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]domain.User
	projects    map[string]domain.Project
	tasks       map[string]domain.Task
	comments    map[string]domain.Comment
	attachments map[string]domain.Attachment

	createProjectErrs []error
	errFetchTask      error
	errCreateTask     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]domain.User{},
		projects:    map[string]domain.Project{},
		tasks:       map[string]domain.Task{},
		comments:    map[string]domain.Comment{},
		attachments: map[string]domain.Attachment{},
	}
}

func (f *fakeStore) CreateUser(_ context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return storage.ErrEmailTaken
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) FetchUser(_ context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) FetchUserByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, storage.ErrNotFound
}

func (f *fakeStore) FetchUsers(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (f *fakeStore) CreateProject(_ context.Context, p domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createProjectErrs) > 0 {
		err := f.createProjectErrs[0]
		f.createProjectErrs = f.createProjectErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range f.projects {
		if existing.InviteCode == p.InviteCode {
			return storage.ErrInviteCodeTaken
		}
	}
	f.projects[p.ID] = p
	return nil
}

func (f *fakeStore) FetchProject(_ context.Context, id string) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return domain.Project{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) FetchProjectByInviteCode(_ context.Context, code string) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.InviteCode == code {
			return p, nil
		}
	}
	return domain.Project{}, storage.ErrNotFound
}

func (f *fakeStore) FetchProjectsForUser(_ context.Context, userID string) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	projects := []domain.Project{}
	for _, p := range f.projects {
		if p.HasMember(userID) {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].UpdatedAt.After(projects[j].UpdatedAt) })
	return projects, nil
}

func (f *fakeStore) UpdateProject(_ context.Context, id string, patch storage.ProjectPatch) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return domain.Project{}, storage.ErrNotFound
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
	f.projects[id] = p
	return p, nil
}

func (f *fakeStore) DeleteProject(_ context.Context, id string) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return domain.Project{}, storage.ErrNotFound
	}
	delete(f.projects, id)
	return p, nil
}

func (f *fakeStore) AddProjectMember(_ context.Context, projectID, userID string) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return domain.Project{}, storage.ErrNotFound
	}
	if !p.HasMember(userID) {
		p.MemberIDs = append(p.MemberIDs, userID)
		f.projects[projectID] = p
	}
	return p, nil
}

func (f *fakeStore) RemoveProjectMember(_ context.Context, projectID, userID string) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return domain.Project{}, storage.ErrNotFound
	}
	kept := []string{}
	for _, id := range p.MemberIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	p.MemberIDs = kept
	f.projects[projectID] = p
	return p, nil
}

func (f *fakeStore) CreateTask(_ context.Context, t domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errCreateTask != nil {
		return f.errCreateTask
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) FetchTask(_ context.Context, id string) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errFetchTask != nil {
		return domain.Task{}, f.errFetchTask
	}
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) FetchTasks(_ context.Context, projectID string, filter storage.TaskFilter) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := []domain.Task{}
	for _, t := range f.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.AssigneeID != "" && t.AssigneeID != filter.AssigneeID {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })
	return tasks, nil
}

func (f *fakeStore) UpdateTask(_ context.Context, id string, patch storage.TaskPatch) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, storage.ErrNotFound
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
	f.tasks[id] = t
	return t, nil
}

func (f *fakeStore) DeleteTask(_ context.Context, id string) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, storage.ErrNotFound
	}
	delete(f.tasks, id)
	return t, nil
}

func (f *fakeStore) CreateComment(_ context.Context, c domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[c.ID] = c
	return nil
}

func (f *fakeStore) FetchComments(_ context.Context, taskID string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comments := []domain.Comment{}
	for _, c := range f.comments {
		if c.TaskID == taskID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return comments, nil
}

func (f *fakeStore) CreateAttachment(_ context.Context, a domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachments[a.ID] = a
	return nil
}

func (f *fakeStore) FetchAttachment(_ context.Context, id string) (domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attachments[id]
	if !ok {
		return domain.Attachment{}, storage.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) FetchAttachments(_ context.Context, taskID string) ([]domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attachments := []domain.Attachment{}
	for _, a := range f.attachments {
		if a.TaskID == taskID {
			attachments = append(attachments, a)
		}
	}
	sort.Slice(attachments, func(i, j int) bool { return attachments[i].CreatedAt.After(attachments[j].CreatedAt) })
	return attachments, nil
}

func (f *fakeStore) DeleteAttachment(_ context.Context, id string) (domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attachments[id]
	if !ok {
		return domain.Attachment{}, storage.ErrNotFound
	}
	delete(f.attachments, id)
	return a, nil
}

// mockBroadcaster records published events in order.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	projectID string
	event     domain.Event
}

func (m *mockBroadcaster) Publish(projectID string, evt domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{projectID: projectID, event: evt})
}

func (m *mockBroadcaster) Events() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]publishedEvent, len(m.events))
	copy(out, m.events)
	return out
}
