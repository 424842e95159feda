// Package entity contains concrete EntityStore implementations. The store
// interface and the Task / Project types reside in the core package; depend
// on core.EntityStore in your code and select an implementation at wiring
// time.
package entity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/taskvoice/core"
)

// InMemoryStore is a process-local EntityStore guarded by an RWMutex. Every
// document crossing the boundary is cloned so callers can never mutate stored
// state in place; the only write path is the versioned Update, which performs
// the optimistic compare-and-swap the dispatcher relies on. Entities are
// never removed from the maps; soft removal is a status change like any other
// mutation.
type InMemoryStore struct {
	mu       sync.RWMutex
	tasks    map[string]*core.Task
	projects map[string]*core.Project
}

// NewInMemoryStore returns an empty in-memory entity store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks:    make(map[string]*core.Task),
		projects: make(map[string]*core.Project),
	}
}

// CreateTask stores a new task. A missing ID is generated; Version always
// starts at 1 regardless of the submitted value.
func (s *InMemoryStore) CreateTask(_ context.Context, t *core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.tasks[t.ID]; exists {
		return fmt.Errorf("task %s already exists", t.ID)
	}
	now := time.Now().UTC()
	t.Version = 1
	if t.Status == "" {
		t.Status = core.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = core.PriorityNormal
	}
	t.Created = now
	t.Updated = now
	s.tasks[t.ID] = t.Clone()
	return nil
}

// GetTask returns a clone of the task or core.ErrNotFound.
func (s *InMemoryStore) GetTask(_ context.Context, id string) (*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return t.Clone(), nil
}

// UpdateTask commits a mutation gated by the optimistic version check. The
// submitted Version must equal the stored one; on success the returned clone
// carries Version+1. A mismatch fails with *core.ConflictError and leaves the
// stored document untouched.
func (s *InMemoryStore) UpdateTask(_ context.Context, t *core.Task) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tasks[t.ID]
	if !ok {
		return nil, core.ErrNotFound
	}
	if stored.Version != t.Version {
		return nil, &core.ConflictError{Ref: t.Ref(), Expected: t.Version, Actual: stored.Version}
	}
	next := t.Clone()
	next.Version = stored.Version + 1
	next.Created = stored.Created
	next.Updated = time.Now().UTC()
	s.tasks[t.ID] = next
	return next.Clone(), nil
}

// ListTasks returns clones of all tasks, optionally filtered by project.
func (s *InMemoryStore) ListTasks(_ context.Context, projectID string) ([]*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		out = append(out, t.Clone())
	}
	return out, nil
}

// CreateProject stores a new project, generating a missing ID.
func (s *InMemoryStore) CreateProject(_ context.Context, p *core.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.projects[p.ID]; exists {
		return fmt.Errorf("project %s already exists", p.ID)
	}
	now := time.Now().UTC()
	p.Version = 1
	if p.Status == "" {
		p.Status = "active"
	}
	p.Created = now
	p.Updated = now
	s.projects[p.ID] = p.Clone()
	return nil
}

// GetProject returns a clone of the project or core.ErrNotFound.
func (s *InMemoryStore) GetProject(_ context.Context, id string) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p.Clone(), nil
}

// UpdateProject commits a mutation gated by the optimistic version check,
// mirroring UpdateTask.
func (s *InMemoryStore) UpdateProject(_ context.Context, p *core.Project) (*core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.projects[p.ID]
	if !ok {
		return nil, core.ErrNotFound
	}
	if stored.Version != p.Version {
		return nil, &core.ConflictError{Ref: p.Ref(), Expected: p.Version, Actual: stored.Version}
	}
	next := p.Clone()
	next.Version = stored.Version + 1
	next.Created = stored.Created
	next.Updated = time.Now().UTC()
	s.projects[p.ID] = next
	return next.Clone(), nil
}

// ListProjects returns clones of all projects.
func (s *InMemoryStore) ListProjects(_ context.Context) ([]*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	return out, nil
}
