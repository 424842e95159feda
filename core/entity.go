package core

import (
	"context"
	"time"
)

// EntityType discriminates the kinds of mutable entities a reference can
// resolve to.
type EntityType string

const (
	// EntityTask identifies a Task entity.
	EntityTask EntityType = "task"
	// EntityProject identifies a Project entity.
	EntityProject EntityType = "project"
)

// EntityRef is a typed pointer to a concrete entity.
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
}

// TaskStatus enumerates the lifecycle states of a Task. Status advances
// forward only; moving backwards requires an explicit reopen (see
// CanTransition).
type TaskStatus string

const (
	// StatusTodo marks a task that has not been started.
	StatusTodo TaskStatus = "todo"
	// StatusInProgress marks a task actively being worked on.
	StatusInProgress TaskStatus = "in_progress"
	// StatusDone marks a finished task.
	StatusDone TaskStatus = "done"
	// StatusArchived marks a soft-removed task. Entities are never hard
	// deleted; archiving is terminal.
	StatusArchived TaskStatus = "archived"
)

// rank orders statuses for the forward-only invariant.
func (s TaskStatus) rank() int {
	switch s {
	case StatusTodo:
		return 0
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	case StatusArchived:
		return 3
	default:
		return -1
	}
}

// Valid reports whether the status is one of the known values.
func (s TaskStatus) Valid() bool { return s.rank() >= 0 }

// CanTransition reports whether a status change from s to target is allowed.
// Forward moves are always allowed; equal status is a no-op allowed for
// idempotent re-application; backward moves require reopen=true and are never
// allowed out of archived.
func (s TaskStatus) CanTransition(target TaskStatus, reopen bool) bool {
	if !s.Valid() || !target.Valid() {
		return false
	}
	if target.rank() >= s.rank() {
		return true
	}
	return reopen && s != StatusArchived
}

// Priority expresses relative task urgency.
type Priority string

const (
	// PriorityLow is below-normal urgency.
	PriorityLow Priority = "low"
	// PriorityNormal is the default urgency.
	PriorityNormal Priority = "normal"
	// PriorityHigh is above-normal urgency.
	PriorityHigh Priority = "high"
)

// Note is one ordered entry in an entity's notes, decisions or methods list.
type Note struct {
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// Activity is one ordered entry in a task's activity log.
type Activity struct {
	Kind    string    `json:"kind"`
	Detail  string    `json:"detail,omitempty"`
	Created time.Time `json:"created"`
}

// Task is a versioned, mutable work item. All mutations flow through the
// dispatcher; Version gates concurrent writers (optimistic concurrency) and
// increments on every committed mutation.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Aliases     []string   `json:"aliases,omitempty"`
	ProjectID   string     `json:"project_id,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Notes       []Note     `json:"notes,omitempty"`
	ActivityLog []Activity `json:"activity_log,omitempty"`
	Embedding   []float32  `json:"embedding,omitempty"`
	Version     int64      `json:"version"`
	Created     time.Time  `json:"created"`
	Updated     time.Time  `json:"updated"`
}

// Ref returns the typed reference for the task.
func (t *Task) Ref() EntityRef { return EntityRef{Type: EntityTask, ID: t.ID} }

// Clone returns a deep copy safe for independent mutation.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Aliases = append([]string(nil), t.Aliases...)
	c.Notes = append([]Note(nil), t.Notes...)
	c.ActivityLog = append([]Activity(nil), t.ActivityLog...)
	c.Embedding = append([]float32(nil), t.Embedding...)
	return &c
}

// Project is a versioned container grouping tasks plus ordered decision,
// method and note lists.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Aliases   []string  `json:"aliases,omitempty"`
	Status    string    `json:"status"`
	Decisions []Note    `json:"decisions,omitempty"`
	Methods   []Note    `json:"methods,omitempty"`
	Notes     []Note    `json:"notes,omitempty"`
	Version   int64     `json:"version"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// Ref returns the typed reference for the project.
func (p *Project) Ref() EntityRef { return EntityRef{Type: EntityProject, ID: p.ID} }

// Clone returns a deep copy safe for independent mutation.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.Aliases = append([]string(nil), p.Aliases...)
	c.Decisions = append([]Note(nil), p.Decisions...)
	c.Methods = append([]Note(nil), p.Methods...)
	c.Notes = append([]Note(nil), p.Notes...)
	return &c
}

// EntityStore persists Task and Project documents. Update* methods perform a
// compare-and-swap on Version: when the stored version differs from the
// submitted one the update fails with *ConflictError and no write occurs. On
// success the stored version is the submitted version plus one.
//
// Implementations never hard-delete; removal is modeled as a status change by
// callers.
type EntityStore interface {
	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	UpdateTask(ctx context.Context, t *Task) (*Task, error)
	ListTasks(ctx context.Context, projectID string) ([]*Task, error)

	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	UpdateProject(ctx context.Context, p *Project) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
}
