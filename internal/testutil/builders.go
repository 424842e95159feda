package testutil

import (
	"time"

	"github.com/hupe1980/taskvoice/core"
)

// TaskBuilder helps construct tasks with fluent chaining for tests.
// Example:
//
//	task := NewTaskBuilder("write the report").Project("p1").Status(core.StatusInProgress).Build()
type TaskBuilder struct {
	task core.Task
}

// NewTaskBuilder creates a builder for a task with the given title.
// Use chainable methods then call Build.
func NewTaskBuilder(title string) *TaskBuilder {
	return &TaskBuilder{task: core.Task{
		Title:    title,
		Status:   core.StatusTodo,
		Priority: core.PriorityNormal,
		Version:  1,
	}}
}

// ID sets the task id (chainable).
func (b *TaskBuilder) ID(id string) *TaskBuilder {
	b.task.ID = id
	return b
}

// Project sets the parent project id (chainable).
func (b *TaskBuilder) Project(projectID string) *TaskBuilder {
	b.task.ProjectID = projectID
	return b
}

// Status sets the lifecycle status (chainable).
func (b *TaskBuilder) Status(s core.TaskStatus) *TaskBuilder {
	b.task.Status = s
	return b
}

// Priority sets the urgency (chainable).
func (b *TaskBuilder) Priority(p core.Priority) *TaskBuilder {
	b.task.Priority = p
	return b
}

// Aliases adds alternate names (chainable).
func (b *TaskBuilder) Aliases(aliases ...string) *TaskBuilder {
	b.task.Aliases = append(b.task.Aliases, aliases...)
	return b
}

// Note appends a note (chainable).
func (b *TaskBuilder) Note(text string) *TaskBuilder {
	b.task.Notes = append(b.task.Notes, core.Note{Text: text, Created: time.Now().UTC()})
	return b
}

// Build returns the constructed task.
func (b *TaskBuilder) Build() *core.Task {
	return b.task.Clone()
}

// ProjectBuilder helps construct projects with fluent chaining for tests.
type ProjectBuilder struct {
	project core.Project
}

// NewProjectBuilder creates a builder for a project with the given name.
func NewProjectBuilder(name string) *ProjectBuilder {
	return &ProjectBuilder{project: core.Project{Name: name, Status: "active", Version: 1}}
}

// ID sets the project id (chainable).
func (b *ProjectBuilder) ID(id string) *ProjectBuilder {
	b.project.ID = id
	return b
}

// Aliases adds alternate names (chainable).
func (b *ProjectBuilder) Aliases(aliases ...string) *ProjectBuilder {
	b.project.Aliases = append(b.project.Aliases, aliases...)
	return b
}

// Decision appends a decision (chainable).
func (b *ProjectBuilder) Decision(text string) *ProjectBuilder {
	b.project.Decisions = append(b.project.Decisions, core.Note{Text: text, Created: time.Now().UTC()})
	return b
}

// Build returns the constructed project.
func (b *ProjectBuilder) Build() *core.Project {
	return b.project.Clone()
}

// ContextBuilder helps construct session contexts for tests.
type ContextBuilder struct {
	ctx core.SessionContext
}

// NewContextBuilder creates a builder for a session context.
func NewContextBuilder(sessionID string) *ContextBuilder {
	return &ContextBuilder{ctx: core.SessionContext{SessionID: sessionID}}
}

// CurrentTask sets the ambient task pointer (chainable).
func (b *ContextBuilder) CurrentTask(id string) *ContextBuilder {
	b.ctx.CurrentTask = &core.EntityRef{Type: core.EntityTask, ID: id}
	return b
}

// CurrentProject sets the ambient project pointer (chainable).
func (b *ContextBuilder) CurrentProject(id string) *ContextBuilder {
	b.ctx.CurrentProject = &core.EntityRef{Type: core.EntityProject, ID: id}
	return b
}

// LastAction sets the last committed action id (chainable).
func (b *ContextBuilder) LastAction(id string) *ContextBuilder {
	b.ctx.LastAction = id
	return b
}

// Build returns the constructed session context.
func (b *ContextBuilder) Build() *core.SessionContext {
	return b.ctx.Clone()
}
