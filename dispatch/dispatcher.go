package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/taskvoice/core"
	"github.com/hupe1980/taskvoice/index"
	"github.com/hupe1980/taskvoice/logging"
	"github.com/hupe1980/taskvoice/resolver"
)

// DefaultActor attributes action records when no actor is configured.
const DefaultActor = "user"

// maxUpdateRetries bounds the refetch-and-retry loop around version conflicts.
const maxUpdateRetries = 3

// Options configure a Dispatcher.
type Options struct {
	// Actor attributed to every committed action record.
	Actor string
	// Logger receives structured dispatch telemetry. Defaults to NoOpLogger.
	Logger logging.Logger
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// snapshot remembers the last committed mutation per session so a follow-up
// correction can reverse and re-apply it.
type snapshot struct {
	record       *core.ActionRecord
	intent       core.Intent
	priorTask    *core.Task
	priorProject *core.Project
}

// pendingIntent is a clarification awaiting its answer.
type pendingIntent struct {
	sessionID string
	request   core.ClarificationRequest
}

// Dispatcher routes intents to the entity store, the action log and the
// session context, in the order they were spoken.
type Dispatcher struct {
	ix       *index.Index
	res      *resolver.Resolver
	entities core.EntityStore
	actions  core.ActionStore
	sessions core.ContextStore
	embedder core.Embedder
	logger   logging.Logger
	clock    func() time.Time
	actor    string

	mu      sync.Mutex
	pending map[string]*pendingIntent
	last    map[string]*snapshot
}

// New wires a dispatcher over its collaborating stores. The embedder may be
// nil; action records are then appended without embeddings and stay reachable
// through GetRecent only.
func New(
	ix *index.Index,
	res *resolver.Resolver,
	entities core.EntityStore,
	actions core.ActionStore,
	sessions core.ContextStore,
	embedder core.Embedder,
	optFns ...func(o *Options),
) *Dispatcher {
	opts := Options{Actor: DefaultActor, Logger: logging.NoOpLogger{}, Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Actor == "" {
		opts.Actor = DefaultActor
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Dispatcher{
		ix:       ix,
		res:      res,
		entities: entities,
		actions:  actions,
		sessions: sessions,
		embedder: embedder,
		logger:   opts.Logger,
		clock:    opts.Clock,
		actor:    opts.Actor,
		pending:  make(map[string]*pendingIntent),
		last:     make(map[string]*snapshot),
	}
}

// Dispatch applies intents in order. Mutations commit one by one; a
// cancellation or store failure stops the batch with the remaining intents
// marked abandoned while everything already committed stands. Clarifications
// for the whole batch accumulate into result.Pending so a multi-topic
// utterance costs at most one follow-up round-trip.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, intents []core.Intent) (*core.UtteranceResult, error) {
	start := d.clock()
	result := &core.UtteranceResult{}
	sess := d.loadSession(sessionID)

	for i, intent := range intents {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err)
			for _, it := range intents[i:] {
				result.Outcomes = append(result.Outcomes, core.IntentOutcome{Intent: it, Status: core.OutcomeAbandoned, Err: err})
			}
			break
		}

		out := d.dispatchOne(ctx, sess, intent, result)
		result.Outcomes = append(result.Outcomes, out)
		if out.Err == nil {
			continue
		}
		result.Errors = append(result.Errors, out.Err)

		var se *core.StoreUnavailableError
		if errors.As(out.Err, &se) {
			for _, it := range intents[i+1:] {
				result.Outcomes = append(result.Outcomes, core.IntentOutcome{Intent: it, Status: core.OutcomeAbandoned, Err: out.Err})
			}
			break
		}
	}

	d.saveSession(sess)
	d.logger.Info("dispatch completed",
		"session_id", sessionID,
		"intents", len(intents),
		"applied", len(result.Applied),
		"pending", len(result.Pending),
		"duration", d.clock().Sub(start),
	)
	return result, nil
}

// ResolveClarification answers previously returned clarification requests. A
// nil Selected abandons the pending intent; otherwise the intent is applied
// against the chosen entity.
func (d *Dispatcher) ResolveClarification(ctx context.Context, choices []core.ClarificationChoice) (*core.UtteranceResult, error) {
	result := &core.UtteranceResult{}
	for _, choice := range choices {
		d.mu.Lock()
		p, ok := d.pending[choice.RequestID]
		if ok {
			delete(d.pending, choice.RequestID)
		}
		d.mu.Unlock()
		if !ok {
			err := fmt.Errorf("no pending clarification %s", choice.RequestID)
			result.Errors = append(result.Errors, err)
			continue
		}
		if choice.Selected == nil {
			result.Outcomes = append(result.Outcomes, core.IntentOutcome{Intent: p.request.Intent, Status: core.OutcomeAbandoned})
			continue
		}

		sess := d.loadSession(p.sessionID)
		rec, err := d.apply(ctx, sess, p.request.Intent, *choice.Selected)
		if err != nil {
			result.Errors = append(result.Errors, err)
			result.Outcomes = append(result.Outcomes, core.IntentOutcome{Intent: p.request.Intent, Status: core.OutcomeFailed, Err: err})
			continue
		}
		result.Applied = append(result.Applied, *rec)
		result.Outcomes = append(result.Outcomes, core.IntentOutcome{Intent: p.request.Intent, Status: core.OutcomeApplied, RecordID: rec.ID})
		d.saveSession(sess)
	}
	return result, nil
}

// PendingCount reports how many clarifications await an answer.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// dispatchOne routes a single intent.
func (d *Dispatcher) dispatchOne(ctx context.Context, sess *core.SessionContext, intent core.Intent, result *core.UtteranceResult) core.IntentOutcome {
	switch intent.Type {
	case core.IntentQuestion:
		text := intent.Payload.Text
		if text == "" {
			text = intent.Raw
		}
		result.Questions = append(result.Questions, text)
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeSurfaced}

	case core.IntentUnparsed:
		return d.handleUnparsed(ctx, sess, intent, result)

	case core.IntentCorrection:
		return d.handleCorrection(ctx, sess, intent, result)

	case core.IntentNewItem:
		return d.handleNewItem(ctx, sess, intent, result)

	default:
		return d.resolveAndApply(ctx, sess, intent, result)
	}
}

// handleUnparsed downgrades an unclassifiable span to a generic note on the
// current entity, or surfaces it verbatim when no entity context exists. It
// is never silently dropped.
func (d *Dispatcher) handleUnparsed(ctx context.Context, sess *core.SessionContext, intent core.Intent, result *core.UtteranceResult) core.IntentOutcome {
	target := sess.CurrentTask
	if target == nil {
		target = sess.CurrentProject
	}
	if target == nil {
		result.Unparsed = append(result.Unparsed, intent.Raw)
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeSurfaced}
	}

	note := intent
	note.Type = core.IntentNote
	note.Payload.Text = intent.Raw
	rec, err := d.apply(ctx, sess, note, *target)
	if err != nil {
		result.Unparsed = append(result.Unparsed, intent.Raw)
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeSurfaced}
	}
	result.Applied = append(result.Applied, *rec)
	return core.IntentOutcome{Intent: intent, Status: core.OutcomeApplied, RecordID: rec.ID}
}

// handleCorrection reverses the session's last committed mutation and, when
// the correction names a new target, re-applies the original intent there.
func (d *Dispatcher) handleCorrection(ctx context.Context, sess *core.SessionContext, intent core.Intent, result *core.UtteranceResult) core.IntentOutcome {
	d.mu.Lock()
	snap := d.last[sess.SessionID]
	delete(d.last, sess.SessionID)
	d.mu.Unlock()
	if snap == nil {
		err := fmt.Errorf("nothing to correct in session %s", sess.SessionID)
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeFailed, Err: err}
	}

	rev := &core.ActionRecord{
		Actor:     d.actor,
		SessionID: sess.SessionID,
		Type:      core.ActionReversal,
		Target:    snap.record.Target,
		Summary:   "reversed: " + snap.record.Summary,
		Metadata:  map[string]string{"reverses": snap.record.ID},
		Timestamp: d.clock().UTC(),
	}
	d.embed(ctx, rev)
	if err := d.actions.Append(ctx, rev); err != nil {
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeFailed, Err: err}
	}
	if err := d.restore(ctx, snap); err != nil {
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeFailed, Err: err}
	}
	if snap.record.Type == core.ActionCreate && sess.CurrentTask != nil && *sess.CurrentTask == snap.record.Target {
		sess.CurrentTask = nil
	}
	result.Applied = append(result.Applied, *rev)
	sess.LastAction = rev.ID

	// A bare "scratch that" is a pure undo.
	if intent.Reference == "" {
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeApplied, RecordID: rev.ID}
	}

	retargeted := snap.intent
	if snap.record.Type == core.ActionCreate {
		// Correcting a creation means the title was wrong, not the target:
		// the mention names what should have been created, so create it.
		retargeted.Payload.Title = intent.Reference
		out := d.handleNewItem(ctx, sess, retargeted, result)
		out.Intent = intent
		return out
	}
	retargeted.Reference = intent.Reference
	out := d.resolveAndApply(ctx, sess, retargeted, result)
	out.Intent = intent
	return out
}

// handleNewItem creates a task and registers it in the entity index.
func (d *Dispatcher) handleNewItem(ctx context.Context, sess *core.SessionContext, intent core.Intent, result *core.UtteranceResult) core.IntentOutcome {
	title := intent.Payload.Title
	if title == "" {
		title = intent.Raw
	}
	now := d.clock().UTC()

	task := &core.Task{Title: title, Priority: intent.Payload.Priority}
	meta := map[string]string{}
	switch {
	case intent.Payload.ProjectRef != "":
		resol := d.res.Resolve(intent.Payload.ProjectRef, core.EntityProject, index.Scope{})
		if top, ok := resol.Top(); ok && resol.Decision == core.DecisionAuto {
			task.ProjectID = top.Ref.ID
		} else {
			// Leave the task unattached rather than guessing a project.
			meta["unresolved_project"] = intent.Payload.ProjectRef
		}
	case sess.CurrentProject != nil:
		task.ProjectID = sess.CurrentProject.ID
	}
	if d.embedder != nil {
		if vec, err := d.embedder.Embed(ctx, title); err == nil {
			task.Embedding = vec
		}
	}

	if err := d.entities.CreateTask(ctx, task); err != nil {
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeFailed, Err: err}
	}
	ref := task.Ref()
	d.ix.Put(index.Entry{Ref: ref, Title: task.Title, ProjectID: task.ProjectID, LastActivity: now})

	if task.Priority != "" {
		meta["priority"] = string(task.Priority)
	}
	if len(meta) == 0 {
		meta = nil
	}
	rec := &core.ActionRecord{
		Actor:     d.actor,
		SessionID: sess.SessionID,
		Type:      core.ActionCreate,
		Target:    ref,
		Summary:   fmt.Sprintf("created task %q", task.Title),
		Metadata:  meta,
		Timestamp: now,
	}
	d.embed(ctx, rec)
	if err := d.actions.Append(ctx, rec); err != nil {
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeFailed, Err: err}
	}

	d.commit(sess, intent, rec, nil, nil)
	result.Applied = append(result.Applied, *rec)
	return core.IntentOutcome{Intent: intent, Status: core.OutcomeApplied, RecordID: rec.ID}
}

// resolveAndApply resolves the intent's reference and applies it, converting
// confirm/clarify verdicts into a pending clarification instead of guessing.
func (d *Dispatcher) resolveAndApply(ctx context.Context, sess *core.SessionContext, intent core.Intent, result *core.UtteranceResult) core.IntentOutcome {
	targetType := core.EntityTask
	if intent.Type == core.IntentDecision {
		targetType = core.EntityProject
	}

	// A bare "it"-style intent with no mention falls back to the session's
	// current entity.
	if intent.Reference == "" {
		ref := d.ambientRef(sess, targetType)
		if ref == nil {
			err := &core.ReferenceNotFoundError{Reference: intent.Raw, Type: targetType}
			return core.IntentOutcome{Intent: intent, Status: core.OutcomeFailed, Err: err}
		}
		return d.applyOutcome(ctx, sess, intent, *ref, result)
	}

	resol := d.res.Resolve(intent.Reference, targetType, index.Scope{})
	if resol.Decision == core.DecisionNotFound && targetType == core.EntityProject {
		// Decisions prefer projects but may land on a task.
		targetType = core.EntityTask
		resol = d.res.Resolve(intent.Reference, targetType, index.Scope{})
	}
	if top, ok := resol.Top(); ok {
		d.logger.Debug("reference resolved",
			"session_id", sess.SessionID,
			"reference", intent.Reference,
			"decision", string(resol.Decision),
			"top_score", top.Score,
		)
	}

	switch resol.Decision {
	case core.DecisionAuto:
		top, _ := resol.Top()
		return d.applyOutcome(ctx, sess, intent, top.Ref, result)

	case core.DecisionConfirm, core.DecisionClarify:
		req := core.ClarificationRequest{
			ID:         uuid.NewString(),
			Reference:  intent.Reference,
			Intent:     intent,
			Candidates: resol.Candidates,
			Kind:       resol.Decision,
		}
		d.mu.Lock()
		d.pending[req.ID] = &pendingIntent{sessionID: sess.SessionID, request: req}
		d.mu.Unlock()
		result.Pending = append(result.Pending, req)
		return core.IntentOutcome{Intent: intent, Status: core.OutcomePending}

	default:
		err := &core.ReferenceNotFoundError{Reference: intent.Reference, Type: targetType}
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeFailed, Err: err}
	}
}

// ambientRef picks the session's current entity for a reference-free intent.
func (d *Dispatcher) ambientRef(sess *core.SessionContext, targetType core.EntityType) *core.EntityRef {
	if targetType == core.EntityProject && sess.CurrentProject != nil {
		return sess.CurrentProject
	}
	if sess.CurrentTask != nil {
		return sess.CurrentTask
	}
	return sess.CurrentProject
}

// applyOutcome wraps apply into an IntentOutcome and records the result.
func (d *Dispatcher) applyOutcome(ctx context.Context, sess *core.SessionContext, intent core.Intent, ref core.EntityRef, result *core.UtteranceResult) core.IntentOutcome {
	rec, err := d.apply(ctx, sess, intent, ref)
	if err != nil {
		return core.IntentOutcome{Intent: intent, Status: core.OutcomeFailed, Err: err}
	}
	result.Applied = append(result.Applied, *rec)
	return core.IntentOutcome{Intent: intent, Status: core.OutcomeApplied, RecordID: rec.ID}
}

// apply commits one mutating intent against a resolved entity: version-gated
// entity write, action record, index touch, session update, correction
// snapshot.
func (d *Dispatcher) apply(ctx context.Context, sess *core.SessionContext, intent core.Intent, ref core.EntityRef) (*core.ActionRecord, error) {
	if ref.Type == core.EntityProject {
		return d.applyToProject(ctx, sess, intent, ref)
	}
	return d.applyToTask(ctx, sess, intent, ref)
}

func (d *Dispatcher) applyToTask(ctx context.Context, sess *core.SessionContext, intent core.Intent, ref core.EntityRef) (*core.ActionRecord, error) {
	now := d.clock().UTC()
	var (
		prior      *core.Task
		actionType core.ActionType
		summary    string
		meta       map[string]string
	)
	task, err := d.updateTask(ctx, ref.ID, func(t *core.Task) error {
		prior = t.Clone()
		actionType = ""
		summary = ""
		meta = nil
		switch intent.Type {
		case core.IntentCompletion:
			if !t.Status.CanTransition(core.StatusDone, false) {
				return fmt.Errorf("task %q cannot move from %s to %s", t.Title, t.Status, core.StatusDone)
			}
			t.Status = core.StatusDone
			t.ActivityLog = append(t.ActivityLog, core.Activity{Kind: "complete", Created: now})
			actionType = core.ActionComplete
			summary = fmt.Sprintf("completed task %q", t.Title)

		case core.IntentProgress:
			if t.Status != core.StatusInProgress {
				if !t.Status.CanTransition(core.StatusInProgress, intent.Payload.Reopen) {
					return fmt.Errorf("task %q is %s; reopening must be explicit", t.Title, t.Status)
				}
				if t.Status == core.StatusDone {
					actionType = core.ActionReopen
					summary = fmt.Sprintf("reopened task %q", t.Title)
				}
				t.Status = core.StatusInProgress
			}
			kind := "progress"
			if actionType == core.ActionReopen {
				kind = "reopen"
			} else {
				actionType = core.ActionProgress
				summary = fmt.Sprintf("working on task %q", t.Title)
				if intent.Payload.Detail != "" {
					summary += ": " + intent.Payload.Detail
				}
			}
			t.ActivityLog = append(t.ActivityLog, core.Activity{Kind: kind, Detail: intent.Payload.Detail, Created: now})

		case core.IntentDeferral:
			t.ActivityLog = append(t.ActivityLog, core.Activity{Kind: "defer", Detail: intent.Payload.Reason, Created: now})
			actionType = core.ActionDefer
			summary = fmt.Sprintf("deferred task %q", t.Title)
			meta = map[string]string{}
			if intent.Payload.Reason != "" {
				summary += " because " + intent.Payload.Reason
				meta["reason"] = intent.Payload.Reason
			}
			if intent.Payload.TargetTime != "" {
				summary += " until " + intent.Payload.TargetTime
				meta["target_time"] = intent.Payload.TargetTime
			}
			if len(meta) == 0 {
				meta = nil
			}

		case core.IntentNote:
			t.Notes = append(t.Notes, core.Note{Text: intent.Payload.Text, Created: now})
			actionType = core.ActionNote
			summary = fmt.Sprintf("note on task %q: %s", t.Title, intent.Payload.Text)

		case core.IntentDecision:
			// Decision resolved to a task: keep it as a flagged note.
			t.Notes = append(t.Notes, core.Note{Text: intent.Payload.Text, Created: now})
			actionType = core.ActionDecision
			summary = fmt.Sprintf("decision on task %q: %s", t.Title, intent.Payload.Text)

		default:
			return fmt.Errorf("intent %s cannot target a task", intent.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec := &core.ActionRecord{
		Actor:     d.actor,
		SessionID: sess.SessionID,
		Type:      actionType,
		Target:    ref,
		Summary:   summary,
		Metadata:  meta,
		Timestamp: now,
	}
	d.embed(ctx, rec)
	if err := d.actions.Append(ctx, rec); err != nil {
		return nil, err
	}
	d.ix.Touch(ref, now)

	sess.CurrentTask = &core.EntityRef{Type: core.EntityTask, ID: task.ID}
	if task.ProjectID != "" {
		sess.CurrentProject = &core.EntityRef{Type: core.EntityProject, ID: task.ProjectID}
	}
	d.commit(sess, intent, rec, prior, nil)
	return rec, nil
}

func (d *Dispatcher) applyToProject(ctx context.Context, sess *core.SessionContext, intent core.Intent, ref core.EntityRef) (*core.ActionRecord, error) {
	now := d.clock().UTC()
	var (
		prior      *core.Project
		actionType core.ActionType
		summary    string
	)
	proj, err := d.updateProject(ctx, ref.ID, func(p *core.Project) error {
		prior = p.Clone()
		switch intent.Type {
		case core.IntentDecision:
			p.Decisions = append(p.Decisions, core.Note{Text: intent.Payload.Text, Created: now})
			actionType = core.ActionDecision
			summary = fmt.Sprintf("decision on project %q: %s", p.Name, intent.Payload.Text)
		case core.IntentNote:
			p.Notes = append(p.Notes, core.Note{Text: intent.Payload.Text, Created: now})
			actionType = core.ActionNote
			summary = fmt.Sprintf("note on project %q: %s", p.Name, intent.Payload.Text)
		default:
			return fmt.Errorf("intent %s cannot target a project", intent.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec := &core.ActionRecord{
		Actor:     d.actor,
		SessionID: sess.SessionID,
		Type:      actionType,
		Target:    ref,
		Summary:   summary,
		Timestamp: now,
	}
	d.embed(ctx, rec)
	if err := d.actions.Append(ctx, rec); err != nil {
		return nil, err
	}
	d.ix.Touch(ref, now)

	sess.CurrentProject = &core.EntityRef{Type: core.EntityProject, ID: proj.ID}
	d.commit(sess, intent, rec, nil, prior)
	return rec, nil
}

// commit records the post-apply bookkeeping shared by every mutation.
func (d *Dispatcher) commit(sess *core.SessionContext, intent core.Intent, rec *core.ActionRecord, priorTask *core.Task, priorProject *core.Project) {
	sess.LastAction = rec.ID
	if rec.Type == core.ActionCreate {
		ref := rec.Target
		sess.CurrentTask = &ref
	}
	d.mu.Lock()
	d.last[sess.SessionID] = &snapshot{record: rec, intent: intent, priorTask: priorTask, priorProject: priorProject}
	d.mu.Unlock()
}

// restore puts the corrected entity back into its pre-mutation state. The
// version keeps moving forward; only the domain fields roll back.
func (d *Dispatcher) restore(ctx context.Context, snap *snapshot) error {
	switch {
	case snap.priorTask != nil:
		prior := snap.priorTask
		_, err := d.updateTask(ctx, prior.ID, func(t *core.Task) error {
			t.Title = prior.Title
			t.Aliases = append([]string(nil), prior.Aliases...)
			t.ProjectID = prior.ProjectID
			t.Status = prior.Status
			t.Priority = prior.Priority
			t.Notes = append([]core.Note(nil), prior.Notes...)
			t.ActivityLog = append([]core.Activity(nil), prior.ActivityLog...)
			return nil
		})
		return err
	case snap.priorProject != nil:
		prior := snap.priorProject
		_, err := d.updateProject(ctx, prior.ID, func(p *core.Project) error {
			p.Name = prior.Name
			p.Aliases = append([]string(nil), prior.Aliases...)
			p.Status = prior.Status
			p.Decisions = append([]core.Note(nil), prior.Decisions...)
			p.Methods = append([]core.Note(nil), prior.Methods...)
			p.Notes = append([]core.Note(nil), prior.Notes...)
			return nil
		})
		return err
	case snap.record.Type == core.ActionCreate && snap.record.Target.Type == core.EntityTask:
		// A creation has no prior state to roll back to; voiding it means
		// archiving the mistaken task and dropping it from the index so it is
		// no longer referenceable.
		ref := snap.record.Target
		if _, err := d.updateTask(ctx, ref.ID, func(t *core.Task) error {
			t.Status = core.StatusArchived
			return nil
		}); err != nil {
			return err
		}
		d.ix.Remove(ref)
		return nil
	default:
		return nil
	}
}

// updateTask runs a fetch-mutate-swap loop, refetching on version conflicts.
func (d *Dispatcher) updateTask(ctx context.Context, id string, mutate func(t *core.Task) error) (*core.Task, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		t, err := d.entities.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(t); err != nil {
			return nil, err
		}
		t.Updated = d.clock().UTC()
		updated, err := d.entities.UpdateTask(ctx, t)
		if err == nil {
			return updated, nil
		}
		if !core.IsConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// updateProject mirrors updateTask for projects.
func (d *Dispatcher) updateProject(ctx context.Context, id string, mutate func(p *core.Project) error) (*core.Project, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		p, err := d.entities.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(p); err != nil {
			return nil, err
		}
		p.Updated = d.clock().UTC()
		updated, err := d.entities.UpdateProject(ctx, p)
		if err == nil {
			return updated, nil
		}
		if !core.IsConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// embed attaches an embedding of the record summary when an embedder is
// wired. Embedding failures degrade recall, not dispatch.
func (d *Dispatcher) embed(ctx context.Context, rec *core.ActionRecord) {
	if d.embedder == nil {
		return
	}
	vec, err := d.embedder.Embed(ctx, rec.Summary)
	if err != nil {
		d.logger.Warn("embedding failed", "summary", rec.Summary, "error", err)
		return
	}
	rec.Embedding = vec
}

func (d *Dispatcher) loadSession(sessionID string) *core.SessionContext {
	sess, err := d.sessions.Get(sessionID)
	if err != nil {
		return &core.SessionContext{SessionID: sessionID}
	}
	return sess
}

func (d *Dispatcher) saveSession(sess *core.SessionContext) {
	if err := d.sessions.Set(sess.SessionID, sess); err != nil {
		d.logger.Warn("session save failed", "session_id", sess.SessionID, "error", err)
	}
}
