package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/taskvoice/core"
	"github.com/hupe1980/taskvoice/embedding"
	"github.com/hupe1980/taskvoice/entity"
	"github.com/hupe1980/taskvoice/index"
	"github.com/hupe1980/taskvoice/memory"
	"github.com/hupe1980/taskvoice/resolver"
	"github.com/hupe1980/taskvoice/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	d        *Dispatcher
	entities *entity.InMemoryStore
	actions  *memory.InMemoryStore
	sessions *session.InMemoryStore
	ix       *index.Index
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ix := index.New()
	f := &fixture{
		entities: entity.NewInMemoryStore(),
		actions:  memory.NewInMemoryStore(),
		sessions: session.NewInMemoryStore(),
		ix:       ix,
	}
	f.d = New(ix, resolver.New(ix), f.entities, f.actions, f.sessions, embedding.NewHashingEmbedder())
	return f
}

func (f *fixture) seedTask(t *testing.T, title string) *core.Task {
	t.Helper()
	task := &core.Task{Title: title}
	require.NoError(t, f.entities.CreateTask(context.Background(), task))
	f.ix.Put(index.Entry{Ref: task.Ref(), Title: title})
	return task
}

func (f *fixture) seedProject(t *testing.T, name string) *core.Project {
	t.Helper()
	proj := &core.Project{Name: name}
	require.NoError(t, f.entities.CreateProject(context.Background(), proj))
	f.ix.Put(index.Entry{Ref: proj.Ref(), Title: name})
	return proj
}

func TestCompletionApplies(t *testing.T) {
	f := newFixture(t)
	task := f.seedTask(t, "write the quarterly report")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "quarterly report"},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, core.ActionComplete, res.Applied[0].Type)
	assert.Equal(t, task.Ref(), res.Applied[0].Target)
	assert.Equal(t, "s1", res.Applied[0].SessionID)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, core.OutcomeApplied, res.Outcomes[0].Status)

	got, err := f.entities.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDone, got.Status)
	assert.Greater(t, got.Version, task.Version)

	sess, err := f.sessions.Get("s1")
	require.NoError(t, err)
	require.NotNil(t, sess.CurrentTask)
	assert.Equal(t, task.ID, sess.CurrentTask.ID)
	assert.Equal(t, res.Applied[0].ID, sess.LastAction)
}

func TestStrictOrderWithinUtterance(t *testing.T) {
	f := newFixture(t)
	task := f.seedTask(t, "debugging doc")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentProgress, Reference: "debugging doc", Payload: core.IntentPayload{Detail: "tracing the race"}},
		{Type: core.IntentNote, Reference: "debugging doc", Payload: core.IntentPayload{Text: "check the lock order"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 2)
	assert.Equal(t, core.ActionProgress, res.Applied[0].Type)
	assert.Equal(t, core.ActionNote, res.Applied[1].Type)

	got, _ := f.entities.GetTask(ctx, task.ID)
	assert.Equal(t, core.StatusInProgress, got.Status)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "check the lock order", got.Notes[0].Text)
}

func TestAmbientReferenceUsesCurrentTask(t *testing.T) {
	f := newFixture(t)
	task := f.seedTask(t, "debugging doc")
	ctx := context.Background()

	_, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentProgress, Reference: "debugging doc"},
	})
	require.NoError(t, err)

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentNote, Payload: core.IntentPayload{Text: "remember the retry budget"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)

	got, _ := f.entities.GetTask(ctx, task.ID)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "remember the retry budget", got.Notes[0].Text)
}

func TestAmbientReferenceWithoutContextFails(t *testing.T) {
	f := newFixture(t)
	res, err := f.d.Dispatch(context.Background(), "fresh", []core.Intent{
		{Type: core.IntentNote, Payload: core.IntentPayload{Text: "orphan note"}, Raw: "orphan note"},
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, core.OutcomeFailed, res.Outcomes[0].Status)

	var nf *core.ReferenceNotFoundError
	assert.ErrorAs(t, res.Outcomes[0].Err, &nf)
}

func TestClarificationsBatchedInOneRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seedTask(t, "Review chapter one of the manuscript")
	f.seedTask(t, "Review chapter two of the manuscript")
	f.seedTask(t, "Proofread appendix of the manuscript")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "manuscript edits"},
		{Type: core.IntentNote, Reference: "manuscript edits", Payload: core.IntentPayload{Text: "double space"}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	require.Len(t, res.Pending, 2, "all ambiguous intents come back together")
	for _, req := range res.Pending {
		assert.Equal(t, core.DecisionClarify, req.Kind)
		assert.NotEmpty(t, req.Candidates)
		assert.LessOrEqual(t, len(req.Candidates), resolver.DefaultMaxClarifyCandidates)
	}
	assert.Equal(t, 2, f.d.PendingCount())
}

func TestClarificationAnswerApplies(t *testing.T) {
	f := newFixture(t)
	one := f.seedTask(t, "Review chapter one of the manuscript")
	f.seedTask(t, "Review chapter two of the manuscript")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "manuscript edits"},
	})
	require.NoError(t, err)
	require.Len(t, res.Pending, 1)

	ref := one.Ref()
	ans, err := f.d.ResolveClarification(ctx, []core.ClarificationChoice{
		{RequestID: res.Pending[0].ID, Selected: &ref},
	})
	require.NoError(t, err)
	require.Len(t, ans.Applied, 1)
	assert.Equal(t, core.ActionComplete, ans.Applied[0].Type)
	assert.Equal(t, 0, f.d.PendingCount())

	got, _ := f.entities.GetTask(ctx, one.ID)
	assert.Equal(t, core.StatusDone, got.Status)
}

func TestClarificationNilSelectionAbandons(t *testing.T) {
	f := newFixture(t)
	one := f.seedTask(t, "Review chapter one of the manuscript")
	f.seedTask(t, "Review chapter two of the manuscript")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "manuscript edits"},
	})
	require.NoError(t, err)
	require.Len(t, res.Pending, 1)

	ans, err := f.d.ResolveClarification(ctx, []core.ClarificationChoice{
		{RequestID: res.Pending[0].ID},
	})
	require.NoError(t, err)
	assert.Empty(t, ans.Applied)
	require.Len(t, ans.Outcomes, 1)
	assert.Equal(t, core.OutcomeAbandoned, ans.Outcomes[0].Status)

	got, _ := f.entities.GetTask(ctx, one.ID)
	assert.Equal(t, core.StatusTodo, got.Status, "abandoned intents mutate nothing")
}

func TestUnknownReferenceNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedTask(t, "write the quarterly report")

	res, err := f.d.Dispatch(context.Background(), "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "flurble zorp"},
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, core.OutcomeFailed, res.Outcomes[0].Status)

	var nf *core.ReferenceNotFoundError
	require.ErrorAs(t, res.Outcomes[0].Err, &nf)
	assert.Equal(t, "flurble zorp", nf.Reference)
}

func TestQuestionSurfacedNeverMutates(t *testing.T) {
	f := newFixture(t)
	f.seedTask(t, "debugging doc")

	res, err := f.d.Dispatch(context.Background(), "s1", []core.Intent{
		{Type: core.IntentQuestion, Payload: core.IntentPayload{Text: "when is the deadline?"}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "when is the deadline?", res.Questions[0])
	assert.Equal(t, 0, f.actions.Len())
}

func TestUnparsedDowngradesToNoteOnCurrentTask(t *testing.T) {
	f := newFixture(t)
	task := f.seedTask(t, "debugging doc")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentProgress, Reference: "debugging doc"},
		{Type: core.IntentUnparsed, Raw: "the widget thing from before"},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 2)
	assert.Empty(t, res.Unparsed)
	assert.Equal(t, core.ActionNote, res.Applied[1].Type)

	got, _ := f.entities.GetTask(ctx, task.ID)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "the widget thing from before", got.Notes[0].Text)
}

func TestUnparsedSurfacedWithoutContext(t *testing.T) {
	f := newFixture(t)
	res, err := f.d.Dispatch(context.Background(), "fresh", []core.Intent{
		{Type: core.IntentUnparsed, Raw: "mumble mumble"},
	})
	require.NoError(t, err)
	require.Len(t, res.Unparsed, 1)
	assert.Equal(t, "mumble mumble", res.Unparsed[0])
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, core.OutcomeSurfaced, res.Outcomes[0].Status)
}

func TestCancelledContextAbandonsAll(t *testing.T) {
	f := newFixture(t)
	task := f.seedTask(t, "debugging doc")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "debugging doc"},
		{Type: core.IntentNote, Reference: "debugging doc", Payload: core.IntentPayload{Text: "n"}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	require.Len(t, res.Outcomes, 2)
	for _, out := range res.Outcomes {
		assert.Equal(t, core.OutcomeAbandoned, out.Status)
	}

	got, _ := f.entities.GetTask(context.Background(), task.ID)
	assert.Equal(t, core.StatusTodo, got.Status)
}

func TestCorrectionReversesAndReapplies(t *testing.T) {
	f := newFixture(t)
	wrong := f.seedTask(t, "debugging doc")
	right := f.seedTask(t, "scaling guide")
	ctx := context.Background()

	first, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "debugging doc"},
	})
	require.NoError(t, err)
	require.Len(t, first.Applied, 1)

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCorrection, Reference: "scaling guide", Raw: "actually I meant the scaling guide"},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 2, "reversal plus re-application")
	assert.Equal(t, core.ActionReversal, res.Applied[0].Type)
	assert.Equal(t, first.Applied[0].ID, res.Applied[0].Metadata["reverses"])
	assert.Equal(t, core.ActionComplete, res.Applied[1].Type)

	gotWrong, _ := f.entities.GetTask(ctx, wrong.ID)
	assert.Equal(t, core.StatusTodo, gotWrong.Status, "mistaken completion rolled back")
	gotRight, _ := f.entities.GetTask(ctx, right.ID)
	assert.Equal(t, core.StatusDone, gotRight.Status)
}

func TestCorrectionReplacesMistakenCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentNewItem, Payload: core.IntentPayload{Title: "onboarding checklist"}},
	})
	require.NoError(t, err)
	require.Len(t, first.Applied, 1)

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCorrection, Reference: "deployment runbook", Raw: "actually I meant the deployment runbook"},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 2, "reversal plus replacement creation")
	assert.Equal(t, core.ActionReversal, res.Applied[0].Type)
	assert.Equal(t, first.Applied[0].ID, res.Applied[0].Metadata["reverses"])
	assert.Equal(t, core.ActionCreate, res.Applied[1].Type)

	mistaken, err := f.entities.GetTask(ctx, first.Applied[0].Target.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusArchived, mistaken.Status, "the mistaken task is voided, not left live")
	assert.Equal(t, 1, f.ix.Len(), "only the corrected task stays referenceable")

	next, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "deployment runbook"},
	})
	require.NoError(t, err)
	require.Len(t, next.Applied, 1)
	assert.Equal(t, res.Applied[1].Target, next.Applied[0].Target)
}

func TestBareCorrectionOfCreationVoidsTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentNewItem, Payload: core.IntentPayload{Title: "onboarding checklist"}},
	})
	require.NoError(t, err)
	require.Len(t, first.Applied, 1)

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCorrection, Raw: "scratch that"},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, core.ActionReversal, res.Applied[0].Type)
	assert.Equal(t, 0, f.ix.Len())

	got, err := f.entities.GetTask(ctx, first.Applied[0].Target.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusArchived, got.Status)

	sess, err := f.sessions.Get("s1")
	require.NoError(t, err)
	assert.Nil(t, sess.CurrentTask, "a voided creation is no longer the current task")
}

func TestBareCorrectionIsPureUndo(t *testing.T) {
	f := newFixture(t)
	task := f.seedTask(t, "debugging doc")
	ctx := context.Background()

	_, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "debugging doc"},
	})
	require.NoError(t, err)

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCorrection, Raw: "scratch that"},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, core.ActionReversal, res.Applied[0].Type)

	got, _ := f.entities.GetTask(ctx, task.ID)
	assert.Equal(t, core.StatusTodo, got.Status)
}

func TestCorrectionWithoutPriorActionFails(t *testing.T) {
	f := newFixture(t)
	res, err := f.d.Dispatch(context.Background(), "fresh", []core.Intent{
		{Type: core.IntentCorrection, Reference: "something", Raw: "actually I meant something"},
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, core.OutcomeFailed, res.Outcomes[0].Status)
}

func TestNewItemCreatesAndIndexes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentNewItem, Payload: core.IntentPayload{Title: "draft onboarding checklist", Priority: core.PriorityHigh}},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, core.ActionCreate, res.Applied[0].Type)
	assert.Equal(t, "high", res.Applied[0].Metadata["priority"])

	tasks, err := f.entities.ListTasks(ctx, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, core.PriorityHigh, tasks[0].Priority)

	// The fresh task is immediately referenceable.
	next, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "onboarding checklist"},
	})
	require.NoError(t, err)
	require.Len(t, next.Applied, 1)
	assert.Equal(t, core.ActionComplete, next.Applied[0].Type)
}

func TestNewItemInheritsCurrentProject(t *testing.T) {
	f := newFixture(t)
	proj := f.seedProject(t, "launch plan")
	ctx := context.Background()

	_, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentDecision, Reference: "launch plan", Payload: core.IntentPayload{Text: "ship weekly"}},
	})
	require.NoError(t, err)

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentNewItem, Payload: core.IntentPayload{Title: "write launch announcement"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)

	tasks, err := f.entities.ListTasks(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "write launch announcement", tasks[0].Title)
}

func TestDecisionLandsOnProject(t *testing.T) {
	f := newFixture(t)
	proj := f.seedProject(t, "launch plan")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentDecision, Reference: "launch plan", Payload: core.IntentPayload{Text: "ship weekly"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, core.ActionDecision, res.Applied[0].Type)
	assert.Equal(t, proj.Ref(), res.Applied[0].Target)

	got, _ := f.entities.GetProject(ctx, proj.ID)
	require.Len(t, got.Decisions, 1)
	assert.Equal(t, "ship weekly", got.Decisions[0].Text)
}

func TestReopenRequiresExplicitFlag(t *testing.T) {
	f := newFixture(t)
	task := f.seedTask(t, "debugging doc")
	ctx := context.Background()

	_, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "debugging doc"},
	})
	require.NoError(t, err)

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentProgress, Reference: "debugging doc"},
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, core.OutcomeFailed, res.Outcomes[0].Status, "finished tasks never regress silently")

	res, err = f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentProgress, Reference: "debugging doc", Payload: core.IntentPayload{Reopen: true}},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, core.ActionReopen, res.Applied[0].Type)

	got, _ := f.entities.GetTask(ctx, task.ID)
	assert.Equal(t, core.StatusInProgress, got.Status)
}

func TestDeferralRecordsReasonAndTime(t *testing.T) {
	f := newFixture(t)
	task := f.seedTask(t, "write the quarterly report")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentDeferral, Reference: "quarterly report", Payload: core.IntentPayload{Reason: "waiting on finance", TargetTime: "next week"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, core.ActionDefer, res.Applied[0].Type)
	assert.Equal(t, "waiting on finance", res.Applied[0].Metadata["reason"])
	assert.Equal(t, "next week", res.Applied[0].Metadata["target_time"])

	got, _ := f.entities.GetTask(ctx, task.ID)
	require.Len(t, got.ActivityLog, 1)
	assert.Equal(t, "defer", got.ActivityLog[0].Kind)
}

func TestEveryRecordGetsEmbedding(t *testing.T) {
	f := newFixture(t)
	f.seedTask(t, "debugging doc")
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "debugging doc"},
	})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.NotEmpty(t, res.Applied[0].Embedding, "records are searchable by vector recall")

	recall, err := f.actions.Search(ctx, res.Applied[0].Embedding, 1, core.ActionFilter{})
	require.NoError(t, err)
	require.Len(t, recall, 1)
	assert.Equal(t, res.Applied[0].ID, recall[0].ID)
}

// unavailableActionStore fails every call the way a lost database would.
type unavailableActionStore struct{}

func (unavailableActionStore) Append(context.Context, *core.ActionRecord) error {
	return &core.StoreUnavailableError{Op: "append", Err: errors.New("database file missing")}
}

func (unavailableActionStore) Search(context.Context, []float32, int, core.ActionFilter) ([]core.ActionRecord, error) {
	return nil, &core.StoreUnavailableError{Op: "search", Err: errors.New("database file missing")}
}

func (unavailableActionStore) GetRecent(context.Context, string, time.Duration) ([]core.ActionRecord, error) {
	return nil, &core.StoreUnavailableError{Op: "get_recent", Err: errors.New("database file missing")}
}

func TestStoreFailureAbortsRemainingBatch(t *testing.T) {
	ix := index.New()
	entities := entity.NewInMemoryStore()
	d := New(ix, resolver.New(ix), entities, unavailableActionStore{}, session.NewInMemoryStore(), nil)
	ctx := context.Background()

	task := &core.Task{Title: "debugging doc"}
	require.NoError(t, entities.CreateTask(ctx, task))
	ix.Put(index.Entry{Ref: task.Ref(), Title: task.Title})

	res, err := d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentCompletion, Reference: "debugging doc"},
		{Type: core.IntentNote, Reference: "debugging doc", Payload: core.IntentPayload{Text: "a"}},
		{Type: core.IntentNote, Reference: "debugging doc", Payload: core.IntentPayload{Text: "b"}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, core.OutcomeFailed, res.Outcomes[0].Status)

	var se *core.StoreUnavailableError
	require.ErrorAs(t, res.Outcomes[0].Err, &se)
	assert.Equal(t, core.OutcomeAbandoned, res.Outcomes[1].Status, "an unavailable store stops the batch")
	assert.Equal(t, core.OutcomeAbandoned, res.Outcomes[2].Status)
}

func TestUnknownClarificationID(t *testing.T) {
	f := newFixture(t)
	res, err := f.d.ResolveClarification(context.Background(), []core.ClarificationChoice{
		{RequestID: "missing"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Errors)
}

func TestDispatchRefreshesSessionTTL(t *testing.T) {
	f := newFixture(t)
	f.seedTask(t, "debugging doc")
	ctx := context.Background()

	_, err := f.d.Dispatch(ctx, "s1", []core.Intent{
		{Type: core.IntentProgress, Reference: "debugging doc"},
	})
	require.NoError(t, err)

	sess, err := f.sessions.Get("s1")
	require.NoError(t, err)
	assert.False(t, sess.ExpiresAt.IsZero())
}
