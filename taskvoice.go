// Package taskvoice provides a high-level façade over the intent pipeline and
// its backing stores (entities, session context, action log, handoff channel).
// Most applications interact with this package by:
//  1. Creating a TaskVoice via New() (optionally overriding default in-memory stores)
//  2. Registering projects and tasks (CreateProject, CreateTask)
//  3. Feeding transcribed utterances to ProcessUtterance and answering any
//     clarifications via ResolveClarification
//
// The façade delegates the update pipeline to dispatch.Dispatcher while
// keeping setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// action store, a learned embedder and a structured logger.
package taskvoice

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/taskvoice/channel"
	"github.com/hupe1980/taskvoice/config"
	"github.com/hupe1980/taskvoice/core"
	"github.com/hupe1980/taskvoice/dispatch"
	"github.com/hupe1980/taskvoice/embedding"
	"github.com/hupe1980/taskvoice/entity"
	"github.com/hupe1980/taskvoice/extractor"
	"github.com/hupe1980/taskvoice/index"
	"github.com/hupe1980/taskvoice/logging"
	"github.com/hupe1980/taskvoice/memory"
	"github.com/hupe1980/taskvoice/resolver"
	"github.com/hupe1980/taskvoice/session"
)

// Options configures the TaskVoice instance.
type Options struct {
	// Config holds the runtime tuning knobs (thresholds, TTLs, recall
	// timeout). Defaults to config.Default().
	Config config.Config

	// Extractor turns utterances into intents (defaults to the deterministic
	// rule extractor; swap in extractor/openai or extractor/anthropic for
	// generative extraction).
	Extractor core.IntentExtractor

	// Stores (default to in-memory implementations if not provided).
	EntityStore  core.EntityStore
	ActionStore  core.ActionStore
	ContextStore core.ContextStore
	Channel      core.HandoffChannel

	// Embedder vectorizes action summaries and recall queries (defaults to
	// the deterministic hashing embedder).
	Embedder core.Embedder

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// TaskVoice is the high-level façade aggregating the pipeline and stores.
type TaskVoice struct {
	cfg        config.Config
	ix         *index.Index
	extractor  core.IntentExtractor
	dispatcher *dispatch.Dispatcher
	entities   core.EntityStore
	actions    core.ActionStore
	channel    core.HandoffChannel
	embedder   core.Embedder
	logger     logging.Logger
}

// New creates a new TaskVoice instance with optional overrides. Any unset
// store is initialized with an in-memory implementation; a configured
// ActionLogPath switches the action log to its SQLite backend.
func New(optFns ...func(o *Options)) (*TaskVoice, error) {
	opts := Options{Config: config.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Extractor == nil {
		opts.Extractor = extractor.NewRuleExtractor()
	}
	if opts.Embedder == nil {
		opts.Embedder = embedding.NewHashingEmbedder()
	}
	if opts.EntityStore == nil {
		opts.EntityStore = entity.NewInMemoryStore()
	}
	if opts.ActionStore == nil {
		memOpts := func(o *memory.Options) {
			o.HalfLife = cfg.StrengthHalfLife
			o.StrengthWeight = cfg.StrengthWeight
		}
		if cfg.ActionLogPath != "" {
			store, err := memory.Open(cfg.ActionLogPath, memOpts)
			if err != nil {
				return nil, fmt.Errorf("open action log: %w", err)
			}
			opts.ActionStore = store
		} else {
			opts.ActionStore = memory.NewInMemoryStore(memOpts)
		}
	}
	if opts.ContextStore == nil {
		opts.ContextStore = session.NewInMemoryStore(func(o *session.Options) {
			o.TTL = cfg.SessionTTL
		})
	}
	if opts.Channel == nil {
		opts.Channel = channel.NewInMemoryChannel(func(o *channel.Options) {
			o.DefaultTTL = cfg.HandoffTTL
		})
	}

	ix := index.New()
	res := resolver.New(ix, func(c *resolver.Config) {
		c.AutoApplyThreshold = cfg.AutoApplyThreshold
		c.ConfirmThreshold = cfg.ConfirmThreshold
		c.MaxClarifyCandidates = cfg.MaxClarifyCandidates
	})
	d := dispatch.New(ix, res, opts.EntityStore, opts.ActionStore, opts.ContextStore, opts.Embedder,
		func(o *dispatch.Options) {
			o.Actor = cfg.Actor
			o.Logger = opts.Logger
		})

	return &TaskVoice{
		cfg:        cfg,
		ix:         ix,
		extractor:  opts.Extractor,
		dispatcher: d,
		entities:   opts.EntityStore,
		actions:    opts.ActionStore,
		channel:    opts.Channel,
		embedder:   opts.Embedder,
		logger:     opts.Logger,
	}, nil
}

// ProcessUtterance runs the full pipeline for one transcribed utterance:
// extraction, resolution, ordered dispatch. The result carries everything the
// caller needs for the follow-up turn: applied records, batched
// clarifications, surfaced questions and unparsed spans.
func (tv *TaskVoice) ProcessUtterance(ctx context.Context, sessionID, utterance string) (*core.UtteranceResult, error) {
	intents, err := tv.extractor.Extract(ctx, utterance)
	if err != nil {
		return nil, fmt.Errorf("extract intents: %w", err)
	}
	tv.logger.Debug("utterance extracted", "session_id", sessionID, "intents", len(intents))
	return tv.dispatcher.Dispatch(ctx, sessionID, intents)
}

// ResolveClarification answers pending clarification requests from an earlier
// ProcessUtterance result.
func (tv *TaskVoice) ResolveClarification(ctx context.Context, choices []core.ClarificationChoice) (*core.UtteranceResult, error) {
	return tv.dispatcher.ResolveClarification(ctx, choices)
}

// Recall searches the action log by semantic similarity to query, bounded by
// the configured recall timeout. A non-empty sessionID narrows the search to
// actions committed in that session; an empty one spans the actor's whole
// history. A timeout surfaces as core.ErrSearchTimeout with an empty result.
func (tv *TaskVoice) Recall(ctx context.Context, sessionID, query string, k int) ([]core.ActionRecord, error) {
	vec, err := tv.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, tv.cfg.RecallTimeout)
	defer cancel()
	return tv.actions.Search(ctx, vec, k, core.ActionFilter{Actor: tv.cfg.Actor, SessionID: sessionID})
}

// Recent returns the actor's actions within the trailing window, oldest
// first.
func (tv *TaskVoice) Recent(ctx context.Context, window time.Duration) ([]core.ActionRecord, error) {
	return tv.actions.GetRecent(ctx, tv.cfg.Actor, window)
}

// Publish hands a payload to another agent under key using the configured
// handoff TTL. Publishing overwrites any unconsumed payload at the key.
func (tv *TaskVoice) Publish(ctx context.Context, key string, payload []byte) error {
	return tv.channel.Publish(ctx, key, payload, tv.cfg.HandoffTTL)
}

// Consume claims the payload at key exactly once; subsequent calls return
// core.ErrNotFound.
func (tv *TaskVoice) Consume(ctx context.Context, key string) ([]byte, error) {
	return tv.channel.Consume(ctx, key)
}

// CreateTask persists a task and registers it (title plus aliases) in the
// entity index so it is immediately referenceable by voice.
func (tv *TaskVoice) CreateTask(ctx context.Context, t *core.Task) error {
	if t.Embedding == nil {
		if vec, err := tv.embedder.Embed(ctx, t.Title); err == nil {
			t.Embedding = vec
		}
	}
	if err := tv.entities.CreateTask(ctx, t); err != nil {
		return err
	}
	tv.ix.Put(index.Entry{
		Ref:          t.Ref(),
		Title:        t.Title,
		Aliases:      t.Aliases,
		ProjectID:    t.ProjectID,
		LastActivity: t.Updated,
	})
	return nil
}

// CreateProject persists a project and registers it in the entity index.
func (tv *TaskVoice) CreateProject(ctx context.Context, p *core.Project) error {
	if err := tv.entities.CreateProject(ctx, p); err != nil {
		return err
	}
	tv.ix.Put(index.Entry{
		Ref:          p.Ref(),
		Title:        p.Name,
		Aliases:      p.Aliases,
		LastActivity: p.Updated,
	})
	return nil
}

// Reindex rebuilds the entity index from the entity store. Call it after
// wiring a pre-populated store.
func (tv *TaskVoice) Reindex(ctx context.Context) error {
	projects, err := tv.entities.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	for _, p := range projects {
		tv.ix.Put(index.Entry{Ref: p.Ref(), Title: p.Name, Aliases: p.Aliases, LastActivity: p.Updated})
	}
	tasks, err := tv.entities.ListTasks(ctx, "")
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	for _, t := range tasks {
		tv.ix.Put(index.Entry{Ref: t.Ref(), Title: t.Title, Aliases: t.Aliases, ProjectID: t.ProjectID, LastActivity: t.Updated})
	}
	return nil
}

// GetTask returns a task by id.
func (tv *TaskVoice) GetTask(ctx context.Context, id string) (*core.Task, error) {
	return tv.entities.GetTask(ctx, id)
}

// GetProject returns a project by id.
func (tv *TaskVoice) GetProject(ctx context.Context, id string) (*core.Project, error) {
	return tv.entities.GetProject(ctx, id)
}
