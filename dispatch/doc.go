// Package dispatch applies extracted intents to entity state in strict
// utterance order. It owns the update pipeline: resolving references through
// the fuzzy resolver, gating writes on entity versions, recording every
// committed mutation in the action log, batching clarification requests into
// a single round-trip and compensating already-committed mutations when a
// correction arrives.
package dispatch
