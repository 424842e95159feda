// Package core provides the foundational domain types and interfaces used by
// TaskVoice. It defines the core abstractions for:
//
//   - Entities (versioned Task / Project documents mutated through dispatch)
//   - Intents (classified units of requested action extracted from utterances)
//   - Resolutions (confidence-graded mapping of free-text references to entities)
//   - ActionRecords (immutable, append-only history of committed mutations)
//   - SessionContext (explicit per-session ambient state with a TTL)
//   - Pluggable stores for entities, session context, the action log and the
//     single-consumption handoff channel
//
// The package intentionally keeps implementation concerns (persistence,
// extraction technique, concrete store backends) out of scope, exposing small
// interfaces to enable custom implementations and extensions.
package core
