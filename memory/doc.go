// Package memory contains concrete ActionStore implementations: the durable
// long-term tier holding the append-only action log with vector recall. The
// interface and the ActionRecord type reside in the core package; depend on
// core.ActionStore in your code and select an implementation at wiring time.
//
// Two backends are provided: a process-local in-memory store and a SQLite
// store persisting embeddings as little-endian float32 BLOBs with cosine
// similarity computed in Go (sub-millisecond at the expected log sizes).
// Both blend vector distance with a bounded strength boost: strength rises
// each time a record is recalled and decays exponentially with idle time, so
// frequently and recently recalled records edge out dormant ones of equal
// relevance without strength ever becoming the sole ranking criterion.
package memory
