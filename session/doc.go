// Package session contains concrete ContextStore implementations: the
// ephemeral short-term memory holding per-session context with a fixed TTL.
// The interface and the SessionContext type reside in the core package;
// depend on core.ContextStore in your code and select an implementation at
// wiring time.
//
// Expiry is logical, enforced at read time: a Get after the TTL has elapsed
// returns core.ErrNotFound even if physical cleanup has not run yet, so
// callers never observe a stale context.
package session
