// Package embedding provides core.Embedder implementations: an OpenAI-backed
// embedder for production and a deterministic feature-hashing embedder for
// offline use and tests.
package embedding
