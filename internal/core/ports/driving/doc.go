// Package driving provides interfaces consumed by driving adapters
// (primary/inbound ports): the CLI and any orchestration layer embedding
// the review pipeline.
package driving
