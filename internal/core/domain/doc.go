// Package domain defines the core business entities for revloop.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Finding: A single reviewer observation flowing through the filter chain
//   - Reaction: One identity's feedback on a published finding
//   - FilterStats: The audit record of one filter chain run
//   - SimilarFinding: A similarity query hit with aggregated reactions
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
