// Package domain defines the core business entities for CineScope.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CanonicalRecord: A normalized, source-agnostic movie record
//   - RawCandidate: A typed candidate emitted by a source adapter
//   - CacheEntry: A cached resolution keyed by query or record id
//   - QueryPattern: Observed demand statistics for a query
//   - ImageResolution: The outcome of resolving a record's image
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
