// Package driven defines the driven ports (secondary adapters) for CineScope.
//
// Driven ports are interfaces the core depends on and infrastructure
// implements: source adapters wrapping external movie providers, the two
// cache tiers, the pattern and image stores, and configuration.
//
// # Import Rules
//
//   - Can Import: domain, standard library
//   - Cannot Import: services, adapters, external dependencies
package driven
