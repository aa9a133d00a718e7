// Package driving defines the driving ports (primary adapters) for CineScope.
//
// Driving ports are the interfaces through which the outside world (HTTP
// API, CLI) invokes the core: search, single-record lookup, image
// resolution, and prefetch control.
//
// # Import Rules
//
//   - Can Import: domain, standard library
//   - Cannot Import: services, adapters, external dependencies
package driving
