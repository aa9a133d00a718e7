// Package services contains the core business logic: the instant cache,
// the live multi-source orchestrator, the prefetch engine and the image
// resolution pipeline, composed behind the driving ports.
package services
