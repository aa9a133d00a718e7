// Package file provides a TOML-backed implementation of the config store
// with hot reload via filesystem notifications.
package file
