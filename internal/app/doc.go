// Package app wires configuration, logging, metrics, the report service and
// the chi router into a runnable HTTP application with graceful shutdown.
package app
