// Package app wires the engine to its surroundings: it builds the logger and
// the node registry, loads a document into a datum graph, attaches the
// metrics observer and invalidation hooks, and serves the health and
// metrics endpoints. It is decoupled from any specific entrypoint like the
// CLI or the REPL.
package app
