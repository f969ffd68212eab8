// Package cli implements the datumgraph command tree: eval, deps, types and
// repl. Flags may also be given as DATUMGRAPH_<FLAG> environment variables.
package cli
