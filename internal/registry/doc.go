// Package registry maps node type names, as written in documents and typed
// at the REPL, to the Go constructors that build nodes of that type, and
// maps the same names to the UI control factories that present them.
//
// Modules register themselves at startup. Registration panics on duplicate
// names: two modules claiming one type is a programming error. Validate then
// checks that every registered type actually builds nodes with the fields it
// advertises and that every control belongs to a registered type.
//
// The datum engine never imports this package; only the document loader and
// the UI layer consult it.
package registry
