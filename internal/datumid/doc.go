// internal/datumid/doc.go

/*
Package datumid provides a structured representation for datum addresses,
based on the canonical format `node.field`.

Both segments are HCL identifiers, so an address written in an expression
(`A.x`) and an address typed on the command line parse to the same Ref.
*/
package datumid
