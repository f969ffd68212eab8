// Package hcl provides the HCL implementation of config.Loader. Documents
// are made of blocks of the form
//
//	node "<type>" "<name>" {
//	  field = <expression>
//	}
//
// A field written as a number or string literal becomes a constant;
// anything else is kept as expression source text, exactly as written.
package hcl
