// Package expr parses and evaluates the small formula language used by
// expression datums.
//
// The syntax is the HCL native expression syntax restricted to number and
// string literals, references, the binary operators + - * /, unary minus and
// parentheses. Parsing is done once per source text by hclsyntax; evaluation
// walks the resulting tree and hands every reference to a Resolver, which is
// how the datum engine observes what an expression reads.
package expr
