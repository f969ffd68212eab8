// Package config defines the format-agnostic model of a parametric document,
// the list of node declarations a graph is built from, along with the Loader
// interface implemented by concrete formats.
//
// Concrete implementations, such as for HCL, are provided in separate
// packages. The model carries expression source text, not parsed
// expressions: parsing belongs to the datum engine.
package config
