// Package oasis reads and writes OASIS (SEMI P39) layout files.
//
// OASIS is a modal binary stream: fields omitted from a record inherit the
// value last written for that field in the same cell, names are replaced by
// reference numbers resolved through six name tables, and repeated geometry
// is stored once with a repetition.
//
// A Parser decodes a file and drives a Builder with one call per semantic
// event, resolving all modal state and reference numbers on the way. A
// Creator is itself a Builder: it turns the same event sequence back into
// compact records, keeping its own modal store and name tables. Copying a
// file is therefore
//
//	p, err := oasis.OpenFile("in.oas", oasis.DefaultParserOptions())
//	...
//	c, err := oasis.CreateFile("out.oas", oasis.DefaultCreatorOptions())
//	...
//	if err := p.ParseFile(c); err != nil { ... }
//	err = c.Close()
//
// ExtractCells copies only the cells reachable from a set of roots.
//
// Parsers and Creators are single-session objects and are not safe for
// concurrent use. Errors are *errors.Error values from
// github.com/wippyai/oasis/errors, classified as structural, conformance,
// reference or resource failures.
package oasis
