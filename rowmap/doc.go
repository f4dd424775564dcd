// Package rowmap maps decoded result rows onto caller-defined record types.
//
// Mapping is positional: record fields are matched to result columns by
// ordinal position, not by name, so column order in the SQL statement must
// match field declaration order. The positional binding for a record type
// is normally produced by code-generation tooling; this package only
// requires that the binding implement the Binding contract.
//
// Mapping is all-or-nothing: an arity or type mismatch on any row fails the
// whole result with a types.MappingError naming the offending row and
// column, and no partial records are produced.
package rowmap
