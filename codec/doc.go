// Package codec converts between the typed unidb Value representation and
// the native bind/scan representation of the database/sql driver layer.
//
// Encoding (BindArgs) maps each Value variant onto the driver value the
// backend expects; decoding (DecodeRows, via the driver's scan path) maps
// backend cells onto Value variants. Decoding never fails for well-formed
// backend output; malformed output, such as a text column carrying invalid
// UTF-8, produces a types.CodecError naming the column index.
//
// Numeric widths narrower than the Value model (e.g. a backend returning
// 32-bit integers) are widened, never truncated.
package codec
