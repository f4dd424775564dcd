package rowmap

import (
	"fmt"

	"github.com/arloliu/unidb/types"
)

// Binding receives positional columns for one record instance.
//
// NumFields reports the declared field count, and SetField rejects Values
// whose variant is incompatible with the field's semantic type.
type Binding interface {
	// NumFields returns the number of declared record fields.
	NumFields() int

	// SetField assigns the Value at the given ordinal position to the
	// corresponding record field.
	//
	// Parameters:
	//   - index: Zero-based field/column ordinal
	//   - v: The decoded cell value
	//
	// Returns:
	//   - error: Non-nil if the Value variant is incompatible with the field
	SetField(index int, v types.Value) error
}

// MapRow maps one row onto a binding.
//
// Parameters:
//   - row: The decoded row
//   - b: The positional binding to populate
//
// Returns:
//   - error: *types.MappingError on arity or field type mismatch
func MapRow(row types.Row, b Binding) error {
	return mapRowAt(0, row, b)
}

// MapRows maps every row of a result onto freshly allocated records.
//
// Mapping is all-or-nothing: a failure on any row returns a nil slice and
// a *types.MappingError for the first offending row.
//
// Parameters:
//   - res: The query result to map
//   - alloc: Allocates one empty record binding per row
//
// Returns:
//   - []T: One mapped record per result row, in result order
//   - error: *types.MappingError on the first arity or type mismatch
func MapRows[T Binding](res *types.QueryResult, alloc func() T) ([]T, error) {
	records := make([]T, 0, len(res.Rows))
	for i, row := range res.Rows {
		rec := alloc()
		if err := mapRowAt(i, row, rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func mapRowAt(rowIndex int, row types.Row, b Binding) error {
	if len(row) != b.NumFields() {
		return &types.MappingError{
			Row:    rowIndex,
			Column: -1,
			Reason: fmt.Sprintf("record declares %d fields, row has %d columns", b.NumFields(), len(row)),
		}
	}

	for i, v := range row {
		if err := b.SetField(i, v); err != nil {
			return &types.MappingError{
				Row:    rowIndex,
				Column: i,
				Reason: fmt.Sprintf("cannot assign %s value to field %d", v.Kind(), i),
				Cause:  err,
			}
		}
	}

	return nil
}
