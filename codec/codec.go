package codec

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/arloliu/unidb/types"
)

// BindArgs encodes Values into the bind-parameter form accepted by the
// database/sql driver layer.
//
// Parameters:
//   - params: The typed parameter values to encode
//
// Returns:
//   - []any: Driver-level bind arguments, positionally aligned with params
func BindArgs(params []types.Value) []any {
	if len(params) == 0 {
		return nil
	}

	args := make([]any, len(params))
	for i, p := range params {
		switch p.Kind() {
		case types.KindNull:
			args[i] = nil
		case types.KindInteger:
			args[i] = p.Int64()
		case types.KindFloat:
			args[i] = p.Float64()
		case types.KindText:
			args[i] = p.Text()
		case types.KindBlob:
			args[i] = p.Blob()
		}
	}

	return args
}

// DecodeRows drains rows into a QueryResult, decoding every cell into a
// Value. The rows are always closed before returning.
//
// Parameters:
//   - rows: The result rows from the driver (must be non-nil)
//
// Returns:
//   - *types.QueryResult: Fully decoded result with uniform row arity
//   - error: CodecError for malformed cells, or the driver's iteration error
func DecodeRows(rows *sql.Rows) (*types.QueryResult, error) {
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	columns := make([]types.Column, len(names))
	for i, name := range names {
		columns[i] = types.Column{Name: name}
	}

	// Declared types are a hint; not every driver reports them.
	if colTypes, ctErr := rows.ColumnTypes(); ctErr == nil {
		for i, ct := range colTypes {
			if i < len(columns) {
				columns[i].DeclaredType = ct.DatabaseTypeName()
			}
		}
	}

	result := &types.QueryResult{Columns: columns}

	cells := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range cells {
		ptrs[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(types.Row, len(columns))
		for i, cell := range cells {
			v, err := DecodeCell(cell, columns[i].DeclaredType, i)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// DecodeCell converts one driver-level cell into a Value using the declared
// column type as a hint.
//
// Narrower numeric widths are widened to the Value model, never truncated.
// Byte slices are copied because the driver may reuse its scan buffers.
//
// Parameters:
//   - cell: The driver-level cell value
//   - declared: The backend-declared column type name (may be empty)
//   - column: Zero-based column index, used in error context
//
// Returns:
//   - types.Value: The decoded Value
//   - error: *types.CodecError if the cell is malformed
func DecodeCell(cell any, declared string, column int) (types.Value, error) {
	switch c := cell.(type) {
	case nil:
		return types.Null(), nil
	case int64:
		return types.Integer(c), nil
	case int32:
		return types.Integer(int64(c)), nil
	case int:
		return types.Integer(int64(c)), nil
	case float64:
		return types.Float(c), nil
	case float32:
		return types.Float(float64(c)), nil
	case bool:
		if c {
			return types.Integer(1), nil
		}

		return types.Integer(0), nil
	case time.Time:
		return types.Text(c.Format(time.RFC3339Nano)), nil
	case string:
		if !utf8.ValidString(c) {
			return types.Value{}, &types.CodecError{
				Column:       column,
				DeclaredType: declared,
				Cause:        fmt.Errorf("text cell contains invalid UTF-8"),
			}
		}

		return types.Text(c), nil
	case []byte:
		if isTextType(declared) {
			if !utf8.Valid(c) {
				return types.Value{}, &types.CodecError{
					Column:       column,
					DeclaredType: declared,
					Cause:        fmt.Errorf("text cell contains invalid UTF-8"),
				}
			}

			return types.Text(string(c)), nil
		}

		buf := make([]byte, len(c))
		copy(buf, c)

		return types.Blob(buf), nil
	default:
		return types.Value{}, &types.CodecError{
			Column:       column,
			DeclaredType: declared,
			Cause:        fmt.Errorf("unsupported driver cell type %T", cell),
		}
	}
}

// isTextType reports whether a declared column type names a textual type.
func isTextType(declared string) bool {
	if declared == "" {
		return false
	}

	d := strings.ToUpper(declared)
	for _, t := range []string{"CHAR", "TEXT", "CLOB", "JSON", "UUID", "NAME", "XML"} {
		if strings.Contains(d, t) {
			return true
		}
	}

	return false
}
