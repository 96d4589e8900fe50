package datatable

// Column renders one cell of a row for tables and exports
type Column[T any] struct {
	Key    string
	Header string
	Width  float64 // relative width used by PDF exports
	Render func(row T) string
}

// FieldColumn renders a column straight from the accessor
func FieldColumn[T any](key, header string, width float64, field Accessor[T]) Column[T] {
	return Column[T]{
		Key:    key,
		Header: header,
		Width:  width,
		Render: func(row T) string { return field(row, key) },
	}
}

// Headers returns the column headers in order
func Headers[T any](cols []Column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// Cells renders one row
func Cells[T any](cols []Column[T], row T) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Render(row)
	}
	return out
}
