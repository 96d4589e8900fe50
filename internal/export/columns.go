package export

import (
	"strconv"

	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
)

// Table is a titled set of rows rendered through columns. Every export
// numbers rows from 1 in a leading "No" column.
type Table[T any] struct {
	Title    string
	Subtitle string
	Columns  []datatable.Column[T]
	Rows     []T
}

func (t Table[T]) headers() []string {
	return append([]string{"No"}, datatable.Headers(t.Columns)...)
}

func (t Table[T]) cells() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = append([]string{strconv.Itoa(i + 1)}, datatable.Cells(t.Columns, row)...)
	}
	return out
}

func (t Table[T]) widths() []float64 {
	out := make([]float64, 0, len(t.Columns)+1)
	out = append(out, 4)
	for _, c := range t.Columns {
		w := c.Width
		if w <= 0 {
			w = 10
		}
		out = append(out, w)
	}
	return out
}

// CaseColumns is the report layout shared by the Excel and PDF exports
func CaseColumns() []datatable.Column[*entity.Case] {
	field := func(c *entity.Case, name string) string { return c.Field(name) }
	return []datatable.Column[*entity.Case]{
		datatable.FieldColumn("id", "ID Kasus", 10, field),
		datatable.FieldColumn("cif", "CIF", 9, field),
		datatable.FieldColumn("customer_name", "Nama Nasabah", 18, field),
		datatable.FieldColumn("account_number", "No Rekening", 12, field),
		datatable.FieldColumn("branch_code", "Cabang", 6, field),
		datatable.FieldColumn("indicator", "Indikator", 8, field),
		{Key: "transaction_date", Header: "Tgl Transaksi", Width: 9, Render: func(c *entity.Case) string {
			return FormatDate(c.TransactionDate)
		}},
		{Key: "amount", Header: "Nominal", Width: 13, Render: func(c *entity.Case) string {
			return FormatRupiah(c.Amount)
		}},
		datatable.FieldColumn("status_description", "Status", 16, field),
	}
}
