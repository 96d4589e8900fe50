package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders an amount as "Rp 1.234.567,89"
func FormatRupiah(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("Rp ")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatDate renders a date as dd/mm/yyyy; the zero time renders empty
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FileName builds a dated attachment name such as "laporan_str_20240131_150405.xlsx"
func FileName(base string, at time.Time, ext string) string {
	base = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(base), " ", "_"))
	if base == "" {
		base = "export"
	}
	return base + "_" + at.Format("20060102_150405") + "." + strings.TrimPrefix(ext, ".")
}
