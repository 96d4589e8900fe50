package paramform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const maxDays = 3650

// FieldError reports the first form field that failed normalization
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize validates a submitted form against the schema and returns the
// canonical values to send to the core API. Fields are checked in schema
// order and the first failure is returned as a *FieldError.
func (s Schema) Normalize(input map[string]string) (map[string]string, error) {
	for key := range input {
		if _, ok := s.Field(key); !ok {
			return nil, &FieldError{Field: key, Message: "unknown field"}
		}
	}

	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		raw := strings.TrimSpace(input[f.Key])
		if raw == "" && f.Type != FieldToggle {
			if f.Required {
				return nil, &FieldError{Field: f.Key, Message: f.Label + " is required"}
			}
			out[f.Key] = ""
			continue
		}

		v, err := normalizeValue(f, raw)
		if err != nil {
			return nil, &FieldError{Field: f.Key, Message: f.Label + " " + err.Error()}
		}
		if f.Required && v == "" {
			return nil, &FieldError{Field: f.Key, Message: f.Label + " is required"}
		}
		out[f.Key] = v
	}
	return out, nil
}

// Prefill returns form values for every schema field, taking stored values
// where present. Toggles default to OFF.
func (s Schema) Prefill(stored map[string]string) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		v := stored[f.Key]
		if f.Type == FieldToggle && v == "" {
			v = entity.FlagOff
		}
		out[f.Key] = v
	}
	return out
}

func normalizeValue(f Field, raw string) (string, error) {
	switch f.Type {
	case FieldChips:
		return NormalizeChips(raw), nil
	case FieldToggle:
		return NormalizeToggle(raw)
	case FieldNominal:
		d, err := ParseNominal(raw)
		if err != nil {
			return "", err
		}
		return d.String(), nil
	case FieldDays:
		return normalizeInt(raw, 1, maxDays)
	case FieldCount:
		return normalizeInt(raw, 1, 0)
	case FieldPercent:
		return normalizeInt(raw, 0, 100)
	case FieldMultiSelect:
		return normalizeMultiSelect(raw, f.Options)
	}
	return "", fmt.Errorf("has unsupported type %q", f.Type)
}

// NormalizeChips trims, upper-cases and de-duplicates a comma-separated
// code list, keeping first-seen order.
func NormalizeChips(raw string) string {
	seen := make(map[string]bool)
	chips := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		chip := strings.ToUpper(strings.TrimSpace(part))
		if chip == "" || seen[chip] {
			continue
		}
		seen[chip] = true
		chips = append(chips, chip)
	}
	return strings.Join(chips, ",")
}

// SplitChips returns the chips of a normalized list
func SplitChips(list string) []string {
	if list == "" {
		return []string{}
	}
	return strings.Split(list, ",")
}

// NormalizeToggle maps the accepted spellings of a flag to ON or OFF
func NormalizeToggle(raw string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "OFF", "FALSE", "0", "N", "NO":
		return entity.FlagOff, nil
	case "ON", "TRUE", "1", "Y", "YES":
		return entity.FlagOn, nil
	}
	return "", fmt.Errorf("must be ON or OFF")
}

// ParseNominal parses an amount written either plainly ("1500000.50") or in
// the Indonesian style ("Rp 1.500.000,50"). Without a comma, a lone dot
// followed by exactly three digits groups thousands, so "1.500" is 1500.
// Negative amounts are rejected.
func ParseNominal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && strings.EqualFold(s[:2], "rp") {
		s = s[2:]
	}
	s = strings.ReplaceAll(s, " ", "")

	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case strings.Count(s, ".") == 1 && len(s)-strings.Index(s, ".") == 4:
		s = strings.Replace(s, ".", "", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("must be a number")
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative")
	}
	return d, nil
}

// normalizeInt parses an integer within [lo, hi]; hi 0 means unbounded
func normalizeInt(raw string, lo, hi int) (string, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return "", fmt.Errorf("must be a whole number")
	}
	if n < lo {
		return "", fmt.Errorf("must be at least %d", lo)
	}
	if hi > 0 && n > hi {
		return "", fmt.Errorf("must be at most %d", hi)
	}
	return strconv.Itoa(n), nil
}

func normalizeMultiSelect(raw string, options []string) (string, error) {
	allowed := make(map[string]bool, len(options))
	for _, o := range options {
		allowed[o] = true
	}

	picked := SplitChips(NormalizeChips(raw))
	for _, p := range picked {
		if !allowed[p] {
			return "", fmt.Errorf("has unknown option %q", p)
		}
	}
	return strings.Join(picked, ","), nil
}
