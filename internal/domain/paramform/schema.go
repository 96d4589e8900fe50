package paramform

import (
	"sort"

	"github.com/estr/backoffice/internal/domain/entity"
)

// FieldType selects how a form value is normalized
type FieldType string

const (
	FieldChips       FieldType = "chips"       // comma-separated code list
	FieldToggle      FieldType = "toggle"      // ON / OFF
	FieldNominal     FieldType = "nominal"     // non-negative amount
	FieldDays        FieldType = "days"        // positive day count
	FieldCount       FieldType = "count"       // positive integer
	FieldPercent     FieldType = "percent"     // 0..100
	FieldMultiSelect FieldType = "multiselect" // subset of Options
)

// Field describes one named input on a parameter form
type Field struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// Schema is the form layout of one parameter set
type Schema struct {
	Kind      string  `json:"kind"`
	Indicator string  `json:"indicator"`
	Title     string  `json:"title"`
	Fields    []Field `json:"fields"`
}

// TransactionCodeIndicator keys the single transaction-code parameter set
const TransactionCodeIndicator = "TRANSACTION_CODE"

var schemas = map[string]Schema{
	"PASSBY": {
		Kind:      entity.ParameterKindRedFlag,
		Indicator: "PASSBY",
		Title:     "Pass-by Transaction",
		Fields: []Field{
			{Key: "min_amount", Label: "Minimum amount", Type: FieldNominal, Required: true},
			{Key: "window_days", Label: "Observation window (days)", Type: FieldDays, Required: true},
			{Key: "min_pass_through_pct", Label: "Minimum pass-through (%)", Type: FieldPercent, Required: true},
			{Key: "transaction_types", Label: "Transaction types", Type: FieldMultiSelect, Required: true,
				Options: []string{"CASH_IN", "CASH_OUT", "TRANSFER"}},
			{Key: "excluded_cifs", Label: "Excluded CIFs", Type: FieldChips},
			{Key: "include_dormant", Label: "Include dormant accounts", Type: FieldToggle},
		},
	},
	"DOR": {
		Kind:      entity.ParameterKindRedFlag,
		Indicator: "DOR",
		Title:     "Dormant Account Reactivation",
		Fields: []Field{
			{Key: "dormant_days", Label: "Dormant period (days)", Type: FieldDays, Required: true},
			{Key: "min_amount", Label: "Minimum amount", Type: FieldNominal, Required: true},
			{Key: "channels", Label: "Channels", Type: FieldMultiSelect, Required: true,
				Options: []string{"TELLER", "ATM", "MOBILE", "INTERNET"}},
			{Key: "excluded_products", Label: "Excluded product codes", Type: FieldChips},
		},
	},
	"MTM": {
		Kind:      entity.ParameterKindRedFlag,
		Indicator: "MTM",
		Title:     "Many-to-Many Transfers",
		Fields: []Field{
			{Key: "min_counterparties", Label: "Minimum counterparties", Type: FieldCount, Required: true},
			{Key: "window_days", Label: "Observation window (days)", Type: FieldDays, Required: true},
			{Key: "min_amount", Label: "Minimum amount", Type: FieldNominal, Required: true},
			{Key: "notify_branch", Label: "Notify branch", Type: FieldToggle},
		},
	},
	"BIFAST": {
		Kind:      entity.ParameterKindRedFlag,
		Indicator: "BIFAST",
		Title:     "BI-Fast Transfers",
		Fields: []Field{
			{Key: "min_amount", Label: "Minimum amount", Type: FieldNominal, Required: true},
			{Key: "max_daily_count", Label: "Maximum transfers per day", Type: FieldCount, Required: true},
			{Key: "window_days", Label: "Observation window (days)", Type: FieldDays, Required: true},
			{Key: "watch_bank_codes", Label: "Watched bank codes", Type: FieldChips},
			{Key: "night_monitoring", Label: "Night-time monitoring", Type: FieldToggle},
		},
	},
	TransactionCodeIndicator: {
		Kind:      entity.ParameterKindTransactionCode,
		Indicator: TransactionCodeIndicator,
		Title:     "Transaction Codes",
		Fields: []Field{
			{Key: "cash_in_codes", Label: "Cash-in codes", Type: FieldChips, Required: true},
			{Key: "cash_out_codes", Label: "Cash-out codes", Type: FieldChips, Required: true},
			{Key: "transfer_codes", Label: "Transfer codes", Type: FieldChips, Required: true},
			{Key: "exclude_reversal", Label: "Exclude reversals", Type: FieldToggle},
		},
	},
}

// Lookup returns the schema for an indicator
func Lookup(indicator string) (Schema, bool) {
	s, ok := schemas[indicator]
	return s, ok
}

// RedFlagIndicators returns the indicators that have red-flag parameter forms, sorted
func RedFlagIndicators() []string {
	out := make([]string, 0, len(schemas))
	for key, s := range schemas {
		if s.Kind == entity.ParameterKindRedFlag {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Field returns the named field of the schema
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
