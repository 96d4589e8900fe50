package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Case is a flagged transaction under review. Records are created and
// transitioned by the core API; this service reads them and submits actions.
type Case struct {
	ID              string          `json:"id"`
	Track           Track           `json:"track"`
	CIF             string          `json:"cif"`
	AccountNumber   string          `json:"account_number"`
	CustomerName    string          `json:"customer_name"`
	BranchCode      string          `json:"branch_code"`
	Indicator       string          `json:"indicator"`
	TransactionDate time.Time       `json:"transaction_date"`
	Amount          decimal.Decimal `json:"amount"`

	StatusCode        string `json:"status_code"`
	StatusDescription string `json:"status_description"`

	ExplanationOprCabang    string `json:"explanation_opr_cabang,omitempty"`
	ExplanationSpvCabang    string `json:"explanation_spv_cabang,omitempty"`
	ExplanationOprKepatuhan string `json:"explanation_opr_kepatuhan,omitempty"`
	ExplanationSpvKepatuhan string `json:"explanation_spv_kepatuhan,omitempty"`

	InputOprCabangBy    string     `json:"input_opr_cabang_by,omitempty"`
	InputOprCabangAt    *time.Time `json:"input_opr_cabang_at,omitempty"`
	AuthSpvCabangBy     string     `json:"auth_spv_cabang_by,omitempty"`
	AuthSpvCabangAt     *time.Time `json:"auth_spv_cabang_at,omitempty"`
	InputOprKepatuhanBy string     `json:"input_opr_kepatuhan_by,omitempty"`
	InputOprKepatuhanAt *time.Time `json:"input_opr_kepatuhan_at,omitempty"`
	AuthSpvKepatuhanBy  string     `json:"auth_spv_kepatuhan_by,omitempty"`
	AuthSpvKepatuhanAt  *time.Time `json:"auth_spv_kepatuhan_at,omitempty"`

	RejectedBy   string     `json:"rejected_by,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`

	Active bool `json:"active"`
}

// Field returns the display value of a named field. Used by list search,
// sorting and exports; unknown names yield "".
func (c *Case) Field(name string) string {
	switch name {
	case "id":
		return c.ID
	case "track":
		return string(c.Track)
	case "cif":
		return c.CIF
	case "account_number":
		return c.AccountNumber
	case "customer_name":
		return c.CustomerName
	case "branch_code":
		return c.BranchCode
	case "indicator":
		return c.Indicator
	case "transaction_date":
		if c.TransactionDate.IsZero() {
			return ""
		}
		return c.TransactionDate.Format("2006-01-02")
	case "amount":
		return c.Amount.StringFixed(2)
	case "status_code":
		return c.StatusCode
	case "status_description":
		return c.StatusDescription
	case "explanation_opr_cabang":
		return c.ExplanationOprCabang
	case "explanation_spv_cabang":
		return c.ExplanationSpvCabang
	case "explanation_opr_kepatuhan":
		return c.ExplanationOprKepatuhan
	case "explanation_spv_kepatuhan":
		return c.ExplanationSpvKepatuhan
	case "rejected_by":
		return c.RejectedBy
	case "reject_reason":
		return c.RejectReason
	}
	return ""
}

// Explanations returns the non-empty stage explanations keyed by field name
func (c *Case) Explanations() map[string]string {
	out := make(map[string]string, 4)
	for _, key := range []string{
		"explanation_opr_cabang",
		"explanation_spv_cabang",
		"explanation_opr_kepatuhan",
		"explanation_spv_kepatuhan",
	} {
		if v := strings.TrimSpace(c.Field(key)); v != "" {
			out[key] = v
		}
	}
	return out
}
