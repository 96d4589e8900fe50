package entity

import "time"

// Parameter is a named set of threshold/config values controlling a detection job
type Parameter struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Indicator   string            `json:"indicator"`
	Description string            `json:"description,omitempty"`
	Values      map[string]string `json:"values"`
	Active      bool              `json:"active"`

	AuthStatus    string            `json:"auth_status"`
	PendingValues map[string]string `json:"pending_values,omitempty"`
	PendingActive *bool             `json:"pending_active,omitempty"`
	RequestedBy   string            `json:"requested_by,omitempty"`
	RequestedAt   *time.Time        `json:"requested_at,omitempty"`
	AuthorizedBy  string            `json:"authorized_by,omitempty"`
	AuthorizedAt  *time.Time        `json:"authorized_at,omitempty"`
	RejectReason  string            `json:"reject_reason,omitempty"`
}

// IsPending reports whether the parameter has a change awaiting authorization
func (p *Parameter) IsPending() bool {
	return p.AuthStatus == AuthStatusPending
}

// Field returns a list-display value for the parameter
func (p *Parameter) Field(name string) string {
	switch name {
	case "id":
		return p.ID
	case "kind":
		return p.Kind
	case "indicator":
		return p.Indicator
	case "description":
		return p.Description
	case "auth_status":
		return p.AuthStatus
	case "requested_by":
		return p.RequestedBy
	case "active":
		if p.Active {
			return FlagOn
		}
		return FlagOff
	}
	if v, ok := p.Values[name]; ok {
		return v
	}
	return ""
}
