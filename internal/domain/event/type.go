package event

// Type identifies the type of domain event
type Type string

const (
	TypeCaseTransitioned    Type = "case.transitioned"
	TypeParameterSaved      Type = "parameter.saved"
	TypeParameterAuthorized Type = "parameter.authorized"
	TypeJobTriggered        Type = "job.triggered"
	TypeJobProgress         Type = "job.progress"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeCaseTransitioned,
		TypeParameterSaved,
		TypeParameterAuthorized,
		TypeJobTriggered,
		TypeJobProgress:
		return true
	default:
		return false
	}
}
