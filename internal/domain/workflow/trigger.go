package workflow

// Trigger is a reviewer action that moves a case between statuses
type Trigger string

const (
	TriggerSubmit     Trigger = "SUBMIT"
	TriggerApprove    Trigger = "APPROVE"
	TriggerReject     Trigger = "REJECT"
	TriggerClose      Trigger = "CLOSE"
	TriggerReactivate Trigger = "REACTIVATE"
)

var irreversibleTriggers = map[Trigger]bool{
	TriggerApprove:    true,
	TriggerReject:     true,
	TriggerClose:      true,
	TriggerReactivate: true,
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true if the trigger is a known action
func (t Trigger) IsValid() bool {
	return t == TriggerSubmit || irreversibleTriggers[t]
}

// RequiresConfirmation reports whether the action must be explicitly confirmed
func (t Trigger) RequiresConfirmation() bool {
	return irreversibleTriggers[t]
}
