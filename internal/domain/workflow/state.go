package workflow

// State is a case status code as stored by the core API
type State string

const (
	StateInputOprCabang       State = "1"
	StateApprovalSpvCabang    State = "2"
	StateReviewOprKepatuhan   State = "3"
	StateApprovalSpvKepatuhan State = "4"
	StateReportedSTR          State = "5"
	StateClosedNonSTR         State = "6"
	StateRejectedSpvCabang    State = "9"
	StateInactive             State = "999"
)

var stateDescriptions = map[State]string{
	StateInputOprCabang:       "Input Operator Cabang",
	StateApprovalSpvCabang:    "Persetujuan Supervisor Cabang",
	StateReviewOprKepatuhan:   "Review Operator Kepatuhan",
	StateApprovalSpvKepatuhan: "Persetujuan Supervisor Kepatuhan",
	StateReportedSTR:          "Dilaporkan STR",
	StateClosedNonSTR:         "Bukan STR",
	StateRejectedSpvCabang:    "Ditolak Supervisor Cabang",
	StateInactive:             "Ditolak / Tidak Aktif",
}

var terminalStates = map[State]bool{
	StateReportedSTR:  true,
	StateClosedNonSTR: true,
}

// IsTerminal returns true if no further transitions are possible
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the status code
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the code is a known status
func (s State) IsValid() bool {
	_, ok := stateDescriptions[s]
	return ok
}

// Description returns the human-readable status text shown to users
func (s State) Description() string {
	if d, ok := stateDescriptions[s]; ok {
		return d
	}
	return "Status " + string(s)
}

// StateFromDescription resolves a status description back to its code.
// Older records sometimes carry only the description.
func StateFromDescription(desc string) (State, bool) {
	for s, d := range stateDescriptions {
		if d == desc {
			return s, true
		}
	}
	return "", false
}
