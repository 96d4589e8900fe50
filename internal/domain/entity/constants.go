package entity

// Track identifies which review channel a case flows through
type Track string

const (
	TrackManualCabang Track = "MANUAL_CABANG" // branch-originated manual review
	TrackBIFast       Track = "BIFAST"        // BI-Fast transfers, compliance only
)

// ParseTrack maps the URL form of a track ("manual", "bifast") or its constant to a Track
func ParseTrack(s string) (Track, bool) {
	switch s {
	case "manual", "manual-cabang", string(TrackManualCabang):
		return TrackManualCabang, true
	case "bifast", "bi-fast", string(TrackBIFast):
		return TrackBIFast, true
	}
	return "", false
}

// Slug returns the URL form of the track
func (t Track) Slug() string {
	if t == TrackBIFast {
		return "bifast"
	}
	return "manual"
}

// Parameter kinds
const (
	ParameterKindRedFlag         = "RED_FLAG"
	ParameterKindTransactionCode = "TRANSACTION_CODE"
)

// Parameter authorization status
const (
	AuthStatusApproved = "APPROVED"
	AuthStatusPending  = "PENDING"
	AuthStatusRejected = "REJECTED"
)

// Journal subjects
const (
	SubjectCase      = "CASE"
	SubjectParameter = "PARAMETER"
	SubjectJob       = "JOB"
	SubjectExport    = "EXPORT"
)

// Journal outcomes
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailed  = "FAILED"
)

// Toggle values used by ON/OFF parameter fields
const (
	FlagOn  = "ON"
	FlagOff = "OFF"
)
