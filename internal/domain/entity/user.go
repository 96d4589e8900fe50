package entity

// Profile is the signed-in back-office user as returned by the core API
type Profile struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	BranchCode string `json:"branch_code"`
	Role       string `json:"role"`
}
