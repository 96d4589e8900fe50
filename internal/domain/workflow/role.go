package workflow

import "context"

// Role is a back-office role code as issued by the core API
type Role string

const (
	RoleOprCabang    Role = "estr_opr_cab"
	RoleSpvCabang    Role = "estr_spv_cab"
	RoleOprKepatuhan Role = "estr_opr_kep"
	RoleSpvKepatuhan Role = "estr_spv_kep"
	RoleAdmin        Role = "estr_admin"
)

// IsValid returns true for known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleOprCabang, RoleSpvCabang, RoleOprKepatuhan, RoleSpvKepatuhan, RoleAdmin:
		return true
	}
	return false
}

// IsBranch reports whether the role belongs to the branch (cabang) track
func (r Role) IsBranch() bool {
	return r == RoleOprCabang || r == RoleSpvCabang
}

// IsCompliance reports whether the role belongs to the compliance (kepatuhan) department
func (r Role) IsCompliance() bool {
	return r == RoleOprKepatuhan || r == RoleSpvKepatuhan
}

// CanEditParameters reports whether the role may propose parameter changes
func (r Role) CanEditParameters() bool {
	return r == RoleOprKepatuhan || r == RoleAdmin
}

// CanAuthorizeParameters reports whether the role may approve or reject parameter changes
func (r Role) CanAuthorizeParameters() bool {
	return r == RoleSpvKepatuhan || r == RoleAdmin
}

// CanTriggerJobs reports whether the role may start detection jobs
func (r Role) CanTriggerJobs() bool {
	return r.IsCompliance() || r == RoleAdmin
}

// CanViewJournal reports whether the role may read the action journal
func (r Role) CanViewJournal() bool {
	return r.IsCompliance() || r == RoleAdmin
}

type roleKey struct{}

// WithRole returns a context carrying the acting role, read by transition guards
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFrom returns the acting role stored in ctx
func RoleFrom(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleKey{}).(Role)
	return role, ok
}

// RoleIs builds a guard that passes when the acting role is one of roles
func RoleIs(roles ...Role) GuardFunc {
	return func(ctx context.Context) bool {
		actor, ok := RoleFrom(ctx)
		if !ok {
			return false
		}
		for _, r := range roles {
			if r == actor {
				return true
			}
		}
		return false
	}
}
