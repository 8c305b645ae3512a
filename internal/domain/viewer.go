package domain

import "strings"

// Role tags issued by the identity provider.
const (
	RoleAdmin          = "admin"
	RoleManager        = "manager"
	RoleSales          = "sales"
	RoleAccountManager = "account_manager"
	RolePartnerManager = "partner_manager"
	RoleMember         = "member"
	RoleViewer         = "viewer"
)

// Visibility is the access tier a role grants.
type Visibility int

const (
	// VisibilityRestricted sees owned entities only and gets no partner onboarding alerts.
	VisibilityRestricted Visibility = iota
	// VisibilityStandard sees owned or assigned entities.
	VisibilityStandard
	// VisibilityElevated sees every entity.
	VisibilityElevated
)

func (v Visibility) String() string {
	switch v {
	case VisibilityElevated:
		return "elevated"
	case VisibilityStandard:
		return "standard"
	default:
		return "restricted"
	}
}

// Viewer is the acting user a notification set is computed for.
type Viewer struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// NormalizeRole folds a role claim to the lowercase form the Role constants use.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// Visibility maps the viewer's role tag to its access tier. Unknown roles are restricted.
func (v Viewer) Visibility() Visibility {
	switch NormalizeRole(v.Role) {
	case RoleAdmin, RoleManager:
		return VisibilityElevated
	case RoleSales, RoleAccountManager, RolePartnerManager, RoleMember:
		return VisibilityStandard
	default:
		return VisibilityRestricted
	}
}

// IsElevated reports whether the viewer sees all entities regardless of ownership.
func (v Viewer) IsElevated() bool {
	return v.Visibility() == VisibilityElevated
}

// IsRestricted reports whether the viewer is on the lowest access tier.
func (v Viewer) IsRestricted() bool {
	return v.Visibility() == VisibilityRestricted
}
