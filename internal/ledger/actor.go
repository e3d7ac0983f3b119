package ledger

import "github.com/erazemk/labstock/internal/model"

// Actor is the authenticated principal an operation runs for.
type Actor struct {
	UserID int64
	Role   string
	LabID  int64
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// IsLab reports whether the actor is bound to a lab.
func (a Actor) IsLab() bool { return a.Role == model.RoleLab && a.LabID > 0 }

// scopeLab returns the lab filter for a read: lab actors always see their
// own lab, admins get the requested filter.
func (a Actor) scopeLab(requested int64) int64 {
	if a.IsAdmin() {
		return requested
	}
	return a.LabID
}

// canAccess reports whether the actor may touch records of labID.
func (a Actor) canAccess(labID int64) bool {
	return a.IsAdmin() || (a.IsLab() && a.LabID == labID)
}

func (a Actor) userRef() *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func requireMember(a Actor) error {
	if !a.IsAdmin() && !a.IsLab() {
		return ErrForbidden
	}
	return nil
}
