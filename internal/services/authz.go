package services

import (
	"encoding/json"
	"sort"

	"seatdesk/internal/models"
)

type Permission string

const (
	PermViewDashboard   Permission = "view_dashboard"
	PermManageStudents  Permission = "manage_students"
	PermManageSchedules Permission = "manage_schedules"
	PermManageSeats     Permission = "manage_seats"
)

var knownPermissions = []Permission{PermViewDashboard, PermManageStudents, PermManageSchedules, PermManageSeats}

// DefaultStaffPermissions is granted to staff accounts created without an
// explicit list.
var DefaultStaffPermissions = []Permission{PermViewDashboard, PermManageStudents, PermManageSchedules}

func IsKnownPermission(raw string) bool {
	for _, p := range knownPermissions {
		if string(p) == raw {
			return true
		}
	}
	return false
}

type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...string) PermissionSet {
	set := PermissionSet{}
	for _, p := range perms {
		set[Permission(p)] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// Grant is what a principal is allowed to do. It is either AdminGrant or
// StaffGrant.
type Grant interface {
	role() string
}

type AdminGrant struct{}

type StaffGrant struct {
	Permissions PermissionSet
}

func (AdminGrant) role() string { return models.RoleAdmin }
func (StaffGrant) role() string { return models.RoleStaff }

// Principal is the authenticated caller carried in the request context.
type Principal struct {
	UserID   string
	Username string
	Grant    Grant
}

func PrincipalFor(user models.User) Principal {
	p := Principal{UserID: user.ID, Username: user.Username}
	switch user.Role {
	case models.RoleAdmin:
		p.Grant = AdminGrant{}
	case models.RoleStaff:
		p.Grant = StaffGrant{Permissions: NewPermissionSet(user.Permissions...)}
	}
	return p
}

func (p Principal) Role() string {
	if p.Grant == nil {
		return ""
	}
	return p.Grant.role()
}

func (p Principal) IsAdmin() bool {
	_, ok := p.Grant.(AdminGrant)
	return ok
}

type principalJSON struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (p Principal) MarshalJSON() ([]byte, error) {
	out := principalJSON{ID: p.UserID, Username: p.Username, Role: p.Role(), Permissions: []string{}}
	if staff, ok := p.Grant.(StaffGrant); ok {
		out.Permissions = staff.Permissions.Strings()
	}
	return json.Marshal(out)
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	var in principalJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = PrincipalFor(models.User{ID: in.ID, Username: in.Username, Role: in.Role, Permissions: in.Permissions})
	return nil
}

var (
	errNoPrincipal       = ErrUnauthorized("Unauthorized")
	errMissingPermission = ErrForbidden("Forbidden")
	errNotAdminOrStaff   = ErrForbidden("Forbidden: Admin or Staff access required")
	errNotAdmin          = ErrForbidden("Forbidden: Admin access required")
)

// Authorize allows admins unconditionally and staff holding perm.
func Authorize(p *Principal, perm Permission) error {
	if p == nil {
		return errNoPrincipal
	}
	switch g := p.Grant.(type) {
	case AdminGrant:
		return nil
	case StaffGrant:
		if g.Permissions.Has(perm) {
			return nil
		}
	}
	return errMissingPermission
}

// AuthorizeAdminOrStaff ignores fine-grained permissions.
func AuthorizeAdminOrStaff(p *Principal) error {
	if p == nil {
		return errNoPrincipal
	}
	switch p.Grant.(type) {
	case AdminGrant, StaffGrant:
		return nil
	}
	return errNotAdminOrStaff
}

func AuthorizeAdmin(p *Principal) error {
	if p == nil {
		return errNoPrincipal
	}
	if p.IsAdmin() {
		return nil
	}
	return errNotAdmin
}
