package governance

// Roles carried in the identity token
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleResident  = "resident"
)

// Identity is the verified caller of a governance operation
type Identity struct {
	UserID   uint
	TenantID uint
	Role     string
}

// CanAdminister reports whether the caller may run administrator actions:
// managing the assembly lifecycle, the agenda and the attendance desk.
func (i Identity) CanAdminister() bool {
	return i.Role == RoleAdmin || i.Role == RoleOrganizer
}

func (i Identity) requireAdmin(action string) error {
	if !i.CanAdminister() {
		return newError(CodeUnauthorized, "role %q may not %s", i.Role, action)
	}
	return nil
}
