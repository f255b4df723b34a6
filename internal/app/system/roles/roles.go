// Package roles defines the staff role vocabulary and the role groupings the
// visibility rules are built on.
package roles

// Role names as they appear on user records and in session principals.
const (
	SystemAdministrator     = "System Administrator"
	NetworkAdministrator    = "Network Administrator"
	SeniorFieldEngineer     = "Senior Field Engineer"
	FieldEngineer           = "Field Engineer"
	NetworkEngineerFieldOps = "Network Engineer (Field Operations)"
)

// All lists every valid role.
var All = []string{
	SystemAdministrator,
	NetworkAdministrator,
	SeniorFieldEngineer,
	FieldEngineer,
	NetworkEngineerFieldOps,
}

// Valid reports whether r is a known role.
func Valid(r string) bool {
	for _, v := range All {
		if r == v {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the role sees and manages everything.
func IsAdmin(r string) bool {
	return r == SystemAdministrator || r == NetworkAdministrator
}

// IsSupervisor reports whether the role can claim, be assigned, and approve
// movements.
func IsSupervisor(r string) bool {
	return r == SeniorFieldEngineer || r == NetworkEngineerFieldOps
}
