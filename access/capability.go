// Package access resolves what a caller may do. Every reviewer-identity or
// ownership check in the service goes through Can; nothing compares employee
// ids against a hard-coded administrator.
package access

import "github.com/warp/workhours/generic"

type Capability string

const (
	SubmitOvertime  Capability = "overtime.submit"
	ReviewOvertime  Capability = "overtime.review"
	ViewAllRequests Capability = "overtime.read_all"
	ManageEmployees Capability = "employees.write"
	ViewEmployees   Capability = "employees.read"
	RecordAnyTime   Capability = "time.record_any"
)

var roleCapabilities = map[generic.Role][]Capability{
	generic.RoleEmployee: {
		SubmitOvertime,
	},
	generic.RoleSupervisor: {
		SubmitOvertime,
		ReviewOvertime,
		ViewAllRequests,
		ViewEmployees,
	},
	generic.RoleAdmin: {
		SubmitOvertime,
		ReviewOvertime,
		ViewAllRequests,
		ViewEmployees,
		ManageEmployees,
		RecordAnyTime,
	},
}

// Principal is the authenticated caller.
type Principal struct {
	EmployeeID generic.EmployeeID
	Role       generic.Role
}

// System is the principal used by trusted in-process callers (seeding, CLI).
var System = Principal{EmployeeID: "system", Role: generic.RoleAdmin}

// Resolve returns the capabilities granted to a role. Unknown roles get none.
func Resolve(role generic.Role) []Capability {
	caps := roleCapabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// Can reports whether p holds capability c.
func Can(p Principal, c Capability) bool {
	for _, granted := range roleCapabilities[p.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

// CanActFor reports whether p may act on employee's own records: either it is
// the employee or it holds the capability that covers everyone.
func CanActFor(p Principal, employee generic.EmployeeID, c Capability) bool {
	return p.EmployeeID == employee || Can(p, c)
}
