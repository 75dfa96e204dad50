package pipeline

import (
	"strings"

	"vaquero/internal"
)

var eligibilityTokens = []struct {
	token string
	role  internal.Role
}{
	{"student", internal.RoleStudents},
	{"faculty", internal.RoleFaculty},
	{"staff", internal.RoleStaff},
	{"alumni", internal.RoleAlumni},
}

// DefaultEligibility applies when the redeem text names no role.
func DefaultEligibility() []internal.Role {
	return []internal.Role{internal.RoleStudents, internal.RoleFaculty, internal.RoleStaff}
}

// ParseEligibility detects roles in free text. The result is never empty and
// always in Students, Faculty, Staff, Alumni order.
func ParseEligibility(text string) []internal.Role {
	lower := strings.ToLower(text)
	roles := make([]internal.Role, 0, len(eligibilityTokens))
	for _, t := range eligibilityTokens {
		if strings.Contains(lower, t.token) {
			roles = append(roles, t.role)
		}
	}
	if len(roles) == 0 {
		return DefaultEligibility()
	}
	return roles
}
