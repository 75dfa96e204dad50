package pipeline

import (
	"reflect"
	"testing"

	"vaquero/internal"
)

func TestParseEligibility(t *testing.T) {
	cases := []struct {
		text string
		want []internal.Role
	}{
		{"", []internal.Role{internal.RoleStudents, internal.RoleFaculty, internal.RoleStaff}},
		{"Everyone!", []internal.Role{internal.RoleStudents, internal.RoleFaculty, internal.RoleStaff}},
		{"students and staff", []internal.Role{internal.RoleStudents, internal.RoleStaff}},
		{"ALUMNI, Students", []internal.Role{internal.RoleStudents, internal.RoleAlumni}},
		{"Faculty/Staff only", []internal.Role{internal.RoleFaculty, internal.RoleStaff}},
		{"Student, Faculty, Staff, Alumni", []internal.Role{internal.RoleStudents, internal.RoleFaculty, internal.RoleStaff, internal.RoleAlumni}},
	}
	for _, tc := range cases {
		if got := ParseEligibility(tc.text); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%q: got %v want %v", tc.text, got, tc.want)
		}
	}
}

func TestDefaultEligibilityIsFresh(t *testing.T) {
	a := DefaultEligibility()
	a[0] = internal.RoleAlumni
	if DefaultEligibility()[0] != internal.RoleStudents {
		t.Fatal("default eligibility shared backing array")
	}
}
