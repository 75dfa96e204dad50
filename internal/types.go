package internal

import "strings"

type Category string

const (
	CategoryEatDrink     Category = "Eat & Drink"
	CategoryShop         Category = "Shop"
	CategoryHealthBeauty Category = "Health & Beauty"
	CategoryFunEvents    Category = "Fun & Events"
	CategoryAutoTech     Category = "Auto & Tech"
	CategoryServices     Category = "Services & Travel"
	CategoryOther        Category = "Other"
)

// Categories lists the closed category set in display order.
var Categories = []Category{
	CategoryEatDrink,
	CategoryShop,
	CategoryHealthBeauty,
	CategoryFunEvents,
	CategoryAutoTech,
	CategoryServices,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Tag is the first word of the label, lowercased.
func (c Category) Tag() string {
	fields := strings.Fields(string(c))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

type Role string

const (
	RoleStudents Role = "Students"
	RoleFaculty  Role = "Faculty"
	RoleStaff    Role = "Staff"
	RoleAlumni   Role = "Alumni"
)

var Roles = []Role{RoleStudents, RoleFaculty, RoleStaff, RoleAlumni}

func ParseRole(value string) (Role, bool) {
	value = strings.TrimSpace(value)
	for _, r := range Roles {
		if strings.EqualFold(value, string(r)) {
			return r, true
		}
	}
	return "", false
}

type DiscountRecord struct {
	ID              int      `json:"id,string"`
	BusinessName    string   `json:"businessName"`
	Category        Category `json:"category"`
	DiscountAmount  string   `json:"discountAmount"`
	WhoCanRedeem    []Role   `json:"whoCanRedeem"`
	HowToRedeem     string   `json:"howToRedeem"`
	Description     string   `json:"description"`
	Address         string   `json:"address"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email"`
	Website         string   `json:"website"`
	CampusProximity string   `json:"campusProximity"`
	IsFeatured      bool     `json:"isFeatured"`
	Tags            []string `json:"tags"`
	JoinDate        string   `json:"joinDate"`
	AuthorizedBy    string   `json:"authorizedBy"`
	ContactTitle    string   `json:"contactTitle"`
}

func (r DiscountRecord) CanRedeem(role Role) bool {
	for _, have := range r.WhoCanRedeem {
		if have == role {
			return true
		}
	}
	return false
}

// RawRow is one upstream spreadsheet row keyed by normalized column header.
type RawRow struct {
	LineNo int
	Cells  map[string]string
}

func (r RawRow) Get(header string) string {
	if r.Cells == nil {
		return ""
	}
	return r.Cells[HeaderKey(header)]
}

// HeaderKey folds a column header for lookup: lowercased, inner whitespace collapsed.
func HeaderKey(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

type RowStatus string

const (
	RowAccepted RowStatus = "ACCEPTED"
	RowRejected RowStatus = "REJECTED"
)

type IngestRun struct {
	TraceID    string
	Source     string
	Accepted   int
	Rejected   int
	DurationMs int64
	CreatedAt  string
}
