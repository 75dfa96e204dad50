package query

import (
	"encoding/json"
	"strings"

	"vaquero/internal"
	"vaquero/internal/pipeline"
)

// FilterState is the user's current selection. Category "" means no
// category is selected; Eligibility is kept in canonical role order.
type FilterState struct {
	Search      string
	Category    internal.Category
	Eligibility []internal.Role
}

func (s FilterState) IsDefault() bool {
	return s.Search == "" && s.Category == "" && len(s.Eligibility) == 0
}

func (s FilterState) HasRole(role internal.Role) bool {
	for _, r := range s.Eligibility {
		if r == role {
			return true
		}
	}
	return false
}

func (s FilterState) SetSearch(text string) FilterState {
	s.Search = text
	return s
}

// ToggleCategory selects category, or clears the selection when category is
// already selected.
func (s FilterState) ToggleCategory(category internal.Category) FilterState {
	if s.Category == category {
		s.Category = ""
	} else {
		s.Category = category
	}
	return s
}

func (s FilterState) ToggleRole(role internal.Role) FilterState {
	selected := make(map[internal.Role]bool, len(s.Eligibility)+1)
	for _, r := range s.Eligibility {
		selected[r] = true
	}
	selected[role] = !selected[role]
	s.Eligibility = canonicalRoles(selected)
	return s
}

func (s FilterState) Clear() FilterState {
	return FilterState{}
}

func canonicalRoles(selected map[internal.Role]bool) []internal.Role {
	var out []internal.Role
	for _, r := range internal.Roles {
		if selected[r] {
			out = append(out, r)
		}
	}
	return out
}

type persistedState struct {
	Search      string   `json:"search"`
	Category    *string  `json:"category"`
	Eligibility []string `json:"eligibility"`
}

func (s FilterState) MarshalJSON() ([]byte, error) {
	doc := persistedState{Search: s.Search, Eligibility: []string{}}
	if s.Category != "" {
		c := string(s.Category)
		doc.Category = &c
	}
	for _, r := range s.Eligibility {
		doc.Eligibility = append(doc.Eligibility, string(r))
	}
	return json.Marshal(doc)
}

type RestoreOutcome string

const (
	StateRestored RestoreOutcome = "RESTORED"
	StateEmpty    RestoreOutcome = "EMPTY"
	StateFallback RestoreOutcome = "FALLBACK"
)

// Restore decodes a persisted state document. Absent input gives StateEmpty,
// malformed input gives StateFallback; both return the default state. Long and
// legacy category labels are canonicalized. Unknown categories and roles
// inside a valid document are dropped.
func Restore(raw []byte) (FilterState, RestoreOutcome) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return FilterState{}, StateEmpty
	}

	var doc *persistedState
	if err := json.Unmarshal(raw, &doc); err != nil {
		return FilterState{}, StateFallback
	}
	if doc == nil {
		return FilterState{}, StateEmpty
	}

	state := FilterState{Search: doc.Search}
	if doc.Category != nil {
		if c, ok := pipeline.CanonicalCategory(*doc.Category); ok {
			state.Category = c
		}
	}
	selected := map[internal.Role]bool{}
	for _, value := range doc.Eligibility {
		if role, ok := internal.ParseRole(value); ok {
			selected[role] = true
		}
	}
	state.Eligibility = canonicalRoles(selected)
	return state, StateRestored
}
