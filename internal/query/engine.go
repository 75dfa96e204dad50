package query

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"vaquero/internal"
)

// FeaturedLimit caps the featured partition.
const FeaturedLimit = 3

type View struct {
	Results      []internal.DiscountRecord `json:"results"`
	Featured     []internal.DiscountRecord `json:"featured"`
	ShowFeatured bool                      `json:"showFeatured"`
	Count        int                       `json:"count"`
}

// Matches applies search, category and eligibility filters together.
// Selected roles are alternatives: any overlap with whoCanRedeem matches.
func Matches(rec internal.DiscountRecord, state FilterState) bool {
	if state.Search != "" {
		haystack := strings.ToLower(rec.BusinessName + " " + rec.Description + " " + strings.Join(rec.Tags, " "))
		if !strings.Contains(haystack, strings.ToLower(state.Search)) {
			return false
		}
	}
	if state.Category != "" && rec.Category != state.Category {
		return false
	}
	if len(state.Eligibility) > 0 {
		for _, role := range state.Eligibility {
			if rec.CanRedeem(role) {
				return true
			}
		}
		return false
	}
	return true
}

// Run computes the view for records under state. records is not modified.
func Run(records []internal.DiscountRecord, state FilterState) View {
	filtered := make([]internal.DiscountRecord, 0, len(records))
	for _, rec := range records {
		if Matches(rec, state) {
			filtered = append(filtered, rec)
		}
	}
	SortByName(filtered)

	// Any active filter suppresses the featured partition entirely.
	featured := make([]internal.DiscountRecord, 0, FeaturedLimit)
	if state.IsDefault() {
		for _, rec := range filtered {
			if len(featured) == FeaturedLimit {
				break
			}
			if rec.IsFeatured {
				featured = append(featured, rec)
			}
		}
	}

	return View{
		Results:      filtered,
		Featured:     featured,
		ShowFeatured: len(featured) > 0,
		Count:        len(filtered),
	}
}

// SortByName orders records by business name with English collation. Equal
// names keep their relative order.
func SortByName(records []internal.DiscountRecord) {
	c := collate.New(language.English)
	sort.SliceStable(records, func(i, j int) bool {
		return c.CompareString(records[i].BusinessName, records[j].BusinessName) < 0
	})
}
