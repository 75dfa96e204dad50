package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"vaquero/internal"
)

// KeywordRule assigns Category when any keyword is a substring of the
// lowercased name and description.
type KeywordRule struct {
	Category internal.Category
	Keywords []string
}

// NameRule pins a business name (trimmed, case-insensitive) to a category.
type NameRule struct {
	Name     string
	Category internal.Category
}

// Rules are evaluated top to bottom and keywords overlap across rules, so the
// order is the tie-break. Keep it stable: re-ingesting the same sheet must
// classify identically. Keywords match as substrings, so short words that
// hide inside common retail text (park, hair, tax, auto, event) only appear
// as longer phrases.
var defaultKeywordRules = []KeywordRule{
	{Category: internal.CategoryEatDrink, Keywords: []string{
		"restaurant", "taco", "taqueria", "grill", "pizza", "burger", "cafe", "café", "coffee",
		"bakery", "food", "fine dining", "eatery", "bbq", "barbecue", "wings", "sushi",
		"boba", "smoothie", "juice", "donut", "snack", "dessert", "ice cream", "brew", "drink",
		"diner", "bistro", "catering",
	}},
	{Category: internal.CategoryHealthBeauty, Keywords: []string{
		"salon", "nail spa", "manicure", "pedicure", "haircut", "hair stylist", "hair studio",
		"barber", "beauty", "massage", "eyelash", "eyebrow", "waxing", "skin care", "dentist",
		"dental care", "optical", "optometr", "eye care", "chiropract", "clinic", "pharmacy",
		"fitness", "gym", "yoga", "pilates", "wellness", "nutrition", "med spa", "day spa",
	}},
	{Category: internal.CategoryFunEvents, Keywords: []string{
		"entertainment", "cinema", "movie", "theater", "theatre", "bowling", "arcade",
		"escape room", "trampoline", "golf", "events venue", "event venue", "event tickets",
		"concert", "museum", "zoo", "theme park", "water park", "amusement park",
		"party venue", "birthday party", "laser tag", "karaoke", "video game", "board game",
	}},
	{Category: internal.CategoryAutoTech, Keywords: []string{
		"auto repair", "auto parts", "auto body", "automotive", "tires", "oil change", "car wash",
		"mechanic", "collision", "detailing", "motorcycle", "vehicle", "phone repair",
		"screen repair", "computer", "laptop", "electronic", "technology", "tech support",
		"wireless", "cellular",
	}},
	{Category: internal.CategoryServices, Keywords: []string{
		"travel", "hotel", "airline", "guided tour", "tour company", "insurance", "tax prep",
		"tax service", "tax return", "accounting", "legal", "attorney", "bank", "credit union",
		"cleaning", "laundry", "dry clean", "storage", "moving", "printing", "photography",
		"tutoring", "rental", "realty", "real estate", "home services", "lawn service",
	}},
	{Category: internal.CategoryShop, Keywords: []string{
		"shop", "store", "boutique", "retail", "clothing", "apparel", "fashion", "shoes",
		"dresses", "formal wear", "jewelry", "gift", "florist", "flower", "books", "furniture",
		"outlet", "market",
	}},
}

// categoryAliases covers the sheet's long labels and the legacy labels.
var categoryAliases = map[string]internal.Category{
	"eat & drink (food & dining)":  internal.CategoryEatDrink,
	"food & dining":                internal.CategoryEatDrink,
	"dining":                       internal.CategoryEatDrink,
	"food":                         internal.CategoryEatDrink,
	"shop (retail)":                internal.CategoryShop,
	"retail":                       internal.CategoryShop,
	"fashion":                      internal.CategoryShop,
	"fun & events (entertainment)": internal.CategoryFunEvents,
	"entertainment":                internal.CategoryFunEvents,
	"automotive":                   internal.CategoryAutoTech,
	"electronics":                  internal.CategoryAutoTech,
	"services":                     internal.CategoryServices,
	"travel":                       internal.CategoryServices,
	"other":                        internal.CategoryOther,
}

type ClassifySource string

const (
	ClassifiedByHint    ClassifySource = "HINT"
	ClassifiedByName    ClassifySource = "NAME"
	ClassifiedByKeyword ClassifySource = "KEYWORD"
	ClassifiedByDefault ClassifySource = "DEFAULT"
)

type Classifier struct {
	names    []NameRule
	keywords []KeywordRule
}

func NewClassifier(names []NameRule) *Classifier {
	return &Classifier{names: names, keywords: defaultKeywordRules}
}

func (c *Classifier) Classify(hint, name, description string) internal.Category {
	category, _ := c.Resolve(hint, name, description)
	return category
}

// Resolve returns the category and which step decided it.
func (c *Classifier) Resolve(hint, name, description string) (internal.Category, ClassifySource) {
	if category, ok := CanonicalCategory(hint); ok {
		return category, ClassifiedByHint
	}

	key := strings.ToLower(strings.TrimSpace(name))
	if key != "" {
		for _, rule := range c.names {
			if strings.ToLower(strings.TrimSpace(rule.Name)) == key {
				return rule.Category, ClassifiedByName
			}
		}
	}

	text := strings.ToLower(name + " " + description)
	for _, rule := range c.keywords {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Category, ClassifiedByKeyword
			}
		}
	}

	return internal.CategoryOther, ClassifiedByDefault
}

// CanonicalCategory maps a category label or known alias to the closed set.
func CanonicalCategory(label string) (internal.Category, bool) {
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return "", false
	}
	for _, known := range internal.Categories {
		if strings.EqualFold(label, string(known)) {
			return known, true
		}
	}
	category, ok := categoryAliases[strings.ToLower(label)]
	return category, ok
}

// LoadNameRules reads a businessName,category CSV. A header row is skipped
// when its second cell is not a known category.
func LoadNameRules(path string) ([]NameRule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadNameRules(f)
}

func ReadNameRules(r io.Reader) ([]NameRule, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read category overrides: %w", err)
	}

	out := make([]NameRule, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		category, ok := CanonicalCategory(rec[1])
		if !ok {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("category overrides line %d: unknown category %q", i+1, rec[1])
		}
		out = append(out, NameRule{Name: strings.TrimSpace(rec[0]), Category: category})
	}
	return out, nil
}
