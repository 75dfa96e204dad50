package pipeline

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"vaquero/internal"
)

func TestClassifierResolve(t *testing.T) {
	c := NewClassifier([]NameRule{{Name: "H-E-B", Category: internal.CategoryShop}})

	cases := []struct {
		name     string
		hint     string
		business string
		desc     string
		want     internal.Category
		by       ClassifySource
	}{
		{"canonical hint", "Health & Beauty", "Joe's Tacos", "", internal.CategoryHealthBeauty, ClassifiedByHint},
		{"hint case and spacing", "  auto   &  tech ", "x", "", internal.CategoryAutoTech, ClassifiedByHint},
		{"long sheet label", "Eat & Drink (Food & Dining)", "x", "", internal.CategoryEatDrink, ClassifiedByHint},
		{"legacy label", "Electronics", "x", "", internal.CategoryAutoTech, ClassifiedByHint},
		{"unknown hint falls through", "Misc", "Joe's Tacos & Grill", "", internal.CategoryEatDrink, ClassifiedByKeyword},
		{"name rule", "", "  h-e-b ", "groceries", internal.CategoryShop, ClassifiedByName},
		{"keyword in description", "", "Sunrise", "Best coffee in town", internal.CategoryEatDrink, ClassifiedByKeyword},
		{"overlap resolved by order", "", "Green Smoothie Bar", "", internal.CategoryEatDrink, ClassifiedByKeyword},
		{"repair goes to auto and tech", "", "Valley Phone Repair", "", internal.CategoryAutoTech, ClassifiedByKeyword},
		{"services", "", "RGV Tax Prep", "", internal.CategoryServices, ClassifiedByKeyword},
		{"shop", "", "Palm Boutique", "", internal.CategoryShop, ClassifiedByKeyword},
		{"default", "", "Acme", "", internal.CategoryOther, ClassifiedByDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, by := c.Resolve(tc.hint, tc.business, tc.desc)
			if got != tc.want || by != tc.by {
				t.Fatalf("got %s/%s want %s/%s", got, by, tc.want, tc.by)
			}
		})
	}
}

func TestClassifierKeywordFalsePositives(t *testing.T) {
	c := NewClassifier(nil)

	cases := []struct {
		business string
		desc     string
		want     internal.Category
	}{
		{"Bella Moda", "Women's clothing store with free parking", internal.CategoryShop},
		{"Casa Muebles", "furniture store, tax-free weekend deals", internal.CategoryShop},
		{"Lone Star Seating", "Office chairs and recliners", internal.CategoryOther},
		{"Ortiz Jewelers", "Custom jewelry and watch repair", internal.CategoryShop},
		{"Gala Gowns", "Dresses for prom and every special event", internal.CategoryShop},
		{"SnapBox", "Automatic photo kiosks and printing", internal.CategoryServices},
		{"Palmview Theme Park", "", internal.CategoryFunEvents},
		{"Rio Auto Repair", "", internal.CategoryAutoTech},
	}
	for _, tc := range cases {
		t.Run(tc.business, func(t *testing.T) {
			got, by := c.Resolve("", tc.business, tc.desc)
			if got != tc.want {
				t.Fatalf("got %s (%s) want %s", got, by, tc.want)
			}
		})
	}
}

func TestKeywordsBelongToOneRule(t *testing.T) {
	seen := map[string]internal.Category{}
	for _, rule := range defaultKeywordRules {
		for _, kw := range rule.Keywords {
			if prev, ok := seen[kw]; ok {
				t.Fatalf("%q in both %s and %s", kw, prev, rule.Category)
			}
			seen[kw] = rule.Category
		}
	}
}

func TestCanonicalCategory(t *testing.T) {
	for _, category := range internal.Categories {
		got, ok := CanonicalCategory(strings.ToUpper(string(category)))
		if !ok || got != category {
			t.Fatalf("%s: got %s ok=%v", category, got, ok)
		}
	}
	if _, ok := CanonicalCategory(""); ok {
		t.Fatal("empty label should not resolve")
	}
	if _, ok := CanonicalCategory("Groceries"); ok {
		t.Fatal("unknown label should not resolve")
	}
}

func TestReadNameRules(t *testing.T) {
	input := "businessName,category\nH-E-B,Shop\nRio Cinema,Fun & Events (Entertainment)\n,Shop\n"
	rules, err := ReadNameRules(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 {
		t.Fatalf("len=%d", len(rules))
	}
	if rules[1].Category != internal.CategoryFunEvents {
		t.Fatalf("category=%s", rules[1].Category)
	}

	if _, err := ReadNameRules(strings.NewReader("H-E-B,Shop\nOops,Groceries\n")); err == nil {
		t.Fatal("expected unknown category error")
	}
}

func TestLoadNameRulesEmptyPath(t *testing.T) {
	rules, err := LoadNameRules("")
	if err != nil || rules != nil {
		t.Fatalf("rules=%v err=%v", rules, err)
	}
}

func TestClassifierProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	c := NewClassifier(nil)

	properties.Property("classification is deterministic and closed", prop.ForAll(
		func(hint, name, desc string) bool {
			first := c.Classify(hint, name, desc)
			second := c.Classify(hint, name, desc)
			return first == second && first.Valid()
		},
		gen.OneConstOf("", "Shop", "Dining", "nonsense", "Other"),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("eligibility is deterministic and never empty", prop.ForAll(
		func(text string) bool {
			first := ParseEligibility(text)
			second := ParseEligibility(text)
			if len(first) == 0 || len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i] != second[i] {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
