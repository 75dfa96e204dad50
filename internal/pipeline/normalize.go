package pipeline

import (
	"strings"

	"vaquero/internal"
)

// Upstream sheet columns.
const (
	ColBusinessName = "Name of the Business"
	ColDiscount     = "Discount Amount"
	ColWhoCanRedeem = "Who Can Redeem"
	ColHowToRedeem  = "How to Redeem"
	ColAbout        = "About this Business"
	ColAddress      = "Address"
	ColPhone        = "Phone"
	ColEmail        = "Email address"
	ColWebsite      = "Website/Social Media"
	ColCategory     = "Category"
	ColJoinDate     = "VDP Join Date"
	ColAuthorizedBy = "Authorized by"
	ColContactTitle = "Contact Title/Role"
)

const DefaultProximity = "RGV Area"

type NormalizeResult struct {
	Status       internal.RowStatus
	Reason       string
	LineNo       int
	Record       internal.DiscountRecord
	ClassifiedBy ClassifySource
}

type Normalizer struct {
	classifier *Classifier
}

func NewNormalizer(classifier *Classifier) *Normalizer {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Normalizer{classifier: classifier}
}

// Normalize builds a record without an id; ids belong to the ingestion run.
func (n *Normalizer) Normalize(row internal.RawRow) NormalizeResult {
	name := strings.TrimSpace(row.Get(ColBusinessName))
	if name == "" {
		return NormalizeResult{Status: internal.RowRejected, Reason: "missing business name", LineNo: row.LineNo}
	}

	discount := row.Get(ColDiscount)
	about := row.Get(ColAbout)
	address := row.Get(ColAddress)
	category, by := n.classifier.Resolve(row.Get(ColCategory), name, about)

	record := internal.DiscountRecord{
		BusinessName:    name,
		Category:        category,
		DiscountAmount:  discount,
		WhoCanRedeem:    ParseEligibility(row.Get(ColWhoCanRedeem)),
		HowToRedeem:     row.Get(ColHowToRedeem),
		Description:     about,
		Address:         address,
		Phone:           row.Get(ColPhone),
		Email:           row.Get(ColEmail),
		Website:         row.Get(ColWebsite),
		CampusProximity: CampusProximity(address),
		IsFeatured:      IsFeatured(discount),
		Tags:            CategoryTags(category),
		JoinDate:        row.Get(ColJoinDate),
		AuthorizedBy:    row.Get(ColAuthorizedBy),
		ContactTitle:    row.Get(ColContactTitle),
	}

	return NormalizeResult{Status: internal.RowAccepted, LineNo: row.LineNo, Record: record, ClassifiedBy: by}
}

// CampusProximity expects "Street, City, Zip" and names the city.
func CampusProximity(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return DefaultProximity
	}
	return "Near " + strings.TrimSpace(parts[len(parts)-2])
}

func IsFeatured(discount string) bool {
	return strings.Contains(strings.ToLower(discount), "free") ||
		strings.Contains(discount, "25%") ||
		strings.Contains(discount, "20%")
}

func CategoryTags(category internal.Category) []string {
	tag := category.Tag()
	if tag == "" {
		return []string{}
	}
	return []string{tag}
}
