package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vaquero/internal"
	"vaquero/internal/util"
)

// ListSeparator joins multi-valued interchange cells.
const ListSeparator = ";"

var InterchangeHeaders = []string{
	"id", "businessName", "category", "discountAmount", "whoCanRedeem",
	"howToRedeem", "description", "address", "phone", "email",
	"website", "campusProximity", "isFeatured", "tags",
	"joinDate", "authorizedBy", "contactTitle",
}

func WriteInterchangeCSV(w io.Writer, records []internal.DiscountRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(InterchangeHeaders); err != nil {
		return err
	}
	for _, r := range records {
		roles := make([]string, 0, len(r.WhoCanRedeem))
		for _, role := range r.WhoCanRedeem {
			roles = append(roles, string(role))
		}
		row := []string{
			strconv.Itoa(r.ID),
			r.BusinessName,
			string(r.Category),
			r.DiscountAmount,
			strings.Join(roles, ListSeparator),
			r.HowToRedeem,
			r.Description,
			r.Address,
			r.Phone,
			r.Email,
			r.Website,
			r.CampusProximity,
			strconv.FormatBool(r.IsFeatured),
			strings.Join(r.Tags, ListSeparator),
			r.JoinDate,
			r.AuthorizedBy,
			r.ContactTitle,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadInterchangeCSV(r io.Reader) ([]internal.DiscountRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read interchange csv: %w", err)
	}
	if len(table) == 0 {
		return []internal.DiscountRecord{}, nil
	}

	index := map[string]int{}
	for i, h := range table[0] {
		index[strings.TrimSpace(h)] = i
	}
	for _, h := range []string{"id", "businessName"} {
		if _, ok := index[h]; !ok {
			return nil, fmt.Errorf("read interchange csv: missing column %s", h)
		}
	}

	out := make([]internal.DiscountRecord, 0, len(table)-1)
	for lineNo, row := range table[1:] {
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		rec, err := recordFromInterchange(cell)
		if err != nil {
			return nil, fmt.Errorf("interchange line %d: %w", lineNo+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func recordFromInterchange(cell func(string) string) (internal.DiscountRecord, error) {
	id, err := strconv.Atoi(strings.TrimSpace(cell("id")))
	if err != nil {
		return internal.DiscountRecord{}, fmt.Errorf("bad id %q", cell("id"))
	}
	category, ok := CanonicalCategory(cell("category"))
	if !ok {
		return internal.DiscountRecord{}, fmt.Errorf("unknown category %q", cell("category"))
	}

	roles := []internal.Role{}
	for _, item := range util.SplitList(cell("whoCanRedeem"), ListSeparator) {
		role, ok := internal.ParseRole(item)
		if !ok {
			return internal.DiscountRecord{}, fmt.Errorf("unknown role %q", item)
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		roles = DefaultEligibility()
	}

	featured := false
	if raw := strings.TrimSpace(cell("isFeatured")); raw != "" {
		featured, err = strconv.ParseBool(raw)
		if err != nil {
			return internal.DiscountRecord{}, fmt.Errorf("bad isFeatured %q", raw)
		}
	}

	return internal.DiscountRecord{
		ID:              id,
		BusinessName:    cell("businessName"),
		Category:        category,
		DiscountAmount:  cell("discountAmount"),
		WhoCanRedeem:    roles,
		HowToRedeem:     cell("howToRedeem"),
		Description:     cell("description"),
		Address:         cell("address"),
		Phone:           cell("phone"),
		Email:           cell("email"),
		Website:         cell("website"),
		CampusProximity: util.FirstNonEmpty(cell("campusProximity"), DefaultProximity),
		IsFeatured:      featured,
		Tags:            util.SplitList(cell("tags"), ListSeparator),
		JoinDate:        cell("joinDate"),
		AuthorizedBy:    cell("authorizedBy"),
		ContactTitle:    cell("contactTitle"),
	}, nil
}

// WriteDistributedJSON writes the document the listing loads.
func WriteDistributedJSON(w io.Writer, records []internal.DiscountRecord) error {
	if records == nil {
		records = []internal.DiscountRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func ReadDistributedJSON(r io.Reader) ([]internal.DiscountRecord, error) {
	var records []internal.DiscountRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("read distributed json: %w", err)
	}
	return records, nil
}

// ReadRecordsFile loads records from a distributed JSON file when path ends in
// .json, from an interchange CSV otherwise.
func ReadRecordsFile(path string) ([]internal.DiscountRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadDistributedJSON(f)
	}
	return ReadInterchangeCSV(f)
}

// WriteFileAtomic renders into a temp file next to path and renames it into
// place. On error the previous file at path is untouched.
func WriteFileAtomic(path string, render func(io.Writer) error) error {
	staged, err := StageFiles([]Artifact{{Path: path, Render: render}})
	if err != nil {
		return err
	}
	defer staged.Discard()
	return staged.Commit()
}

// Artifact is one output file and the function that renders its content.
type Artifact struct {
	Path   string
	Render func(io.Writer) error
}

// StagedFiles holds rendered temp files waiting to be renamed into place.
type StagedFiles struct {
	paths []string
	temps []string
}

// StageFiles renders every artifact to a temp file next to its target. If any
// render fails, all temp files are removed and no target is touched.
func StageFiles(artifacts []Artifact) (*StagedFiles, error) {
	staged := &StagedFiles{}
	for _, a := range artifacts {
		tmpName, err := renderTemp(a)
		if err != nil {
			staged.Discard()
			return nil, err
		}
		staged.paths = append(staged.paths, a.Path)
		staged.temps = append(staged.temps, tmpName)
	}
	return staged, nil
}

func renderTemp(a Artifact) (string, error) {
	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+".tmp-*")
	if err != nil {
		return "", err
	}
	if err := a.Render(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Commit renames the staged files into place in order.
func (s *StagedFiles) Commit() error {
	for i, tmpName := range s.temps {
		if err := os.Rename(tmpName, s.paths[i]); err != nil {
			return fmt.Errorf("commit %s: %w", s.paths[i], err)
		}
		s.temps[i] = ""
	}
	return nil
}

// Discard removes temp files that were not committed. Safe after Commit.
func (s *StagedFiles) Discard() {
	for i, tmpName := range s.temps {
		if tmpName != "" {
			_ = os.Remove(tmpName)
			s.temps[i] = ""
		}
	}
}
