package golden

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"uninames/internal/normalize"
	"uninames/internal/tabular"
)

// reviewedSheet is where the pipeline writes person rows; learn prefers it
// but falls back to the first sheet for hand-edited files.
const reviewedSheet = "Doctors"

// UpdateFromReview merges a reviewed output file into the base golden
// reference and writes the result to outPath (or back over basePath when
// outPath is empty). The reviewed file must carry BI Name and Standard_Name;
// a specialty column is sniffed by substring. Returns the merged record
// count and the path written.
func UpdateFromReview(basePath, reviewedPath, outPath string) (int, string, error) {
	base := []Record{}
	if _, err := os.Stat(basePath); err == nil {
		ref, err := Load(basePath)
		if err != nil {
			return 0, "", fmt.Errorf("golden: load base: %w", err)
		}
		base = ref.Records()
	}

	reviewed, err := loadReviewed(reviewedPath)
	if err != nil {
		return 0, "", err
	}

	merged := New(append(base, reviewed...))

	target := outPath
	if target == "" {
		target = basePath
	}
	if err := WriteReference(target, merged.Records()); err != nil {
		return 0, "", err
	}
	return merged.Len(), target, nil
}

func loadReviewed(path string) ([]Record, error) {
	t, err := tabular.ReadSheet(path, reviewedSheet)
	if err != nil {
		// Hand-edited review files often have a single unnamed sheet.
		if t, err = tabular.Read(path); err != nil {
			return nil, fmt.Errorf("golden: load reviewed: %w", err)
		}
	}

	biCol, biOK := findColumn(t, "bi name", "bi names")
	stdCol, stdOK := findColumn(t, "standard name", "standard names")
	if !biOK || !stdOK {
		return nil, fmt.Errorf("golden: reviewed file must contain 'BI Name' and 'Standard_Name' columns")
	}
	specCol := sniffSpecialtyColumn(t)

	records := make([]Record, 0, len(t.Rows))
	for i := range t.Rows {
		rec := Record{
			BIName:       strings.TrimSpace(t.Cell(i, biCol)),
			StandardName: strings.TrimSpace(t.Cell(i, stdCol)),
		}
		if specCol >= 0 {
			rec.Specialty = strings.TrimSpace(t.Cell(i, specCol))
		}
		if rec.BIName == "" || rec.StandardName == "" {
			continue
		}
		rec.AliasClean = normalize.CleanName(rec.BIName, true)
		records = append(records, rec)
	}
	return records, nil
}

func sniffSpecialtyColumn(t *tabular.Table) int {
	for i, h := range t.Headers {
		n := tabular.NormalizeHeader(h)
		if strings.Contains(n, "specialty") || strings.Contains(n, "speciality") || strings.Contains(n, "department") {
			return i
		}
	}
	return -1
}

// WriteReference saves records as a golden reference workbook or CSV,
// sorted by clean alias for stable diffs.
func WriteReference(path string, records []Record) error {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].AliasClean < sorted[b].AliasClean })

	t := &tabular.Table{
		Headers: []string{"BI Name", "Standard_Name", "Original_Specialty", "Alias_Clean"},
	}
	for _, rec := range sorted {
		t.Rows = append(t.Rows, []string{rec.BIName, rec.StandardName, rec.Specialty, rec.AliasClean})
	}
	return tabular.Write(path, []tabular.Sheet{{Name: "Golden", Table: t}})
}
