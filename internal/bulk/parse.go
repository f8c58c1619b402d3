package bulk

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/kedhare/gallery-cli/internal/session"
)

// Candidate is one prospective account decoded from a spreadsheet row.
// Immutable after creation; never persisted locally. Row is the 1-based
// data row index (header excluded), used in violation messages.
type Candidate struct {
	Username string
	Email    string
	Password string
	Phone    string
	Role     session.Role
	Row      int
}

// Spreadsheet column names. Matching is case-insensitive after trim.
const (
	colUsername = "username"
	colEmail    = "email"
	colPassword = "password"
	colPhone    = "phone"
)

// IsSpreadsheet reports whether the file name has a supported
// spreadsheet extension. Anything else is rejected before parsing.
func IsSpreadsheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv":
		return true
	default:
		return false
	}
}

// parseFile decodes the spreadsheet at path into candidate records.
func parseFile(path string) ([]Candidate, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return parseXLSX(path)
	case ".csv":
		return parseCSV(path)
	default:
		return nil, fmt.Errorf("bulk: unsupported file type %q", filepath.Ext(path))
	}
}

func parseXLSX(path string) ([]Candidate, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("bulk: opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("bulk: %s has no sheets", filepath.Base(path))
	}

	// Like the dashboard it replaces, only the first sheet counts.
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("bulk: reading sheet %q: %w", sheets[0], err)
	}

	return decodeRows(rows)
}

func parseCSV(path string) ([]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bulk: opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows become empty cells, not errors

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bulk: reading %s: %w", filepath.Base(path), err)
	}

	return decodeRows(rows)
}

// decodeRows maps the header row to columns and coerces each data row
// into a Candidate. Missing cells become empty strings — that is
// validation's concern, never an ingestion error.
func decodeRows(rows [][]string) ([]Candidate, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("bulk: spreadsheet is empty")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(normalizeCell(name))] = i
	}

	if len(rows) == 1 {
		return nil, fmt.Errorf("bulk: spreadsheet has a header but no data rows")
	}

	candidates := make([]Candidate, 0, len(rows)-1)

	for i, row := range rows[1:] {
		candidates = append(candidates, Candidate{
			Username: cell(row, columns, colUsername),
			Email:    strings.ToLower(cell(row, columns, colEmail)),
			Password: cell(row, columns, colPassword),
			Phone:    cell(row, columns, colPhone),
			Role:     session.RoleUser,
			Row:      i + 1,
		})
	}

	return candidates, nil
}

// cell returns the trimmed, normalized value of the named column, or
// "" when the column or cell is absent.
func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return normalizeCell(row[idx])
}

// normalizeCell trims whitespace and applies NFC so visually identical
// spreadsheet input compares equal regardless of its Unicode encoding.
func normalizeCell(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
