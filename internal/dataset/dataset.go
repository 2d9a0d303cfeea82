// Package dataset holds the in-memory tabular model shared by the loaders
// and the join engine, plus header helpers used for column selection.
package dataset

import (
	"strings"

	"github.com/sells-group/leadmatch/internal/normalize"
)

// Row maps a column name to its raw cell value. Rows are not mutated once
// loaded.
type Row map[string]string

// Get returns the value stored under col, or "" if the column is absent.
func (r Row) Get(col string) string {
	if r == nil || col == "" {
		return ""
	}
	return r[col]
}

// Dataset is an ordered list of rows plus the headers seen in the source.
type Dataset struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"-"`
}

// New builds a Dataset from a header record and data records. Header names
// are trimmed; cell values are kept raw. Blank header cells are not
// addressable; for repeated header names the first column wins. Records made
// only of blank cells are dropped.
func New(name string, headers []string, records [][]string) *Dataset {
	headers = trimAll(headers)
	d := &Dataset{
		Name:    name,
		Headers: headers,
		Rows:    make([]Row, 0, len(records)),
	}

	for _, rec := range records {
		if blankRecord(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if strings.TrimSpace(h) == "" || i >= len(rec) {
				continue
			}
			if _, dup := row[h]; dup {
				continue
			}
			row[h] = rec[i]
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// ValidHeaders returns the headers that can be offered as selectable
// columns: blank entries and repeats are removed, order is preserved.
func (d *Dataset) ValidHeaders() []string {
	if d == nil {
		return nil
	}
	return validHeaders(d.Headers)
}

// HasColumn reports whether col is one of the dataset's valid headers.
func (d *Dataset) HasColumn(col string) bool {
	for _, h := range d.ValidHeaders() {
		if h == col {
			return true
		}
	}
	return false
}

// FindColumnByPattern returns the first header that contains one of the
// patterns, or that one of the patterns contains, compared case-insensitively.
// Patterns are tried in order.
func FindColumnByPattern(headers []string, patterns []string) (string, bool) {
	valid := validHeaders(headers)
	lower := make([]string, len(valid))
	for i, h := range valid {
		lower[i] = normalize.Key(h)
	}

	for _, p := range patterns {
		p = normalize.Key(p)
		if p == "" {
			continue
		}
		for i, h := range lower {
			if strings.Contains(h, p) || strings.Contains(p, h) {
				return valid[i], true
			}
		}
	}
	return "", false
}

// FindColumnContaining returns the first header whose comparison form
// contains the comparison form of pattern.
func FindColumnContaining(headers []string, pattern string) (string, bool) {
	p := normalize.ForComparison(pattern)
	if p == "" {
		return "", false
	}
	for _, h := range validHeaders(headers) {
		if strings.Contains(normalize.ForComparison(h), p) {
			return h, true
		}
	}
	return "", false
}

// DetectCommonColumns returns the headers of a that also appear in b,
// compared case-insensitively, in a's order.
func DetectCommonColumns(a, b []string) []string {
	other := make(map[string]struct{}, len(b))
	for _, h := range validHeaders(b) {
		other[normalize.Key(h)] = struct{}{}
	}

	var common []string
	for _, h := range validHeaders(a) {
		if _, ok := other[normalize.Key(h)]; ok {
			common = append(common, h)
		}
	}
	return common
}

// MissingColumns returns the required columns for which no header matches
// (see FindColumnContaining).
func MissingColumns(headers []string, required []string) []string {
	var missing []string
	for _, req := range required {
		if _, ok := FindColumnContaining(headers, req); !ok {
			missing = append(missing, req)
		}
	}
	return missing
}

func validHeaders(headers []string) []string {
	seen := make(map[string]struct{}, len(headers))
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
