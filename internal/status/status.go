// Package status decides whether a primary-side workflow status cell counts
// as "not yet decided", and inspects status columns for diagnostics.
package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/leadmatch/internal/dataset"
	"github.com/sells-group/leadmatch/internal/normalize"
)

// DefaultEmptyToken is the placeholder treated as blank when no token list
// is configured.
const DefaultEmptyToken = "à évaluer"

// columnPatterns identify a status column by header, in priority order.
var columnPatterns = []string{"statut", "status", "etat", "state"}

// KnownValues lists the recognised non-empty workflow values, in
// comparison form.
var KnownValues = map[string]struct{}{
	"a evaluer":    {},
	"qualifie":     {},
	"converti":     {},
	"non qualifie": {},
	"perdu":        {},
	"doublon":      {},
}

// Policy decides status emptiness. The zero value treats only blank cells
// as empty.
type Policy struct {
	emptyTokens map[string]struct{}
}

// NewPolicy returns a Policy that treats blank cells and any of tokens as
// empty. Tokens are compared in normalize.ForComparison form.
func NewPolicy(tokens ...string) Policy {
	p := Policy{emptyTokens: make(map[string]struct{}, len(tokens))}
	for _, tok := range tokens {
		if n := normalize.ForComparison(tok); n != "" {
			p.emptyTokens[n] = struct{}{}
		}
	}
	return p
}

// DefaultPolicy treats blank cells and "à évaluer" as empty.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultEmptyToken)
}

// Tokens returns the configured empty tokens in comparison form, sorted.
func (p Policy) Tokens() []string {
	out := make([]string, 0, len(p.emptyTokens))
	for tok := range p.emptyTokens {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// IsEmpty reports whether raw counts as an unset status.
func (p Policy) IsEmpty(raw any) bool {
	n := normalize.ForComparison(CellString(raw))
	if n == "" {
		return true
	}
	_, ok := p.emptyTokens[n]
	return ok
}

// IsEmptySheetStatus is the function form of Policy.IsEmpty.
func IsEmptySheetStatus(raw any, p Policy) bool {
	return p.IsEmpty(raw)
}

// CellString stringifies a cell value. Some exports hand over objects
// carrying displayValue or value fields; those are unwrapped first.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any:
		for _, k := range []string{"displayValue", "value"} {
			if inner, ok := x[k]; ok && inner != nil {
				return CellString(inner)
			}
		}
		return fmt.Sprint(x)
	case map[string]string:
		for _, k := range []string{"displayValue", "value"} {
			if inner, ok := x[k]; ok {
				return inner
			}
		}
		return fmt.Sprint(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// FindStatusColumn returns the first header whose comparison form contains
// a status-like word.
func FindStatusColumn(headers []string) (string, bool) {
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		n := normalize.ForComparison(h)
		for _, p := range columnPatterns {
			if strings.Contains(n, p) {
				return h, true
			}
		}
	}
	return "", false
}

// topValuesLimit caps Analysis.TopValues.
const topValuesLimit = 10

// ValueCount is one distinct status value seen in a column.
type ValueCount struct {
	Normalized string `json:"normalized"`
	Raw        string `json:"raw"`
	Count      int    `json:"count"`
}

// Analysis summarizes a status column.
type Analysis struct {
	ColumnName  string       `json:"column_name"`
	ColumnFound bool         `json:"column_found"`
	TotalRows   int          `json:"total_rows"`
	EmptyCount  int          `json:"empty_count"`
	TopValues   []ValueCount `json:"top_values"`
}

// Unknown returns the top values that are neither blank nor KnownValues.
func (a Analysis) Unknown() []ValueCount {
	var out []ValueCount
	for _, v := range a.TopValues {
		if v.Normalized == "" {
			continue
		}
		if _, ok := KnownValues[v.Normalized]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// Analyze counts empty and distinct values of column across ds. TopValues
// keeps the ten most frequent normalized values; ties keep first-seen order
// and Raw is the first raw spelling encountered.
func Analyze(ds *dataset.Dataset, column string, p Policy) Analysis {
	a := Analysis{
		ColumnName: column,
		TotalRows:  ds.Len(),
	}
	if ds == nil || !ds.HasColumn(column) {
		return a
	}
	a.ColumnFound = true

	index := make(map[string]int)
	var values []ValueCount
	for _, row := range ds.Rows {
		raw := row.Get(column)
		if p.IsEmpty(raw) {
			a.EmptyCount++
		}

		n := normalize.ForComparison(raw)
		if i, ok := index[n]; ok {
			values[i].Count++
			continue
		}
		index[n] = len(values)
		values = append(values, ValueCount{Normalized: n, Raw: raw, Count: 1})
	}

	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Count > values[j].Count
	})
	if len(values) > topValuesLimit {
		values = values[:topValuesLimit]
	}
	a.TopValues = values
	return a
}
