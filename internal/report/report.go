// Package report renders join statistics and status diagnostics as
// terminal tables. It formats what the engine computed and derives nothing.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/sells-group/leadmatch/internal/classify"
	"github.com/sells-group/leadmatch/internal/join"
	"github.com/sells-group/leadmatch/internal/status"
)

// sampleWidth caps how many samples are shown per list.
const sampleWidth = 10

// WriteSummary writes the counts, label breakdown, duplicate and unmatched
// samples of res.
func WriteSummary(w io.Writer, res *join.Result) {
	counts := newTable(w, "Metric", "Value")
	counts.AppendBulk([][]string{
		{"Rows processed", strconv.Itoa(res.TotalProcessed)},
		{"Matched pairs", strconv.Itoa(res.MatchedCount)},
		{"Unmatched rows", strconv.Itoa(res.UnmatchedCount)},
		{"Skipped (status set)", strconv.Itoa(res.FilteredCount)},
		{"Ignored pairs", strconv.Itoa(res.IgnoredCount)},
		{"Results", strconv.Itoa(len(res.Records))},
		{"Duplicate keys (sheet)", strconv.Itoa(res.Duplicates.PrimaryCount)},
		{"Duplicate rows (CRM)", strconv.Itoa(res.Duplicates.SecondaryCount)},
	})
	counts.Render()

	if len(res.LabelCounts) > 0 {
		fmt.Fprintln(w)
		labels := newTable(w, "Label", "Count")
		for _, l := range sortedLabels(res.LabelCounts) {
			labels.Append([]string{string(l), strconv.Itoa(res.LabelCounts[l])})
		}
		labels.Render()
	}

	if len(res.PropositionCounts) > 0 {
		fmt.Fprintln(w)
		props := newTable(w, "Proposition", "Count")
		for _, p := range sortedPropositions(res.PropositionCounts) {
			props.Append([]string{string(p), strconv.Itoa(res.PropositionCounts[p])})
		}
		props.Render()
	}

	samples := [][]string{
		{"Duplicate keys (sheet)", joinSample(res.Duplicates.PrimaryKeys)},
		{"Duplicate keys (CRM)", joinSample(res.Duplicates.SecondaryKeys)},
		{"Unmatched emails", joinSample(res.Unmatched.Emails)},
		{"Unmatched names", joinSample(res.Unmatched.Names)},
	}
	var rows [][]string
	for _, s := range samples {
		if s[1] != "" {
			rows = append(rows, s)
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(w)
		t := newTable(w, "Sample", "Values")
		t.AppendBulk(rows)
		t.Render()
	}
}

// WriteStatusAnalysis writes a status column analysis.
func WriteStatusAnalysis(w io.Writer, a status.Analysis) {
	if !a.ColumnFound {
		fmt.Fprintf(w, "column %q not found (%d rows)\n", a.ColumnName, a.TotalRows)
		return
	}

	fmt.Fprintf(w, "column %q: %d rows, %d empty\n\n", a.ColumnName, a.TotalRows, a.EmptyCount)

	t := newTable(w, "Normalized", "Raw", "Count", "Known")
	for _, v := range a.TopValues {
		known := "yes"
		if _, ok := status.KnownValues[v.Normalized]; !ok {
			known = "no"
		}
		if v.Normalized == "" {
			known = "(empty)"
		}
		t.Append([]string{v.Normalized, v.Raw, strconv.Itoa(v.Count), known})
	}
	t.Render()
}

// WriteRuleSet writes the ordered rules of rs and the proposition table.
func WriteRuleSet(w io.Writer, rs *classify.RuleSet, props *classify.PropositionTable) {
	fmt.Fprintf(w, "rule set %q v%d", rs.Name, rs.Version)
	if rs.Description != "" {
		fmt.Fprintf(w, ": %s", rs.Description)
	}
	fmt.Fprintln(w)

	t := newTable(w, "#", "Rule", "Phase contains", "Phase equals", "Status equals", "Label")
	for i, r := range rs.Rules {
		t.Append([]string{
			strconv.Itoa(i + 1),
			r.Name,
			strings.Join(r.PhaseContains, " | "),
			strings.Join(r.PhaseEquals, " | "),
			strings.Join(r.StatusEquals, " | "),
			string(r.Label),
		})
	}
	t.Append([]string{"", "(default)", "", "", "", string(rs.Default)})
	t.Render()

	if props == nil {
		return
	}
	fmt.Fprintln(w)
	pt := newTable(w, "#", "Proposition rule", "Phase contains", "Value")
	for i, r := range props.Rules {
		pt.Append([]string{strconv.Itoa(i + 1), r.Name, strings.Join(r.PhaseContains, " | "), string(r.Value)})
	}
	pt.Append([]string{"", "(default)", "", string(props.Default)})
	pt.Render()
}

// ColumnInfo describes the headers of one loaded dataset.
type ColumnInfo struct {
	Name    string
	Rows    int
	Headers []string
}

// Detection is a column found by pattern for a role such as "status".
type Detection struct {
	Role   string
	Column string
}

// WriteColumns lists each dataset's headers, the columns they share and the
// detected role columns.
func WriteColumns(w io.Writer, sets []ColumnInfo, common []string, detected []Detection) {
	for _, s := range sets {
		fmt.Fprintf(w, "%s (%d rows, %d columns)\n", s.Name, s.Rows, len(s.Headers))
		t := newTable(w, "#", "Column")
		for i, h := range s.Headers {
			t.Append([]string{strconv.Itoa(i + 1), h})
		}
		t.Render()
		fmt.Fprintln(w)
	}

	if len(common) > 0 {
		fmt.Fprintf(w, "common columns: %s\n\n", strings.Join(common, ", "))
	} else {
		fmt.Fprint(w, "common columns: none\n\n")
	}

	if len(detected) == 0 {
		return
	}
	t := newTable(w, "Role", "Column")
	for _, d := range detected {
		col := d.Column
		if col == "" {
			col = "(not found)"
		}
		t.Append([]string{d.Role, col})
	}
	t.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	return t
}

func joinSample(values []string) string {
	if len(values) == 0 {
		return ""
	}
	if len(values) <= sampleWidth {
		return strings.Join(values, ", ")
	}
	return strings.Join(values[:sampleWidth], ", ") + fmt.Sprintf(", … (+%d)", len(values)-sampleWidth)
}

func sortedLabels(m map[classify.Label]int) []classify.Label {
	out := make([]classify.Label, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if m[out[i]] != m[out[j]] {
			return m[out[i]] > m[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func sortedPropositions(m map[classify.Proposition]int) []classify.Proposition {
	out := make([]classify.Proposition, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if m[out[i]] != m[out[j]] {
			return m[out[i]] > m[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
