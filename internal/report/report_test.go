package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadmatch/internal/classify"
	"github.com/sells-group/leadmatch/internal/dataset"
	"github.com/sells-group/leadmatch/internal/join"
	"github.com/sells-group/leadmatch/internal/status"
)

func TestWriteSummary(t *testing.T) {
	primary := dataset.New("s.csv", []string{"email", "statut", "nom"}, [][]string{
		{"a@x.com", "", "Martin"},
		{"z@x.com", "", "Zola"},
	})
	secondary := dataset.New("c.csv", []string{"email", "Phase de la transaction"}, [][]string{
		{"a@x.com", "R1"},
		{"a@x.com", "Hors cible"},
	})
	res := join.Join(primary, secondary, join.Options{
		PrimaryKeyColumn:    "email",
		SecondaryKeyColumn:  "email",
		PrimaryStatusColumn: "statut",
	})

	var buf bytes.Buffer
	WriteSummary(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "Rows processed")
	assert.Contains(t, out, "Matched pairs")
	assert.Contains(t, out, string(classify.LabelQualified))
	assert.Contains(t, out, string(classify.LabelUnqualified))
	assert.Contains(t, out, "z@x.com")
	assert.Contains(t, out, "Zola")
	assert.Contains(t, out, "CRM")
}

func TestWriteSummary_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, join.Join(nil, nil, join.Options{}))
	assert.Contains(t, buf.String(), "Rows processed")
	assert.NotContains(t, buf.String(), "LABEL")
}

func TestWriteStatusAnalysis(t *testing.T) {
	a := status.Analysis{
		ColumnName:  "statut",
		ColumnFound: true,
		TotalRows:   3,
		EmptyCount:  2,
		TopValues: []status.ValueCount{
			{Normalized: "a evaluer", Raw: "À évaluer", Count: 2},
			{Normalized: "rappeler", Raw: "Rappeler", Count: 1},
		},
	}

	var buf bytes.Buffer
	WriteStatusAnalysis(&buf, a)
	out := buf.String()
	assert.Contains(t, out, `column "statut": 3 rows, 2 empty`)
	assert.Contains(t, out, "À évaluer")
	assert.Contains(t, out, "rappeler")
}

func TestWriteStatusAnalysis_ColumnMissing(t *testing.T) {
	var buf bytes.Buffer
	WriteStatusAnalysis(&buf, status.Analysis{ColumnName: "statut", TotalRows: 4})
	assert.Equal(t, "column \"statut\" not found (4 rows)\n", buf.String())
}

func TestWriteRuleSet(t *testing.T) {
	var buf bytes.Buffer
	WriteRuleSet(&buf, classify.Default(), classify.DefaultPropositions())
	out := buf.String()
	assert.Contains(t, out, `rule set "substring" v3`)
	assert.Contains(t, out, "lead marketing")
	assert.Contains(t, out, "hors cible")
	assert.Contains(t, out, "(default)")
	assert.Contains(t, out, string(classify.PropositionPending))
}

func TestJoinSample(t *testing.T) {
	assert.Equal(t, "", joinSample(nil))
	assert.Equal(t, "a, b", joinSample([]string{"a", "b"}))

	long := make([]string, 12)
	for i := range long {
		long[i] = "k"
	}
	assert.Contains(t, joinSample(long), "(+2)")
}

func TestWriteColumns(t *testing.T) {
	var buf bytes.Buffer
	WriteColumns(&buf,
		[]ColumnInfo{
			{Name: "sheet.csv", Rows: 2, Headers: []string{"email", "Statut"}},
			{Name: "crm.xlsx", Rows: 5, Headers: []string{"Email", "Phase de la transaction"}},
		},
		[]string{"email"},
		[]Detection{{Role: "status", Column: "Statut"}, {Role: "lead status"}},
	)
	out := buf.String()

	assert.Contains(t, out, "sheet.csv (2 rows, 2 columns)")
	assert.Contains(t, out, "crm.xlsx (5 rows, 2 columns)")
	assert.Contains(t, out, "common columns: email")
	assert.Contains(t, out, "Phase de la transaction")
	assert.Contains(t, out, "(not found)")
}

func TestWriteColumns_NoneCommon(t *testing.T) {
	var buf bytes.Buffer
	WriteColumns(&buf, nil, nil, nil)
	assert.Equal(t, "common columns: none\n\n", buf.String())
}
