package join

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadmatch/internal/classify"
	"github.com/sells-group/leadmatch/internal/dataset"
	"github.com/sells-group/leadmatch/internal/status"
)

const phaseCol = "Phase de la transaction"

func sheet(records ...[]string) *dataset.Dataset {
	return dataset.New("sheet.csv", []string{"email", "statut", "nom", "Prénom"}, records)
}

func crm(records ...[]string) *dataset.Dataset {
	return dataset.New("crm.csv", []string{"email", phaseCol, "Statut du lead", "name"}, records)
}

func defaultOpts() Options {
	return Options{
		PrimaryKeyColumn:    "email",
		SecondaryKeyColumn:  "email",
		PrimaryStatusColumn: "statut",
	}
}

func TestJoin_FanOutScenario(t *testing.T) {
	primary := sheet([]string{"a@x.com", "", "Martin", "Alice"})
	secondary := crm(
		[]string{"a@x.com", "R1 qualif", "", ""},
		[]string{"a@x.com", "Hors cible", "", ""},
	)

	res := Join(primary, secondary, defaultOpts())

	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.MatchedCount)
	assert.Equal(t, 0, res.UnmatchedCount)
	assert.Equal(t, classify.LabelQualified, res.Records[0].Label)
	assert.Equal(t, classify.LabelUnqualified, res.Records[1].Label)
	assert.Equal(t, "R1 qualif", res.Records[0].Phase)
	assert.Equal(t, "Hors cible", res.Records[1].Phase)

	for _, r := range res.Records {
		assert.Equal(t, "a@x.com", r.Key)
		assert.Equal(t, "Martin", r.Name)
		assert.Equal(t, "Alice", r.FirstName)
	}
	assert.Equal(t, 1, res.LabelCounts[classify.LabelQualified])
	assert.Equal(t, 1, res.LabelCounts[classify.LabelUnqualified])
	assert.Equal(t, classify.PropositionNo, res.Records[1].Proposition)
}

func TestJoin_SecondaryDuplicateReportedOnce(t *testing.T) {
	primary := sheet([]string{"c@x.com", "", "", ""})
	secondary := crm(
		[]string{"b@x.com", "R1", "", "Bernard"},
		[]string{"B@X.com ", "R2", "", "Other"},
		[]string{"b@x.com", "R2", "", ""},
	)

	res := Join(primary, secondary, defaultOpts())

	assert.GreaterOrEqual(t, res.Duplicates.SecondaryCount, 1)
	assert.Equal(t, 2, res.Duplicates.SecondaryCount)
	assert.Equal(t, []string{"b@x.com"}, res.Duplicates.SecondaryKeys)
	assert.Equal(t, []string{"Bernard"}, res.Duplicates.SecondaryNames)
}

func TestJoin_SecondaryKeyExtractsEmbeddedEmail(t *testing.T) {
	primary := sheet([]string{"Jean.Dupont@mail.fr", "", "Dupont", ""})
	secondary := crm([]string{"Jean Dupont - jean.dupont@mail.fr - jean.dupont@mail.fr", "Compromis", "", ""})

	res := Join(primary, secondary, defaultOpts())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "jean.dupont@mail.fr", res.Records[0].Key)
	assert.Equal(t, classify.PropositionYes, res.Records[0].Proposition)
}

func TestJoin_SecondaryKeyFallsBackToPlainKey(t *testing.T) {
	primary := dataset.New("s.csv", []string{"id", "statut"}, [][]string{{" CRM-7 ", ""}})
	secondary := dataset.New("c.csv", []string{"id", phaseCol}, [][]string{{"crm-7", "R2"}})

	res := Join(primary, secondary, Options{PrimaryKeyColumn: "id", SecondaryKeyColumn: "id", PrimaryStatusColumn: "statut"})
	require.Len(t, res.Records, 1)
	assert.Equal(t, "crm-7", res.Records[0].Key)
}

func TestJoin_StatusFilter(t *testing.T) {
	primary := sheet(
		[]string{"a@x.com", "", "", ""},
		[]string{"b@x.com", "À évaluer", "", ""},
		[]string{"c@x.com", "Qualifié", "", ""},
		[]string{"d@x.com", "perdu", "", ""},
	)
	secondary := crm(
		[]string{"a@x.com", "R1", "", ""},
		[]string{"b@x.com", "R1", "", ""},
		[]string{"c@x.com", "R1", "", ""},
		[]string{"d@x.com", "R1", "", ""},
	)

	res := Join(primary, secondary, defaultOpts())

	assert.Equal(t, 4, res.TotalProcessed)
	assert.Equal(t, 2, res.MatchedCount)
	assert.Equal(t, 0, res.UnmatchedCount)
	assert.Equal(t, 2, res.FilteredCount)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "a@x.com", res.Records[0].Key)
	assert.Equal(t, "b@x.com", res.Records[1].Key)
	assert.Equal(t, "À évaluer", res.Records[1].SheetStatus)
}

func TestJoin_CustomPolicy(t *testing.T) {
	primary := sheet(
		[]string{"a@x.com", "À évaluer", "", ""},
		[]string{"b@x.com", "à traiter", "", ""},
	)
	secondary := crm([]string{"a@x.com", "R1", "", ""}, []string{"b@x.com", "R1", "", ""})

	p := status.NewPolicy("à traiter")
	opts := defaultOpts()
	opts.Policy = &p

	res := Join(primary, secondary, opts)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "b@x.com", res.Records[0].Key)
	assert.Equal(t, 1, res.FilteredCount)
}

func TestJoin_EmptyKeyRouting(t *testing.T) {
	primary := sheet(
		[]string{"", "", "Durand", "Paul"},
		[]string{"   ", "Qualifié", "Petit", "Léa"},
	)
	secondary := crm([]string{"a@x.com", "R1", "", ""})

	res := Join(primary, secondary, defaultOpts())

	assert.Empty(t, res.Records)
	assert.Equal(t, 2, res.UnmatchedCount)
	assert.Equal(t, 0, res.FilteredCount)
	assert.Equal(t, []string{"Durand", "Petit"}, res.Unmatched.Names)
	assert.Equal(t, []string{"Paul", "Léa"}, res.Unmatched.FirstNames)
	assert.Empty(t, res.Unmatched.Emails)
}

func TestJoin_NoMatch(t *testing.T) {
	primary := sheet([]string{"z@x.com", "", "Zola", "Émile"})
	secondary := crm([]string{"a@x.com", "R1", "", ""})

	res := Join(primary, secondary, defaultOpts())
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.UnmatchedCount)
	assert.Equal(t, 0, res.MatchedCount)
	assert.Equal(t, []string{"z@x.com"}, res.Unmatched.Emails)
	assert.Equal(t, []string{"Zola"}, res.Unmatched.Names)
}

func TestJoin_IgnoredPairsSkippedIndividually(t *testing.T) {
	primary := sheet([]string{"a@x.com", "", "", ""})
	secondary := crm(
		[]string{"a@x.com", "Lead", "", ""},
		[]string{"a@x.com", "R0", "", ""},
		[]string{"a@x.com", "Lead marketing", "", ""},
		[]string{"a@x.com", "Nouveau", "", ""},
	)

	res := Join(primary, secondary, defaultOpts())

	assert.Equal(t, 4, res.MatchedCount)
	assert.Equal(t, 3, res.IgnoredCount)
	require.Len(t, res.Records, 1)
	assert.Equal(t, classify.LabelMarketingLead, res.Records[0].Label)
}

func TestJoin_PrimaryDuplicatesProcessedOnceEach(t *testing.T) {
	primary := sheet(
		[]string{"a@x.com", "", "Martin", "Alice"},
		[]string{"A@x.com", "", "Martin", "Alicia"},
		[]string{"a@x.com", "", "", ""},
		[]string{"b@x.com", "", "", ""},
	)
	secondary := crm([]string{"a@x.com", "R1", "", ""})

	res := Join(primary, secondary, defaultOpts())

	assert.Equal(t, 1, res.Duplicates.PrimaryCount)
	assert.Equal(t, []string{"a@x.com"}, res.Duplicates.PrimaryKeys)
	assert.Equal(t, []string{"Alicia"}, res.Duplicates.PrimaryFirstNames)
	assert.Len(t, res.Records, 3)
	assert.Equal(t, 3, res.MatchedCount)
	assert.Equal(t, 1, res.UnmatchedCount)
}

func TestJoin_OrderFollowsPrimaryThenSecondary(t *testing.T) {
	primary := sheet(
		[]string{"b@x.com", "", "", ""},
		[]string{"a@x.com", "", "", ""},
	)
	secondary := crm(
		[]string{"a@x.com", "R1 first", "", ""},
		[]string{"b@x.com", "R1", "", ""},
		[]string{"a@x.com", "R2 second", "", ""},
	)

	res := Join(primary, secondary, defaultOpts())
	require.Len(t, res.Records, 3)
	assert.Equal(t, "b@x.com", res.Records[0].Key)
	assert.Equal(t, "R1 first", res.Records[1].Phase)
	assert.Equal(t, "R2 second", res.Records[2].Phase)
}

func TestJoin_LeadStatusFeedsClassifier(t *testing.T) {
	rs, err := classify.Lookup(classify.RuleSetExact)
	require.NoError(t, err)

	primary := sheet([]string{"a@x.com", "", "", ""})
	secondary := crm(
		[]string{"a@x.com", "Lead + (RO fait- échange email)", "Lead actif - en cours", ""},
		[]string{"a@x.com", "Lead + (RO fait- échange email)", "Perdu", ""},
	)

	opts := defaultOpts()
	opts.Classifier = rs
	res := Join(primary, secondary, opts)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "Statut du lead", res.Columns.LeadStatus)
	assert.Equal(t, classify.LabelQualified, res.Records[0].Label)
	assert.Equal(t, classify.LabelUnqualified, res.Records[1].Label)
	assert.Equal(t, "Lead actif - en cours", res.Records[0].LeadStatus)
}

func TestJoin_ExplicitPhaseColumn(t *testing.T) {
	primary := sheet([]string{"a@x.com", "", "", ""})
	secondary := dataset.New("c.csv", []string{"email", "Stage"}, [][]string{{"a@x.com", "R2"}})

	opts := defaultOpts()
	opts.PhaseColumn = "Stage"
	res := Join(primary, secondary, opts)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "R2", res.Records[0].Phase)
}

func TestJoin_MissingColumnsDegrade(t *testing.T) {
	primary := dataset.New("s.csv", []string{"email"}, [][]string{{"a@x.com"}})
	secondary := dataset.New("c.csv", []string{"email"}, [][]string{{"a@x.com"}})

	res := Join(primary, secondary, defaultOpts())
	assert.Equal(t, 1, res.MatchedCount)
	assert.Equal(t, "", res.Columns.Phase)
	// empty phase classifies Ignore under the active table
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.IgnoredCount)
}

func TestJoin_NilAndEmptyDatasets(t *testing.T) {
	res := Join(nil, nil, defaultOpts())
	assert.Equal(t, 0, res.TotalProcessed)
	assert.NotNil(t, res.Records)

	res = Join(sheet([]string{"a@x.com", "", "", ""}), nil, defaultOpts())
	assert.Equal(t, 1, res.UnmatchedCount)
}

func TestJoin_SampleLimit(t *testing.T) {
	var records [][]string
	for i := range 10 {
		records = append(records, []string{fmt.Sprintf("u%d@x.com", i), "", fmt.Sprintf("Nom%d", i), ""})
	}
	opts := defaultOpts()
	opts.SampleLimit = 3

	res := Join(sheet(records...), crm(), opts)
	assert.Equal(t, 10, res.UnmatchedCount)
	assert.Len(t, res.Unmatched.Emails, 3)
	assert.Len(t, res.Unmatched.Names, 3)
	assert.Equal(t, 3, res.SampleLimit)
}

func TestJoin_Invariants(t *testing.T) {
	primary := sheet(
		[]string{"a@x.com", "", "", ""},
		[]string{"b@x.com", "Converti", "", ""},
		[]string{"", "", "Anon", ""},
		[]string{"c@x.com", "", "NoMatch", ""},
		[]string{"d@x.com", "à évaluer", "", ""},
		[]string{"a@x.com", "", "", ""},
	)
	secondary := crm(
		[]string{"a@x.com", "R1", "", ""},
		[]string{"a@x.com", "Lead", "", ""},
		[]string{"a@x.com", "Hors cible", "", ""},
		[]string{"d@x.com", "Option", "", ""},
	)

	res := Join(primary, secondary, defaultOpts())

	assert.Equal(t, primary.Len(), res.TotalProcessed)
	// a (3 pairs) twice + d (1 pair)
	assert.Equal(t, 7, res.MatchedCount)
	// blank key + c@x.com
	assert.Equal(t, 2, res.UnmatchedCount)
	assert.Equal(t, 1, res.FilteredCount)
	assert.Equal(t, res.MatchedCount, len(res.Records)+res.IgnoredCount)

	perKey := make(map[string]int)
	for _, r := range res.Records {
		perKey[r.Key]++
		assert.False(t, r.Label.Ignored())
	}
	// fan-out is bounded by the secondary rows at the key, per primary row
	assert.LessOrEqual(t, perKey["a@x.com"], 2*3)
	assert.LessOrEqual(t, perKey["d@x.com"], 1)

	total := 0
	for _, n := range res.LabelCounts {
		total += n
	}
	assert.Equal(t, len(res.Records), total)
}

func TestJoin_ConcurrentCallsAreIndependent(t *testing.T) {
	primary := sheet([]string{"a@x.com", "", "", ""})
	secondary := crm([]string{"a@x.com", "R1", "", ""}, []string{"a@x.com", "R2", "", ""})

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Join(primary, secondary, defaultOpts())
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Len(t, r.Records, 2)
	}
	assert.Equal(t, 1, primary.Len())
}

func TestOptions_Validate(t *testing.T) {
	assert.Len(t, Options{}.Validate(), 3)
	assert.Empty(t, defaultOpts().Validate())

	msgs := Options{PrimaryKeyColumn: "email"}.Validate()
	assert.Equal(t, []string{"secondary key column is not set", "primary status column is not set"}, msgs)
}

func TestSecondaryKey(t *testing.T) {
	assert.Equal(t, "a@x.com", SecondaryKey("Alice - A@X.COM - a@x.com"))
	assert.Equal(t, "42", SecondaryKey(" 42 "))
	assert.Equal(t, "", SecondaryKey(""))
}
