// Package join matches primary (tracking) rows against secondary (CRM) rows
// on a normalized key and classifies every matched pair.
//
// Join is a pure function of its inputs: each call builds fresh indices,
// reads no global state, and never fails on row-level problems. Empty keys,
// missing matches and ignored classifications are counted, not raised.
package join

import (
	"strings"

	"github.com/sells-group/leadmatch/internal/classify"
	"github.com/sells-group/leadmatch/internal/dataset"
	"github.com/sells-group/leadmatch/internal/normalize"
)

// Join matches primary against secondary.
//
// Output order follows primary order and, within one primary row, the
// secondary rows' original order at that key. A primary row yields one
// record per secondary row sharing its key, minus the pairs classified
// Ignore. Primary rows with a blank key are always counted unmatched; rows
// whose status is set are skipped and counted in FilteredCount only.
func Join(primary, secondary *dataset.Dataset, opts Options) *Result {
	cfg := opts.withDefaults()
	s := sampler{limit: cfg.SampleLimit}

	pf := resolveFields(primary, *cfg.Aliases)
	sf := resolveFields(secondary, *cfg.Aliases)

	res := &Result{
		Records:           []Record{},
		LabelCounts:       make(map[classify.Label]int),
		PropositionCounts: make(map[classify.Proposition]int),
		SampleLimit:       cfg.SampleLimit,
		Columns: Columns{
			PrimaryKey:       cfg.PrimaryKeyColumn,
			SecondaryKey:     cfg.SecondaryKeyColumn,
			PrimaryStatus:    cfg.PrimaryStatusColumn,
			Phase:            resolveColumn(secondary, cfg.PhaseColumn, DefaultPhasePattern),
			LeadStatus:       resolveColumn(secondary, cfg.LeadStatusColumn, DefaultLeadStatusPattern),
			PrimaryName:      pf.name,
			PrimaryFirstName: pf.firstName,
		},
	}

	idx := buildIndex(rowsOf(secondary), cfg.SecondaryKeyColumn, sf, s, &res.Duplicates)
	countPrimaryDuplicates(rowsOf(primary), cfg.PrimaryKeyColumn, pf, s, &res.Duplicates)

	for _, row := range rowsOf(primary) {
		res.TotalProcessed++

		key := normalize.Key(row.Get(cfg.PrimaryKeyColumn))
		if key == "" {
			res.addUnmatched(row, pf, s)
			continue
		}

		sheetStatus := row.Get(cfg.PrimaryStatusColumn)
		if !cfg.Policy.IsEmpty(sheetStatus) {
			res.FilteredCount++
			continue
		}

		matches := idx[key]
		if len(matches) == 0 {
			res.addUnmatched(row, pf, s)
			continue
		}

		name, firstName := pf.get(row, pf.name), pf.get(row, pf.firstName)
		for _, match := range matches {
			res.MatchedCount++

			phase := match.Get(res.Columns.Phase)
			leadStatus := match.Get(res.Columns.LeadStatus)

			label := cfg.Classifier.Classify(phase, leadStatus)
			if label.Ignored() {
				res.IgnoredCount++
				continue
			}
			prop := cfg.Propositions.Propose(phase)

			res.Records = append(res.Records, Record{
				Key:         key,
				Name:        name,
				FirstName:   firstName,
				SheetStatus: sheetStatus,
				Phase:       phase,
				LeadStatus:  leadStatus,
				Label:       label,
				Proposition: prop,
			})
			res.LabelCounts[label]++
			res.PropositionCounts[prop]++
		}
	}

	return res
}

// SecondaryKey is the key a secondary cell joins on: the embedded email when
// there is one, else the trimmed lower-cased value.
func SecondaryKey(v string) string {
	return normalize.EmailOrKey(v)
}

// buildIndex maps each secondary key to its rows in input order and records
// duplicate keys once each, with the first row's display fields.
func buildIndex(rows []dataset.Row, keyCol string, f fields, s sampler, dups *Duplicates) map[string][]dataset.Row {
	idx := make(map[string][]dataset.Row, len(rows))
	for _, row := range rows {
		key := SecondaryKey(row.Get(keyCol))
		if key == "" {
			continue
		}

		existing, seen := idx[key]
		idx[key] = append(existing, row)
		if !seen {
			continue
		}

		dups.SecondaryCount++
		if len(existing) == 1 {
			first := existing[0]
			s.add(&dups.SecondaryKeys, key)
			s.add(&dups.SecondaryNames, f.get(first, f.name))
			s.add(&dups.SecondaryFirstNames, f.get(first, f.firstName))
		}
	}
	return idx
}

// countPrimaryDuplicates counts primary keys seen more than once. Primary
// duplicates are reported only; each primary row is still joined once.
func countPrimaryDuplicates(rows []dataset.Row, keyCol string, f fields, s sampler, dups *Duplicates) {
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		key := normalize.Key(row.Get(keyCol))
		if key == "" {
			continue
		}
		counts[key]++
		if counts[key] != 2 {
			continue
		}
		dups.PrimaryCount++
		s.add(&dups.PrimaryKeys, key)
		s.add(&dups.PrimaryNames, f.get(row, f.name))
		s.add(&dups.PrimaryFirstNames, f.get(row, f.firstName))
	}
}

func (r *Result) addUnmatched(row dataset.Row, f fields, s sampler) {
	r.UnmatchedCount++
	s.add(&r.Unmatched.Emails, f.get(row, f.email))
	s.add(&r.Unmatched.Names, f.get(row, f.name))
	s.add(&r.Unmatched.FirstNames, f.get(row, f.firstName))
}

// fields holds the alias columns present in one dataset.
type fields struct {
	name      []string
	firstName []string
	email     []string
}

func resolveFields(d *dataset.Dataset, a Aliases) fields {
	present := make(map[string]struct{})
	for _, h := range d.ValidHeaders() {
		present[h] = struct{}{}
	}
	pick := func(candidates []string) []string {
		var out []string
		for _, c := range candidates {
			if _, ok := present[c]; ok {
				out = append(out, c)
			}
		}
		return out
	}
	return fields{
		name:      pick(a.Name),
		firstName: pick(a.FirstName),
		email:     pick(a.Email),
	}
}

// get returns the first non-blank value among cols, trimmed.
func (fields) get(row dataset.Row, cols []string) string {
	for _, c := range cols {
		if v := strings.TrimSpace(row.Get(c)); v != "" {
			return v
		}
	}
	return ""
}

func resolveColumn(d *dataset.Dataset, configured, pattern string) string {
	if configured != "" {
		return configured
	}
	if d == nil {
		return ""
	}
	col, _ := dataset.FindColumnContaining(d.Headers, pattern)
	return col
}

func rowsOf(d *dataset.Dataset) []dataset.Row {
	if d == nil {
		return nil
	}
	return d.Rows
}
