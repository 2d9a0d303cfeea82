package classify

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Built-in rule set names.
const (
	RuleSetSubstring = "substring"
	RuleSetExact     = "exact"
)

// substringRules is the active production table. Phase values arrive
// decorated ("B2C - R1 (qualif faite)"), so every clause is a substring test.
var substringRules = RuleSet{
	Name:        RuleSetSubstring,
	Version:     3,
	Description: "substring match on phase; lead/r0 ignored",
	Rules: []Rule{
		{Name: "marketing-lead", Predicate: Predicate{PhaseContains: []string{"lead marketing"}}, Label: LabelMarketingLead},
		{Name: "early-lead", Predicate: Predicate{PhaseContains: []string{"lead", "r0"}}, Label: LabelIgnore},
		{Name: "advanced-stage", Predicate: Predicate{PhaseContains: []string{"r1", "r2", "option", "compromis", "dossier", "perdu"}}, Label: LabelQualified},
		{Name: "out-of-target", Predicate: Predicate{PhaseContains: []string{"hors cible"}}, Label: LabelUnqualified},
	},
	Default: LabelIgnore,
}

// exactRules is the legacy table, matching whole phase values and using the
// CRM lead status.
var exactRules = RuleSet{
	Name:        RuleSetExact,
	Version:     1,
	Description: "legacy exact match on phase and lead status",
	Rules: []Rule{
		{Name: "bare-lead", Predicate: Predicate{PhaseEquals: []string{"lead"}}, Label: LabelUnqualified},
		{
			Name: "lead-plus-active",
			Predicate: Predicate{
				PhaseEquals:  []string{"lead + (ro fait- echange email)"},
				StatusEquals: []string{"lead actif - en cours", "lead marketing"},
			},
			Label: LabelQualified,
		},
		{Name: "r-stage", Predicate: Predicate{PhaseContains: []string{"r1", "r2", "r3"}}, Label: LabelQualified},
	},
	Default: LabelUnqualified,
}

var propositionRules = PropositionTable{
	Name: "default",
	Rules: []PropositionRule{
		{Name: "closed", PhaseContains: []string{"signe", "compromis", "dossier"}, Value: PropositionYes},
		{Name: "out-of-target", PhaseContains: []string{"hors cible"}, Value: PropositionNo},
		{Name: "lost", PhaseContains: []string{"perdu"}, Value: PropositionVariable},
	},
	Default: PropositionPending,
}

var builtins = map[string]RuleSet{
	RuleSetSubstring: substringRules,
	RuleSetExact:     exactRules,
}

var (
	defaultRules        = mustCompile(substringRules)
	defaultPropositions = mustCompilePropositions(propositionRules)
)

// Default returns the active rule set.
func Default() *RuleSet { return defaultRules }

// DefaultPropositions returns the built-in proposition table.
func DefaultPropositions() *PropositionTable { return defaultPropositions }

// Classify applies the active rule set.
func Classify(phase, status string) Label { return defaultRules.Classify(phase, status) }

// Propose applies the built-in proposition table.
func Propose(phase string) Proposition { return defaultPropositions.Propose(phase) }

// Lookup returns a compiled built-in rule set by name. An empty name selects
// the active set.
func Lookup(name string) (*RuleSet, error) {
	if name == "" {
		return defaultRules, nil
	}
	rs, ok := builtins[name]
	if !ok {
		return nil, eris.Errorf("classify: unknown rule set %q (available: %v)", name, Names())
	}
	return Compile(rs)
}

// Names lists the built-in rule set names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func mustCompile(rs RuleSet) *RuleSet {
	c, err := Compile(rs)
	if err != nil {
		panic(err)
	}
	return c
}

func mustCompilePropositions(t PropositionTable) *PropositionTable {
	c, err := CompilePropositions(t)
	if err != nil {
		panic(err)
	}
	return c
}
