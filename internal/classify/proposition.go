package classify

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadmatch/internal/normalize"
)

// Proposition says whether a matched lead led to an offer.
type Proposition string

// Proposition values of the built-in table.
const (
	PropositionYes      Proposition = "Oui"
	PropositionNo       Proposition = "Non"
	PropositionVariable Proposition = "Variable"
	PropositionPending  Proposition = "On attend"
)

// Proposer derives a proposition from a phase value. It is independent of
// Classifier: callers decide whether to run it for ignored pairs.
type Proposer interface {
	Propose(phase string) Proposition
}

// PropositionRule yields Value when the phase contains one of PhaseContains.
type PropositionRule struct {
	Name          string      `yaml:"name" json:"name"`
	PhaseContains []string    `yaml:"phase_contains" json:"phase_contains"`
	Value         Proposition `yaml:"value" json:"value"`
}

// PropositionTable is an ordered proposition rule table; first match wins.
type PropositionTable struct {
	Name    string            `yaml:"name" json:"name"`
	Rules   []PropositionRule `yaml:"rules" json:"rules"`
	Default Proposition       `yaml:"default" json:"default"`
}

// CompilePropositions validates t and returns a copy with normalized tokens.
// A blank Default becomes PropositionPending.
func CompilePropositions(t PropositionTable) (*PropositionTable, error) {
	out := &PropositionTable{
		Name:    t.Name,
		Rules:   make([]PropositionRule, len(t.Rules)),
		Default: t.Default,
	}
	if out.Default == "" {
		out.Default = PropositionPending
	}
	for i, r := range t.Rules {
		tokens := normalizeTokens(r.PhaseContains)
		if len(tokens) == 0 {
			return nil, eris.Errorf("classify: proposition rule %d (%s) has no tokens", i+1, r.Name)
		}
		if strings.TrimSpace(string(r.Value)) == "" {
			return nil, eris.Errorf("classify: proposition rule %d (%s) has no value", i+1, r.Name)
		}
		out.Rules[i] = PropositionRule{Name: r.Name, PhaseContains: tokens, Value: r.Value}
	}
	return out, nil
}

// Propose returns the value of the first rule whose token the normalized
// phase contains, or the table default.
func (t *PropositionTable) Propose(phase string) Proposition {
	p := normalize.ForComparison(phase)
	for _, r := range t.Rules {
		for _, tok := range r.PhaseContains {
			if strings.Contains(p, tok) {
				return r.Value
			}
		}
	}
	return t.Default
}
