// Package classify maps CRM phase (and optionally lead status) values to a
// qualification label and a proposition value using ordered rule tables.
//
// Rules are evaluated in order and the first match wins. Rule sets overlap
// on purpose ("lead marketing" also contains "lead"), so order is part of a
// table's meaning.
package classify

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadmatch/internal/normalize"
)

// Label is a qualification outcome.
type Label string

// Labels produced by the built-in rule sets.
const (
	LabelQualified     Label = "Qualifié"
	LabelUnqualified   Label = "Non qualifié"
	LabelMarketingLead Label = "Lead marketing"

	// LabelIgnore means no result row is emitted. It is distinct from a
	// blank label.
	LabelIgnore Label = "ignore"
)

// Ignored reports whether l is the Ignore sentinel.
func (l Label) Ignored() bool { return l == LabelIgnore }

// ParseLabel maps a configured label to a Label; any spelling of "ignore"
// yields LabelIgnore, everything else is kept verbatim.
func ParseLabel(s string) Label {
	if normalize.ForComparison(s) == string(LabelIgnore) {
		return LabelIgnore
	}
	return Label(strings.TrimSpace(s))
}

// Classifier assigns a label to a matched pair's classification inputs.
type Classifier interface {
	Classify(phase, status string) Label
}

// Predicate matches normalized phase and status values. A predicate with no
// phase clause accepts any phase; one with no status clause accepts any
// status.
type Predicate struct {
	PhaseContains []string `yaml:"phase_contains,omitempty" json:"phase_contains,omitempty"`
	PhaseEquals   []string `yaml:"phase_equals,omitempty" json:"phase_equals,omitempty"`
	StatusEquals  []string `yaml:"status_equals,omitempty" json:"status_equals,omitempty"`
}

func (p Predicate) empty() bool {
	return len(p.PhaseContains) == 0 && len(p.PhaseEquals) == 0 && len(p.StatusEquals) == 0
}

// blankClause reports a clause that was configured but held only blank
// tokens, which would otherwise compile to "accept anything".
func (p Predicate) blankClause(compiled Predicate) bool {
	return (len(p.PhaseContains) > 0 && len(compiled.PhaseContains) == 0) ||
		(len(p.PhaseEquals) > 0 && len(compiled.PhaseEquals) == 0) ||
		(len(p.StatusEquals) > 0 && len(compiled.StatusEquals) == 0)
}

func (p Predicate) compile() Predicate {
	return Predicate{
		PhaseContains: normalizeTokens(p.PhaseContains),
		PhaseEquals:   normalizeTokens(p.PhaseEquals),
		StatusEquals:  normalizeTokens(p.StatusEquals),
	}
}

// matches expects phase and status already in comparison form.
func (p Predicate) matches(phase, status string) bool {
	phaseOK := len(p.PhaseContains) == 0 && len(p.PhaseEquals) == 0
	for _, tok := range p.PhaseContains {
		if strings.Contains(phase, tok) {
			phaseOK = true
			break
		}
	}
	if !phaseOK {
		for _, tok := range p.PhaseEquals {
			if phase == tok {
				phaseOK = true
				break
			}
		}
	}
	if !phaseOK {
		return false
	}

	if len(p.StatusEquals) == 0 {
		return true
	}
	for _, tok := range p.StatusEquals {
		if status == tok {
			return true
		}
	}
	return false
}

// Rule pairs a predicate with the label it yields.
type Rule struct {
	Name      string `yaml:"name" json:"name"`
	Predicate `yaml:",inline"`
	Label     Label `yaml:"label" json:"label"`
}

// RuleSet is a versioned, ordered rule table.
type RuleSet struct {
	Name        string `yaml:"name" json:"name"`
	Version     int    `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Rules       []Rule `yaml:"rules" json:"rules"`
	Default     Label  `yaml:"default" json:"default"`
}

// Compile validates rs and returns a copy with every token normalized.
// A blank Default becomes LabelIgnore.
func Compile(rs RuleSet) (*RuleSet, error) {
	if len(rs.Rules) == 0 {
		return nil, eris.Errorf("classify: rule set %q has no rules", rs.Name)
	}

	out := &RuleSet{
		Name:        rs.Name,
		Version:     rs.Version,
		Description: rs.Description,
		Rules:       make([]Rule, len(rs.Rules)),
		Default:     ParseLabel(string(rs.Default)),
	}
	if out.Default == "" {
		out.Default = LabelIgnore
	}

	for i, r := range rs.Rules {
		pred := r.Predicate.compile()
		if pred.empty() {
			return nil, eris.Errorf("classify: rule %d (%s) of %q has no predicate", i+1, r.Name, rs.Name)
		}
		if r.Predicate.blankClause(pred) {
			return nil, eris.Errorf("classify: rule %d (%s) of %q has a clause with only blank tokens", i+1, r.Name, rs.Name)
		}
		label := ParseLabel(string(r.Label))
		if label == "" {
			return nil, eris.Errorf("classify: rule %d (%s) of %q has no label", i+1, r.Name, rs.Name)
		}
		out.Rules[i] = Rule{Name: r.Name, Predicate: pred, Label: label}
	}
	return out, nil
}

// Classify normalizes phase and status and returns the label of the first
// matching rule, or the set's default.
func (rs *RuleSet) Classify(phase, status string) Label {
	if r, ok := rs.Match(phase, status); ok {
		return r.Label
	}
	return rs.Default
}

// Match returns the first rule accepting phase and status.
func (rs *RuleSet) Match(phase, status string) (Rule, bool) {
	p := normalize.ForComparison(phase)
	s := normalize.ForComparison(status)
	for _, r := range rs.Rules {
		if r.matches(p, s) {
			return r, true
		}
	}
	return Rule{}, false
}

// Labels returns the distinct labels rs can produce, rule order first and
// the default last.
func (rs *RuleSet) Labels() []Label {
	seen := make(map[Label]struct{})
	var out []Label
	add := func(l Label) {
		if _, ok := seen[l]; ok {
			return
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	for _, r := range rs.Rules {
		add(r.Label)
	}
	add(rs.Default)
	return out
}

func normalizeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if n := normalize.ForComparison(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
