package classify

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk layout: one rule set and an optional proposition
// table under top-level keys.
type ruleFile struct {
	Classification RuleSet           `yaml:"classification"`
	Propositions   *PropositionTable `yaml:"propositions,omitempty"`
}

// LoadRuleSet reads a YAML rule file. When the file declares no proposition
// table the built-in one is returned.
func LoadRuleSet(path string) (*RuleSet, *PropositionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "classify: read rules %s", path)
	}
	return ParseRuleSet(data)
}

// ParseRuleSet parses and compiles the YAML rule file layout.
func ParseRuleSet(data []byte) (*RuleSet, *PropositionTable, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, eris.Wrap(err, "classify: parse rules")
	}

	rs, err := Compile(f.Classification)
	if err != nil {
		return nil, nil, err
	}

	if f.Propositions == nil {
		return rs, defaultPropositions, nil
	}
	props, err := CompilePropositions(*f.Propositions)
	if err != nil {
		return nil, nil, err
	}
	return rs, props, nil
}

// MarshalYAML renders rs in the rule file layout, suitable for LoadRuleSet.
func MarshalYAML(rs *RuleSet, props *PropositionTable) ([]byte, error) {
	out, err := yaml.Marshal(ruleFile{Classification: *rs, Propositions: props})
	if err != nil {
		return nil, eris.Wrap(err, "classify: marshal rules")
	}
	return out, nil
}
