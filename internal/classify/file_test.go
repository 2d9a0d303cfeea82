package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customRules = `
classification:
  name: b2b
  version: 4
  rules:
    - name: signed
      phase_contains: ["Signé"]
      label: Qualifié
    - name: active-lead
      phase_equals: ["lead"]
      status_equals: ["Lead actif - en cours"]
      label: Lead marketing
  default: Non qualifié
propositions:
  name: b2b
  rules:
    - name: signed
      phase_contains: ["signé"]
      value: Oui
  default: Non
`

func TestLoadRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customRules), 0o644))

	rs, props, err := LoadRuleSet(path)
	require.NoError(t, err)

	assert.Equal(t, "b2b", rs.Name)
	assert.Equal(t, 4, rs.Version)
	require.Len(t, rs.Rules, 2)
	assert.Equal(t, LabelQualified, rs.Classify("Compromis SIGNE", ""))
	assert.Equal(t, LabelMarketingLead, rs.Classify("Lead", "lead actif - en cours"))
	assert.Equal(t, LabelUnqualified, rs.Classify("Lead", ""))

	assert.Equal(t, PropositionYes, props.Propose("signé"))
	assert.Equal(t, PropositionNo, props.Propose("r1"))
}

func TestParseRuleSet_DefaultPropositions(t *testing.T) {
	data := []byte(`
classification:
  name: minimal
  rules:
    - phase_contains: [r1]
      label: Qualifié
`)
	rs, props, err := ParseRuleSet(data)
	require.NoError(t, err)
	assert.Equal(t, LabelIgnore, rs.Default)
	assert.Same(t, DefaultPropositions(), props)
}

func TestParseRuleSet_Invalid(t *testing.T) {
	_, _, err := ParseRuleSet([]byte("classification: ["))
	assert.Error(t, err)

	_, _, err = ParseRuleSet([]byte("classification:\n  name: none\n"))
	assert.Error(t, err)
}

func TestLoadRuleSet_MissingFile(t *testing.T) {
	_, _, err := LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalYAML_RoundTripsBuiltin(t *testing.T) {
	data, err := MarshalYAML(Default(), DefaultPropositions())
	require.NoError(t, err)

	rs, props, err := ParseRuleSet(data)
	require.NoError(t, err)
	assert.Equal(t, Default().Classify("R1", ""), rs.Classify("R1", ""))
	assert.Equal(t, Default().Classify("Lead Marketing", ""), rs.Classify("Lead Marketing", ""))
	assert.Equal(t, DefaultPropositions().Propose("perdu"), props.Propose("perdu"))
}
