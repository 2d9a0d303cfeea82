package join

import (
	"github.com/sells-group/leadmatch/internal/classify"
	"github.com/sells-group/leadmatch/internal/status"
)

// DefaultSampleLimit caps every sample list of a Result.
const DefaultSampleLimit = 100

// Header patterns used when the classification columns are not configured.
const (
	DefaultPhasePattern      = "phase de la transaction"
	DefaultLeadStatusPattern = "statut du lead"
)

// Aliases lists candidate headers for the display fields, in priority
// order. They are resolved once per dataset against its headers.
type Aliases struct {
	Name      []string `mapstructure:"name" yaml:"name"`
	FirstName []string `mapstructure:"first_name" yaml:"first_name"`
	Email     []string `mapstructure:"email" yaml:"email"`
}

// DefaultAliases returns the header spellings seen in tracking and CRM
// exports.
func DefaultAliases() Aliases {
	return Aliases{
		Name:      []string{"nom", "name", "Nom", "Name"},
		FirstName: []string{"Prénom", "prenom", "Prenom", "PRENOM", "firstname", "firstName", "FirstName", "first_name", "First_Name"},
		Email:     []string{"email", "Email", "EMAIL"},
	}
}

// Options configures a join. The three column names are required by
// Validate; the engine itself treats absent columns as empty values.
type Options struct {
	PrimaryKeyColumn    string
	SecondaryKeyColumn  string
	PrimaryStatusColumn string

	// PhaseColumn and LeadStatusColumn name the secondary columns fed to
	// the classifier. When blank they are found by header pattern.
	PhaseColumn      string
	LeadStatusColumn string

	Policy       *status.Policy      // nil: status.DefaultPolicy()
	Classifier   classify.Classifier // nil: classify.Default()
	Propositions classify.Proposer   // nil: classify.DefaultPropositions()
	Aliases      *Aliases            // nil: DefaultAliases()
	SampleLimit  int                 // <= 0: DefaultSampleLimit
}

// Validate returns one human-readable message per missing setting.
func (o Options) Validate() []string {
	var msgs []string
	if o.PrimaryKeyColumn == "" {
		msgs = append(msgs, "primary key column is not set")
	}
	if o.SecondaryKeyColumn == "" {
		msgs = append(msgs, "secondary key column is not set")
	}
	if o.PrimaryStatusColumn == "" {
		msgs = append(msgs, "primary status column is not set")
	}
	return msgs
}

func (o Options) withDefaults() Options {
	if o.Policy == nil {
		p := status.DefaultPolicy()
		o.Policy = &p
	}
	if o.Classifier == nil {
		o.Classifier = classify.Default()
	}
	if o.Propositions == nil {
		o.Propositions = classify.DefaultPropositions()
	}
	if o.Aliases == nil {
		a := DefaultAliases()
		o.Aliases = &a
	}
	if o.SampleLimit <= 0 {
		o.SampleLimit = DefaultSampleLimit
	}
	return o
}
