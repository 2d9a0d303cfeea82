package join

import (
	"github.com/sells-group/leadmatch/internal/classify"
)

// Record is one emitted result row: primary display fields, secondary
// classification inputs and the computed outcome.
type Record struct {
	Key         string               `json:"key"`
	Name        string               `json:"name"`
	FirstName   string               `json:"first_name"`
	SheetStatus string               `json:"sheet_status"`
	Phase       string               `json:"phase"`
	LeadStatus  string               `json:"lead_status"`
	Label       classify.Label       `json:"label"`
	Proposition classify.Proposition `json:"proposition"`
}

// Duplicates describes keys seen more than once on each side.
type Duplicates struct {
	// PrimaryCount is the number of distinct primary keys seen twice or more.
	PrimaryCount int `json:"sheet_count"`
	// SecondaryCount is the number of extra secondary rows beyond the first
	// at each key.
	SecondaryCount int `json:"hubspot_count"`

	PrimaryKeys         []string `json:"sheet_keys"`
	SecondaryKeys       []string `json:"hubspot_keys"`
	PrimaryNames        []string `json:"sheet_names"`
	PrimaryFirstNames   []string `json:"sheet_first_names"`
	SecondaryNames      []string `json:"hubspot_names"`
	SecondaryFirstNames []string `json:"hubspot_first_names"`
}

// Unmatched holds identifying fields of primary rows that had no usable key
// or no secondary match.
type Unmatched struct {
	Emails     []string `json:"emails"`
	Names      []string `json:"names"`
	FirstNames []string `json:"first_names"`
}

// Columns records the columns a join actually read.
type Columns struct {
	PrimaryKey       string   `json:"primary_key"`
	SecondaryKey     string   `json:"secondary_key"`
	PrimaryStatus    string   `json:"primary_status"`
	Phase            string   `json:"phase"`
	LeadStatus       string   `json:"lead_status"`
	PrimaryName      []string `json:"primary_name"`
	PrimaryFirstName []string `json:"primary_first_name"`
}

// Result is the full output of a join. Presentation and export read it and
// never recompute its statistics.
type Result struct {
	Records []Record `json:"results"`

	TotalProcessed int `json:"total_processed"`
	MatchedCount   int `json:"matched_count"`
	UnmatchedCount int `json:"unmatched_count"`
	// FilteredCount is the number of primary rows whose status was set.
	FilteredCount int `json:"filtered_count"`
	// IgnoredCount is the number of matched pairs classified Ignore.
	IgnoredCount int `json:"ignored_count"`

	Duplicates Duplicates `json:"duplicates"`
	Unmatched  Unmatched  `json:"unmatched_details"`

	LabelCounts       map[classify.Label]int       `json:"label_counts"`
	PropositionCounts map[classify.Proposition]int `json:"proposition_counts"`

	Columns     Columns `json:"columns"`
	SampleLimit int     `json:"sample_limit"`
}

// sampler appends non-blank values to a list until it holds limit entries.
type sampler struct {
	limit int
}

func (s sampler) add(list *[]string, v string) {
	if v == "" || len(*list) >= s.limit {
		return
	}
	*list = append(*list, v)
}
