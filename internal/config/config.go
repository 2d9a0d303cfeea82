package config

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadmatch/internal/classify"
	"github.com/sells-group/leadmatch/internal/dataset"
	"github.com/sells-group/leadmatch/internal/export"
	"github.com/sells-group/leadmatch/internal/join"
	"github.com/sells-group/leadmatch/internal/status"
)

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Join     JoinConfig     `yaml:"join" mapstructure:"join"`
	Status   StatusConfig   `yaml:"status" mapstructure:"status"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// InputConfig configures how the two exports are parsed.
type InputConfig struct {
	Delimiter  string `yaml:"delimiter" mapstructure:"delimiter"`
	Encoding   string `yaml:"encoding" mapstructure:"encoding"`
	SheetName  string `yaml:"sheet_name" mapstructure:"sheet_name"`
	LazyQuotes bool   `yaml:"lazy_quotes" mapstructure:"lazy_quotes"`
}

// JoinConfig names the join columns and sample limits.
type JoinConfig struct {
	PrimaryKey               string       `yaml:"primary_key" mapstructure:"primary_key"`
	SecondaryKey             string       `yaml:"secondary_key" mapstructure:"secondary_key"`
	PrimaryStatus            string       `yaml:"primary_status" mapstructure:"primary_status"`
	PhaseColumn              string       `yaml:"phase_column" mapstructure:"phase_column"`
	LeadStatusColumn         string       `yaml:"lead_status_column" mapstructure:"lead_status_column"`
	SampleLimit              int          `yaml:"sample_limit" mapstructure:"sample_limit"`
	RequiredSecondaryColumns []string     `yaml:"required_secondary_columns" mapstructure:"required_secondary_columns"`
	Aliases                  join.Aliases `yaml:"aliases" mapstructure:"aliases"`
}

// StatusConfig configures the status emptiness policy.
type StatusConfig struct {
	EmptyTokens []string `yaml:"empty_tokens" mapstructure:"empty_tokens"`
}

// ClassifyConfig selects the classification rule table.
type ClassifyConfig struct {
	RuleSet   string `yaml:"rule_set" mapstructure:"rule_set"`
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// ExportConfig configures the result file.
type ExportConfig struct {
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	BOM       bool   `yaml:"bom" mapstructure:"bom"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("leadmatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key gets one so that AutomaticEnv can override it.
	aliases := join.DefaultAliases()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("input.delimiter", "")
	v.SetDefault("input.encoding", "utf-8")
	v.SetDefault("input.sheet_name", "")
	v.SetDefault("input.lazy_quotes", true)
	v.SetDefault("join.primary_key", "email")
	v.SetDefault("join.secondary_key", "email")
	v.SetDefault("join.primary_status", "")
	v.SetDefault("join.phase_column", "")
	v.SetDefault("join.lead_status_column", "")
	v.SetDefault("join.sample_limit", join.DefaultSampleLimit)
	v.SetDefault("join.required_secondary_columns", []string{join.DefaultPhasePattern})
	v.SetDefault("join.aliases.name", aliases.Name)
	v.SetDefault("join.aliases.first_name", aliases.FirstName)
	v.SetDefault("join.aliases.email", aliases.Email)
	v.SetDefault("status.empty_tokens", []string{status.DefaultEmptyToken})
	v.SetDefault("classify.rule_set", classify.RuleSetSubstring)
	v.SetDefault("classify.rules_file", "")
	v.SetDefault("export.format", "")
	v.SetDefault("export.output", export.DefaultFileName)
	v.SetDefault("export.delimiter", "")
	v.SetDefault("export.bom", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. Mode is the command
// name: "compare" or "diagnose".
func (c *Config) Validate(mode string) error {
	var errs []string

	if _, err := parseDelimiter(c.Input.Delimiter); err != nil {
		errs = append(errs, "input.delimiter must be a single character")
	}
	if c.Join.SampleLimit < 0 {
		errs = append(errs, "join.sample_limit must be >= 0")
	}

	switch mode {
	case "compare":
		if c.Classify.RulesFile == "" && c.Classify.RuleSet != "" {
			if _, err := classify.Lookup(c.Classify.RuleSet); err != nil {
				errs = append(errs, "classify.rule_set must be one of "+strings.Join(classify.Names(), ", "))
			}
		}
		if c.Export.Format != "" {
			if _, err := export.ParseFormat(c.Export.Format); err != nil {
				errs = append(errs, "export.format must be csv, xlsx or json")
			}
		}
		if _, err := parseDelimiter(c.Export.Delimiter); err != nil {
			errs = append(errs, "export.delimiter must be a single character")
		}
	case "diagnose":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadOptions converts the input settings to dataset loader options.
func (c InputConfig) LoadOptions() (dataset.LoadOptions, error) {
	delim, err := parseDelimiter(c.Delimiter)
	if err != nil {
		return dataset.LoadOptions{}, err
	}
	return dataset.LoadOptions{
		CSV: dataset.CSVOptions{
			Delimiter:  delim,
			Encoding:   c.Encoding,
			LazyQuotes: c.LazyQuotes,
		},
		XLSX: dataset.XLSXOptions{SheetName: c.SheetName},
	}, nil
}

// Policy builds the status emptiness policy.
func (c StatusConfig) Policy() status.Policy {
	if len(c.EmptyTokens) == 0 {
		return status.DefaultPolicy()
	}
	return status.NewPolicy(c.EmptyTokens...)
}

// Rules resolves the classification tables: the rules file when set,
// otherwise the named built-in set with the built-in proposition table.
func (c ClassifyConfig) Rules() (*classify.RuleSet, *classify.PropositionTable, error) {
	if c.RulesFile != "" {
		return classify.LoadRuleSet(c.RulesFile)
	}
	rs, err := classify.Lookup(c.RuleSet)
	if err != nil {
		return nil, nil, err
	}
	return rs, classify.DefaultPropositions(), nil
}

// JoinOptions assembles engine options from the join, status and classify
// sections.
func (c *Config) JoinOptions() (join.Options, error) {
	rs, props, err := c.Classify.Rules()
	if err != nil {
		return join.Options{}, err
	}

	policy := c.Status.Policy()
	aliases := c.Join.Aliases

	return join.Options{
		PrimaryKeyColumn:    c.Join.PrimaryKey,
		SecondaryKeyColumn:  c.Join.SecondaryKey,
		PrimaryStatusColumn: c.Join.PrimaryStatus,
		PhaseColumn:         c.Join.PhaseColumn,
		LeadStatusColumn:    c.Join.LeadStatusColumn,
		Policy:              &policy,
		Classifier:          rs,
		Propositions:        props,
		Aliases:             &aliases,
		SampleLimit:         c.Join.SampleLimit,
	}, nil
}

// CSVOptions converts the export settings to CSV writer options.
func (c ExportConfig) CSVOptions() (export.CSVOptions, error) {
	delim, err := parseDelimiter(c.Delimiter)
	if err != nil {
		return export.CSVOptions{}, err
	}
	return export.CSVOptions{Delimiter: delim, BOM: c.BOM}, nil
}

// parseDelimiter accepts "", a single character, or the names "tab" and
// "\t".
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, eris.Errorf("config: delimiter %q is not a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
