package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/benevolat/permaplan/pkg/core/planner"
)

// Weights configures the objective term weights.
type Weights struct {
	Feasibility   int64 `yaml:"feasibility" validate:"min=0"`
	Generosity    int64 `yaml:"generosity" validate:"min=0"`
	PreferenceGap int64 `yaml:"preferenceGap" validate:"min=0"`
}

// Config represents the application configuration.
type Config struct {
	// Month and Year select the calendar the roster's day numbers map to.
	Month int `yaml:"month" validate:"required,min=1,max=12"`
	Year  int `yaml:"year" validate:"required,min=2000"`

	// RosterPath is the default roster file; the CLI flag overrides it.
	RosterPath string `yaml:"rosterPath,omitempty"`

	MinStaff       int `yaml:"minStaff" validate:"min=1"`
	MaxStaff       int `yaml:"maxStaff" validate:"min=1"`
	RestWindowDays int `yaml:"restWindowDays" validate:"min=0"`
	ReferentCap    int `yaml:"referentCap" validate:"min=0"`
	WorkloadCap    int `yaml:"workloadCap" validate:"min=0"`

	AllowOutsideAvailability bool `yaml:"allowOutsideAvailability"`

	// ShiftPattern optionally restricts shift days to an RRULE recurrence
	// (e.g. "FREQ=WEEKLY;BYDAY=TU,SA").
	ShiftPattern string `yaml:"shiftPattern,omitempty"`

	TimeBudgetSeconds int `yaml:"timeBudgetSeconds" validate:"min=0"`
	SolverWorkers     int `yaml:"solverWorkers" validate:"min=1"`

	Weights Weights `yaml:"weights"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the reference configuration. Month and Year carry no
// default: callers must set them before validation.
func Default() *Config {
	rules := planner.DefaultRules()
	weights := planner.DefaultWeights()
	return &Config{
		MinStaff:                 rules.MinStaff,
		MaxStaff:                 rules.MaxStaff,
		RestWindowDays:           rules.RestWindowDays,
		ReferentCap:              rules.ReferentCap,
		WorkloadCap:              rules.WorkloadCap,
		AllowOutsideAvailability: rules.AllowOutsideAvailability,
		TimeBudgetSeconds:        30,
		SolverWorkers:            2,
		Weights: Weights{
			Feasibility:   weights.Feasibility,
			Generosity:    weights.Generosity,
			PreferenceGap: weights.PreferenceGap,
		},
	}
}

// Load loads and validates the configuration from permaplan.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Omitted fields keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration struct, the staffing bounds, and the
// shift pattern rrule syntax.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.MaxStaff < cfg.MinStaff {
		return fmt.Errorf("config validation failed: maxStaff %d below minStaff %d", cfg.MaxStaff, cfg.MinStaff)
	}

	if cfg.ShiftPattern != "" {
		if _, err := rrule.StrToROption(cfg.ShiftPattern); err != nil {
			return fmt.Errorf("invalid shiftPattern rrule: %w", err)
		}
	}
	return nil
}

// PlannerConfig maps the file configuration onto the planner's.
func (cfg *Config) PlannerConfig() planner.Config {
	return planner.Config{
		Rules: planner.Rules{
			MinStaff:                 cfg.MinStaff,
			MaxStaff:                 cfg.MaxStaff,
			RestWindowDays:           cfg.RestWindowDays,
			ReferentCap:              cfg.ReferentCap,
			WorkloadCap:              cfg.WorkloadCap,
			AllowOutsideAvailability: cfg.AllowOutsideAvailability,
		},
		Weights: planner.Weights{
			Feasibility:   cfg.Weights.Feasibility,
			Generosity:    cfg.Weights.Generosity,
			PreferenceGap: cfg.Weights.PreferenceGap,
		},
		TimeBudget: time.Duration(cfg.TimeBudgetSeconds) * time.Second,
		Workers:    cfg.SolverWorkers,
	}
}

// ShiftPatternRule builds the recurrence rule anchored on the first day of
// the target month, or nil when no pattern is configured.
func (cfg *Config) ShiftPatternRule() (*rrule.RRule, error) {
	if cfg.ShiftPattern == "" {
		return nil, nil
	}
	opt, err := rrule.StrToROption(cfg.ShiftPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid shiftPattern rrule: %w", err)
	}
	opt.Dtstart = time.Date(cfg.Year, time.Month(cfg.Month), 1, 0, 0, 0, 0, time.UTC)
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid shiftPattern rrule: %w", err)
	}
	return rule, nil
}

// findConfigFile searches for permaplan.yaml in current directory and home
// directory.
func findConfigFile() (string, error) {
	configFileName := "permaplan.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
