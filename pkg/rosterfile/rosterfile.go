// Package rosterfile loads volunteer rosters from YAML files. It stands in
// for the spreadsheet export the roster historically came from: whatever
// produced the file, the planner only ever sees clean roster records.
package rosterfile

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/benevolat/permaplan/pkg/core/roster"
)

// VolunteerEntry is one volunteer row in the roster file. Raw values are
// kept as strings; sentinel handling happens in the roster package.
type VolunteerEntry struct {
	Name           string `yaml:"name" validate:"required"`
	PreferredCount string `yaml:"preferredCount" validate:"required"`
	Referent       string `yaml:"referent,omitempty"`
	LastAssignment string `yaml:"lastAssignment,omitempty"`
	AvailableDays  []int  `yaml:"availableDays,omitempty" validate:"dive,min=1,max=31"`
	SurstaffDays   []int  `yaml:"surstaffDays,omitempty" validate:"dive,min=1,max=31"`
}

// File is the top-level roster file structure.
type File struct {
	Volunteers []VolunteerEntry `yaml:"volunteers" validate:"required,min=1,dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load reads and validates a roster file and returns the raw records for
// roster construction.
func Load(path string) ([]roster.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	return Parse(data)
}

// Parse validates roster file contents and returns the raw records.
func Parse(data []byte) ([]roster.Record, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}

	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("roster file validation failed: %w", err)
	}

	records := make([]roster.Record, len(f.Volunteers))
	for i, v := range f.Volunteers {
		records[i] = roster.Record{
			Name:              v.Name,
			PreferredCountRaw: v.PreferredCount,
			IsReferentRaw:     v.Referent,
			LastAssignmentRaw: v.LastAssignment,
			AvailableDays:     v.AvailableDays,
			SurstaffDays:      v.SurstaffDays,
		}
	}
	return records, nil
}
