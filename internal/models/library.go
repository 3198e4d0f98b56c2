package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedScenario is a scenario stored in the library under a unique name
type SavedScenario struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Country          string    `json:"country,omitempty"`
	CreatedTimestamp float64   `json:"created_timestamp"`
	UpdatedTimestamp float64   `json:"updated_timestamp"`
	Scenario         *Scenario `json:"scenario"`
}

// NewSavedScenario wraps s for storage. The country is taken from the
// scenario metadata.
func NewSavedScenario(name string, s *Scenario) *SavedScenario {
	now := float64(time.Now().UnixMilli()) / 1000.0
	saved := &SavedScenario{
		ID:               uuid.New().String(),
		Name:             name,
		CreatedTimestamp: now,
		UpdatedTimestamp: now,
		Scenario:         s,
	}
	if s != nil {
		saved.Country = s.Metadata.Country
	}
	return saved
}

// Summary drops the scenario payload
func (s *SavedScenario) Summary() ScenarioSummary {
	return ScenarioSummary{
		ID:               s.ID,
		Name:             s.Name,
		Country:          s.Country,
		CreatedTimestamp: s.CreatedTimestamp,
		UpdatedTimestamp: s.UpdatedTimestamp,
	}
}

// ScenarioSummary lists a library entry without its payload
type ScenarioSummary struct {
	ID               string  `json:"id" db:"id"`
	Name             string  `json:"name" db:"name"`
	Country          string  `json:"country,omitempty" db:"country"`
	CreatedTimestamp float64 `json:"created_timestamp" db:"created_timestamp"`
	UpdatedTimestamp float64 `json:"updated_timestamp" db:"updated_timestamp"`
}
