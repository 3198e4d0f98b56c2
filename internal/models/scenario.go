// Package models defines the data types shared by the engine, the registry and the stores
package models

import (
	"sort"
	"strconv"
)

// Technology identifies a supply technology in a scenario
type Technology string

const (
	TechHydro          Technology = "hydro"
	TechSolarPV        Technology = "solarPV"
	TechWind           Technology = "wind"
	TechBattery        Technology = "battery"
	TechGeothermal     Technology = "geothermal"
	TechBiomass        Technology = "biomass"
	TechCoal           Technology = "coal"
	TechDiesel         Technology = "diesel"
	TechHFO            Technology = "hfo"
	TechNaturalGas     Technology = "naturalGas"
	TechNuclear        Technology = "nuclear"
	TechInterconnector Technology = "interconnector"
)

// Technologies lists every supply technology in a stable order
var Technologies = []Technology{
	TechHydro, TechSolarPV, TechWind, TechBattery, TechGeothermal, TechBiomass,
	TechCoal, TechDiesel, TechHFO, TechNaturalGas, TechNuclear, TechInterconnector,
}

// RenewableTechnologies are counted towards the renewable share
var RenewableTechnologies = []Technology{TechHydro, TechSolarPV, TechWind, TechGeothermal, TechBiomass}

// FossilTechnologies are counted towards the fossil share
var FossilTechnologies = []Technology{TechCoal, TechNaturalGas, TechDiesel, TechHFO}

// VariableTechnologies are the weather-dependent renewables
var VariableTechnologies = []Technology{TechSolarPV, TechWind}

// IsTechnology reports whether s names a known technology
func IsTechnology(s string) bool {
	for _, t := range Technologies {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Sector identifies a demand sector
type Sector string

const (
	SectorResidential Sector = "residential"
	SectorCommercial  Sector = "commercial"
	SectorIndustrial  Sector = "industrial"
	SectorTransport   Sector = "transport"
)

// IsSector reports whether s names a known demand sector
func IsSector(s string) bool {
	switch Sector(s) {
	case SectorResidential, SectorCommercial, SectorIndustrial, SectorTransport:
		return true
	}
	return false
}

// Series is a numeric time series keyed by year
type Series map[int]float64

// At returns the value for a year
func (s Series) At(year int) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s[year]
	return v, ok
}

// Years returns the years present in the series in ascending order
func (s Series) Years() []int {
	years := make([]int, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// First returns the earliest year and its value
func (s Series) First() (int, float64, bool) {
	years := s.Years()
	if len(years) == 0 {
		return 0, 0, false
	}
	return years[0], s[years[0]], true
}

// Last returns the latest year and its value
func (s Series) Last() (int, float64, bool) {
	years := s.Years()
	if len(years) == 0 {
		return 0, 0, false
	}
	y := years[len(years)-1]
	return y, s[y], true
}

// ParseYear parses a 4-digit year segment
func ParseYear(segment string) (int, bool) {
	if len(segment) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(segment)
	if err != nil || year < 1000 {
		return 0, false
	}
	return year, true
}

// ScenarioMetadata describes where a scenario came from
type ScenarioMetadata struct {
	Country      string `json:"country" yaml:"country"`
	ScenarioName string `json:"scenarioName" yaml:"scenarioName"`
	ModelVersion string `json:"modelVersion,omitempty" yaml:"modelVersion,omitempty"`
	DateCreated  string `json:"dateCreated,omitempty" yaml:"dateCreated,omitempty"`
}

// Investment holds investment series in million USD
type Investment struct {
	Annual     Series `json:"annual,omitempty" yaml:"annual,omitempty"`
	Cumulative Series `json:"cumulative,omitempty" yaml:"cumulative,omitempty"`
}

// Supply holds the supply side of a scenario.
// Capacity is in MW, generation in GWh, emissions in Mt CO2.
type Supply struct {
	Capacity   map[Technology]Series `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Generation map[Technology]Series `json:"generation,omitempty" yaml:"generation,omitempty"`
	Emissions  Series                `json:"emissions,omitempty" yaml:"emissions,omitempty"`
	Investment Investment            `json:"investment" yaml:"investment"`
}

// Demand holds the demand side of a scenario (GWh, MW for peak)
type Demand struct {
	Total    Series            `json:"total,omitempty" yaml:"total,omitempty"`
	Peak     Series            `json:"peak,omitempty" yaml:"peak,omitempty"`
	BySector map[Sector]Series `json:"bySector,omitempty" yaml:"bySector,omitempty"`
}

// Scenario is a national energy scenario as produced by a planning model.
// The engine treats it as read-only.
type Scenario struct {
	Metadata       ScenarioMetadata `json:"metadata" yaml:"metadata"`
	MilestoneYears []int            `json:"milestoneYears,omitempty" yaml:"milestoneYears,omitempty"`
	Supply         Supply           `json:"supply" yaml:"supply"`
	Demand         Demand           `json:"demand" yaml:"demand"`

	// Indicators carries supplementary figures keyed by metric path,
	// e.g. "investment.privateSectorShare" or "access.electrificationRate.2030".
	Indicators map[string]float64 `json:"indicators,omitempty" yaml:"indicators,omitempty"`
}

// FinalYear returns the last milestone year, falling back to the latest
// year found in the cumulative investment or capacity series
func (s *Scenario) FinalYear() (int, bool) {
	if s == nil {
		return 0, false
	}
	if n := len(s.MilestoneYears); n > 0 {
		years := append([]int(nil), s.MilestoneYears...)
		sort.Ints(years)
		return years[n-1], true
	}
	if y, _, ok := s.Supply.Investment.Cumulative.Last(); ok {
		return y, true
	}
	latest, found := 0, false
	for _, series := range s.Supply.Capacity {
		if y, _, ok := series.Last(); ok && y > latest {
			latest, found = y, true
		}
	}
	return latest, found
}

// Years returns all milestone years, or the union of capacity years when
// no milestones are declared
func (s *Scenario) Years() []int {
	if s == nil {
		return nil
	}
	if len(s.MilestoneYears) > 0 {
		years := append([]int(nil), s.MilestoneYears...)
		sort.Ints(years)
		return years
	}
	seen := make(map[int]bool)
	var years []int
	for _, series := range s.Supply.Capacity {
		for y := range series {
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	sort.Ints(years)
	return years
}
