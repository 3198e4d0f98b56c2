package models

// Jobs holds employment estimates in job-years (construction) and permanent jobs
type Jobs struct {
	Construction Series `json:"construction,omitempty" yaml:"construction,omitempty"`
	Operations   Series `json:"operations,omitempty" yaml:"operations,omitempty"`
	Total        Series `json:"total,omitempty" yaml:"total,omitempty"`
}

// LandUse holds land requirements in hectares
type LandUse struct {
	TotalNewLand Series                `json:"totalNewLand,omitempty" yaml:"totalNewLand,omitempty"`
	ByTechnology map[Technology]Series `json:"byTechnology,omitempty" yaml:"byTechnology,omitempty"`
}

// EmissionsMetrics holds absolute emissions and the reduction relative to the first year
type EmissionsMetrics struct {
	Absolute         Series `json:"absolute,omitempty" yaml:"absolute,omitempty"`
	ReductionPercent Series `json:"reductionPercent,omitempty" yaml:"reductionPercent,omitempty"`
}

// CapacityMetrics holds installed capacity summaries
type CapacityMetrics struct {
	TotalInstalled         Series `json:"totalInstalled,omitempty" yaml:"totalInstalled,omitempty"`
	VariableRenewableShare Series `json:"variableRenewableShare,omitempty" yaml:"variableRenewableShare,omitempty"`
}

// InvestmentMetrics holds investment summaries in million USD
type InvestmentMetrics struct {
	TotalCumulative Series   `json:"totalCumulative,omitempty" yaml:"totalCumulative,omitempty"`
	AnnualPeak      *float64 `json:"annualPeak,omitempty" yaml:"annualPeak,omitempty"`
	AverageAnnual   *float64 `json:"averageAnnual,omitempty" yaml:"averageAnnual,omitempty"`
}

// DerivedMetrics are summary statistics computed once per scenario load.
// Shares are percentages (0-100).
type DerivedMetrics struct {
	RenewableShare Series            `json:"renewableShare,omitempty" yaml:"renewableShare,omitempty"`
	FossilShare    Series            `json:"fossilShare,omitempty" yaml:"fossilShare,omitempty"`
	Jobs           Jobs              `json:"jobs" yaml:"jobs"`
	LandUse        LandUse           `json:"landUse" yaml:"landUse"`
	Emissions      EmissionsMetrics  `json:"emissions" yaml:"emissions"`
	Capacity       CapacityMetrics   `json:"capacity" yaml:"capacity"`
	Investment     InvestmentMetrics `json:"investment" yaml:"investment"`
}
