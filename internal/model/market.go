package model

import "time"

// Grade is the three-level market health classification assigned during
// ingestion. It is stored with the statistics row and never recomputed by
// the analysis layer.
type Grade string

const (
	GradeGreen  Grade = "GREEN"
	GradeYellow Grade = "YELLOW"
	GradeRed    Grade = "RED"
)

// GradeInfo carries the display metadata for a grade.
type GradeInfo struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// gradeTable is the fixed grade metadata lookup. Initialized once, read-only.
var gradeTable = map[Grade]GradeInfo{
	GradeGreen:  {Label: "safe", Description: "recommended market", Color: "#00FF00"},
	GradeYellow: {Label: "caution", Description: "watch market", Color: "#FFFF00"},
	GradeRed:    {Label: "risk", Description: "risky market", Color: "#FF0000"},
}

// Info returns the display metadata for the grade. Unknown grades fall back
// to the YELLOW metadata so a malformed row never renders an empty legend.
func (g Grade) Info() GradeInfo {
	if info, ok := gradeTable[g]; ok {
		return info
	}
	return gradeTable[GradeYellow]
}

// Valid reports whether g is one of the three known grades.
func (g Grade) Valid() bool {
	_, ok := gradeTable[g]
	return ok
}

// Region is an administrative area. AdmCode is the stable administrative
// code used as the lookup key; the name parts are for display.
type Region struct {
	ID       int64  `json:"id"`
	Province string `json:"province"`
	District string `json:"district"`
	Town     string `json:"town,omitempty"`
	AdmCode  string `json:"adm_code"`
}

// DisplayName joins the name parts the way the detail view renders them.
func (r Region) DisplayName() string {
	name := r.Province + " " + r.District
	if r.Town != "" {
		name += " " + r.Town
	}
	return name
}

// Category is a business type, e.g. "korean restaurant" or "cafe".
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MarketStats is one per-region-per-category statistics snapshot. Rows are
// produced by the ingestion job and read-only afterwards; the analysis layer
// derives scores and badges into response structures without mutating them.
type MarketStats struct {
	ID       int64    `json:"id"`
	Region   Region   `json:"region"`
	Category Category `json:"category"`

	StoreCount         int `json:"store_count"`
	FloatingPopulation int `json:"floating_population"`
	MalePopulation     int `json:"male_population"`
	FemalePopulation   int `json:"female_population"`

	// AgeGroup is the dominant customer age band, e.g. "30s". Empty until
	// the demographic collection has run for this row.
	AgeGroup string `json:"age_group,omitempty"`

	AverageSales  int64   `json:"average_sales"`
	GrowthRate    float64 `json:"growth_rate"`
	ClosingRate   float64 `json:"closing_rate"`
	NetGrowthRate float64 `json:"net_growth_rate"`

	Grade Grade `json:"grade"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
