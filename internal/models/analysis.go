package models

import (
	"time"
)

// SystemType classifies the electrical system shown in a diagram.
type SystemType string

const (
	SystemGenerator      SystemType = "generator"
	SystemSolar          SystemType = "solar"
	SystemMotor          SystemType = "motor"
	SystemPanel          SystemType = "panel"
	SystemTransformer    SystemType = "transformer"
	SystemResidential    SystemType = "residential"
	SystemCommercial     SystemType = "commercial"
	SystemIndustrial     SystemType = "industrial"
	SystemEVCharging     SystemType = "ev_charging"
	SystemBatteryStorage SystemType = "battery_storage"

	// DefaultSystemType is used when detection is inconclusive
	DefaultSystemType = SystemCommercial
)

// SystemTypeArticles maps each system type to the NEC articles relevant to it.
// Every defined type maps to a non-empty set.
var SystemTypeArticles = map[SystemType][]int{
	SystemGenerator:      {445, 700, 702, 705, 250, 240},
	SystemSolar:          {690, 705, 250, 240},
	SystemMotor:          {430, 440, 250, 240},
	SystemPanel:          {408, 240, 250},
	SystemTransformer:    {450, 480, 250, 240},
	SystemResidential:    {210, 220, 230, 240, 250},
	SystemCommercial:     {210, 215, 220, 230, 240, 250},
	SystemIndustrial:     {430, 440, 450, 480, 240, 250},
	SystemEVCharging:     {625, 240, 250},
	SystemBatteryStorage: {480, 706, 240, 250},
}

// FallbackArticles is the minimal article set used for unrecognized system
// types: overcurrent protection and grounding always apply.
var FallbackArticles = []int{240, 250}

// IsValid reports whether t is one of the defined system types.
func (t SystemType) IsValid() bool {
	_, ok := SystemTypeArticles[t]
	return ok
}

// Articles returns the article set for this system type, falling back to
// FallbackArticles for unrecognized values. Never returns an empty set.
func (t SystemType) Articles() []int {
	if articles, ok := SystemTypeArticles[t]; ok {
		return articles
	}
	return FallbackArticles
}

// FindingStatus is the outcome of one compliance check.
type FindingStatus string

const (
	StatusPass          FindingStatus = "pass"
	StatusWarning       FindingStatus = "warning"
	StatusFail          FindingStatus = "fail"
	StatusNotApplicable FindingStatus = "not_applicable"
)

// IsRecognized reports whether s is one of the four recognized status values.
// Comparison is exact and case-sensitive; anything else is excluded from
// summary counts but retained in the findings list.
func (s FindingStatus) IsRecognized() bool {
	switch s {
	case StatusPass, StatusWarning, StatusFail, StatusNotApplicable:
		return true
	}
	return false
}

// DiagramLocation identifies where in the diagram a finding applies.
type DiagramLocation struct {
	Sheet  int    `json:"sheet"`
	Region string `json:"region"`
}

// Finding is one compliance check result produced by the model.
type Finding struct {
	ID          string          `json:"id"`       // unique within a response, convention "rc<n>"
	Name        string          `json:"name"`     // descriptive check name
	Status      FindingStatus   `json:"status"`   // pass, warning, fail, not_applicable
	Standard    string          `json:"standard"` // NEC code reference, e.g. "NEC 445.12"
	Message     string          `json:"message"`  // brief result
	Description string          `json:"description"`
	Location    DiagramLocation `json:"location"`
}

// ComplianceSummary aggregates findings into per-status counts and a score.
// Computed once per analysis, never mutated afterward.
type ComplianceSummary struct {
	TotalCodesEvaluated int     `json:"total_codes_evaluated"` // excludes not_applicable and unrecognized statuses
	PassingCount        int     `json:"passing_count"`
	WarningCount        int     `json:"warning_count"`
	FailingCount        int     `json:"failing_count"`
	NotApplicableCount  int     `json:"not_applicable_count"`
	ComplianceScore     float64 `json:"compliance_score"` // 0-100, one decimal place
}

// AnalysisRecord is the top-level persisted analysis result. Insert-only:
// created once per analysis request and never updated.
type AnalysisRecord struct {
	ID                 string            `json:"analysis_id"`
	Status             string            `json:"status"` // "completed"
	CreatedAt          time.Time         `json:"created_at"`
	CodeVersion        string            `json:"code_version"`
	SystemType         SystemType        `json:"system_type"`
	DiagramDescription string            `json:"diagram_description"`
	Findings           []Finding         `json:"findings"`
	Summary            ComplianceSummary `json:"summary"`
}

// AnalyzeRequest is the JSON body for POST /api/analyze.
type AnalyzeRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required,base64"`
	CodeVersion string `json:"code_version"`
}
