package http

import (
	"github.com/fyrsmithlabs/figclass/internal/decision"
	"github.com/fyrsmithlabs/figclass/internal/widget"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ClassifyResponse is the response body for POST /api/v1/classify.
// Analyses is only populated with ?explain=true.
type ClassifyResponse struct {
	Schema   widget.Schema              `json:"schema"`
	Issues   []decision.StructuralIssue `json:"issues,omitempty"`
	Analyses []decision.AnalysisResult  `json:"analyses,omitempty"`
}
