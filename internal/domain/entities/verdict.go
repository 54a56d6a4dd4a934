package entities

import "time"

// GradeTarget is a hostname together with the minimum grade it must reach
type GradeTarget struct {
	Host         string
	MinimumGrade Grade
	Options      AnalyzeOptions
}

// GradeVerdict is the outcome of evaluating one host against its minimum grade
type GradeVerdict struct {
	Host         string    `json:"host"`
	MinimumGrade Grade     `json:"minimumGrade"`
	Passed       bool      `json:"passed"`
	Endpoints    int       `json:"endpoints"`
	Failures     []string  `json:"failures,omitempty"`
	Expectation  string    `json:"expectation"`
	Error        string    `json:"error,omitempty"`
	AssessedAt   time.Time `json:"assessedAt"`
}
