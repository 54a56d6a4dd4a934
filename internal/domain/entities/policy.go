package entities

// GradePolicy is a named set of hosts that must meet minimum grades
type GradePolicy struct {
	Name          string
	Description   string
	MinimumGrade  Grade // default for targets that do not set their own
	MaxConcurrent int
	Options       AnalyzeOptions
	Targets       []GradeTarget
}
