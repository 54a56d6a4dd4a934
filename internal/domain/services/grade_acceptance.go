package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ochairo/gradegate/internal/domain/entities"
)

// ErrInvalidArgument is returned when a minimum grade is missing or unknown
var ErrInvalidArgument = errors.New("invalid argument")

// GradeAcceptance decides whether every endpoint of a host meets a minimum grade.
// It is immutable after construction and safe for concurrent use.
type GradeAcceptance struct {
	minimum    entities.Grade
	acceptable map[string]struct{}
}

// NewGradeAcceptance builds the set of acceptable grades: every grade from A+
// down to and including minimumGrade
func NewGradeAcceptance(minimumGrade string) (*GradeAcceptance, error) {
	minimum := entities.Grade(minimumGrade)
	if !minimum.Valid() {
		return nil, fmt.Errorf("%w: minimumGrade must be one of %v, got %q",
			ErrInvalidArgument, entities.Grades(), minimumGrade)
	}

	acceptable := make(map[string]struct{})
	for _, grade := range entities.Grades() {
		acceptable[string(grade)] = struct{}{}
		if grade == minimum {
			break
		}
	}

	return &GradeAcceptance{minimum: minimum, acceptable: acceptable}, nil
}

// Minimum returns the configured minimum grade
func (a *GradeAcceptance) Minimum() entities.Grade {
	return a.minimum
}

// AcceptableGrades returns the acceptable grades ordered best first
func (a *GradeAcceptance) AcceptableGrades() []entities.Grade {
	out := make([]entities.Grade, 0, len(a.acceptable))
	for _, grade := range entities.Grades() {
		if _, ok := a.acceptable[string(grade)]; ok {
			out = append(out, grade)
		}
	}
	return out
}

// Accepts reports whether a single grade string is acceptable.
// Strings outside the grade scale are never accepted.
func (a *GradeAcceptance) Accepts(grade string) bool {
	_, ok := a.acceptable[grade]
	return ok
}

// IsSatisfiedBy reports whether every endpoint of host has an acceptable grade.
// A host without endpoints satisfies any minimum.
func (a *GradeAcceptance) IsSatisfiedBy(host *entities.Host) bool {
	return len(a.failingEndpoints(host)) == 0
}

// ExplainFailure lists failing endpoints as "<address>:<grade>" in host order
func (a *GradeAcceptance) ExplainFailure(host *entities.Host) []string {
	failing := a.failingEndpoints(host)
	out := make([]string, 0, len(failing))
	for _, endpoint := range failing {
		out = append(out, endpoint.IPAddress+":"+endpoint.Grade)
	}
	return out
}

// DescribeExpectation renders the acceptable grade set for failure messages
func (a *GradeAcceptance) DescribeExpectation() string {
	return "expected all host endpoint grades to be in " + valueList(gradeStrings(a.AcceptableGrades()))
}

// DescribeMismatch renders the failing endpoints of host for failure messages
func (a *GradeAcceptance) DescribeMismatch(host *entities.Host) string {
	return "was " + valueList(a.ExplainFailure(host))
}

func (a *GradeAcceptance) failingEndpoints(host *entities.Host) []entities.Endpoint {
	if host == nil {
		return nil
	}
	var failing []entities.Endpoint
	for _, endpoint := range host.Endpoints {
		if !a.Accepts(endpoint.Grade) {
			failing = append(failing, endpoint)
		}
	}
	return failing
}

func gradeStrings(grades []entities.Grade) []string {
	out := make([]string, len(grades))
	for i, g := range grades {
		out[i] = string(g)
	}
	return out
}

func valueList(values []string) string {
	return "[" + strings.Join(values, ",") + "]"
}
