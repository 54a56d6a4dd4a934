package entities

import "fmt"

// Grade is an SSL Labs letter grade for a single endpoint
type Grade string

// Recognized grades
const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeB      Grade = "B"
	GradeC      Grade = "C"
	GradeD      Grade = "D"
	GradeE      Grade = "E"
	GradeF      Grade = "F"
)

// grades is the fixed scale, best first
var grades = [...]Grade{GradeAPlus, GradeA, GradeAMinus, GradeB, GradeC, GradeD, GradeE, GradeF}

// Grades returns the grade scale ordered from best to worst.
// The returned slice is a copy and may be modified by the caller.
func Grades() []Grade {
	out := make([]Grade, len(grades))
	copy(out, grades[:])
	return out
}

// ParseGrade converts a string into a Grade, rejecting anything outside the scale
func ParseGrade(s string) (Grade, error) {
	g := Grade(s)
	if !g.Valid() {
		return "", fmt.Errorf("unknown grade %q, must be one of %v", s, grades)
	}
	return g, nil
}

// Valid reports whether g is part of the grade scale
func (g Grade) Valid() bool {
	return g.Rank() >= 0
}

// Rank returns the position of g on the scale (0 = A+), or -1 for unknown grades
func (g Grade) Rank() int {
	for i, known := range grades {
		if known == g {
			return i
		}
	}
	return -1
}

// AtLeast reports whether g is equal to or better than minimum.
// Unknown grades are never at least anything.
func (g Grade) AtLeast(minimum Grade) bool {
	r, m := g.Rank(), minimum.Rank()
	if r < 0 || m < 0 {
		return false
	}
	return r <= m
}

func (g Grade) String() string {
	return string(g)
}
