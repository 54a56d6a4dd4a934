// Package gradetest lets test suites assert that hosts scanned by SSL Labs
// meet a minimum grade.
//
//	host, err := gradetest.ParseHost(body) // an /analyze response
//	...
//	gradetest.AssertMinimumGrade(t, host, "A-")
package gradetest

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ochairo/gradegate/internal/domain/entities"
	"github.com/ochairo/gradegate/internal/domain/services"
)

// Host is an SSL Labs assessment of one hostname
type Host = entities.Host

// Endpoint is one assessed IP address of a Host
type Endpoint = entities.Endpoint

// ErrInvalidArgument is returned for a missing or unknown minimum grade
var ErrInvalidArgument = services.ErrInvalidArgument

// ParseHost decodes a host document in the SSL Labs API JSON format
func ParseHost(data []byte) (*Host, error) {
	var host Host
	if err := json.Unmarshal(data, &host); err != nil {
		return nil, fmt.Errorf("failed to parse host: %w", err)
	}
	return &host, nil
}

// CheckMinimumGrade reports whether host meets minimumGrade. On failure it
// returns the assertion message, e.g.
//
//	expected all host endpoint grades to be in [A+,A] but was [192.0.2.1:B]
func CheckMinimumGrade(host *Host, minimumGrade string) (bool, string, error) {
	acceptance, err := services.NewGradeAcceptance(minimumGrade)
	if err != nil {
		return false, "", err
	}
	if acceptance.IsSatisfiedBy(host) {
		return true, "", nil
	}
	return false, acceptance.DescribeExpectation() + " but " + acceptance.DescribeMismatch(host), nil
}

// AssertMinimumGrade marks t as failed when any endpoint of host is graded
// below minimumGrade. An invalid minimum grade is a fatal test error.
func AssertMinimumGrade(t testing.TB, host *Host, minimumGrade string) bool {
	t.Helper()

	ok, msg, err := CheckMinimumGrade(host, minimumGrade)
	if err != nil {
		t.Fatalf("invalid grade assertion: %v", err)
		return false
	}
	if !ok {
		name := "host"
		if host != nil && host.Host != "" {
			name = host.Host
		}
		t.Errorf("%s: %s", name, msg)
	}
	return ok
}
