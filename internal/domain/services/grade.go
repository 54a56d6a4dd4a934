// Package services implements domain business logic and use cases.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ochairo/gradegate/internal/domain/entities"
	"github.com/ochairo/gradegate/internal/domain/interfaces"
	"github.com/ochairo/gradegate/internal/domain/interfaces/gateways"
	"github.com/ochairo/gradegate/internal/domain/interfaces/services"
)

// gradeService implements GradeService on top of a scan gateway
type gradeService struct {
	gateway gateways.ScanGateway
	logger  interfaces.Logger
	now     func() time.Time
}

// NewGradeService creates a new grade service with dependency injection
func NewGradeService(gateway gateways.ScanGateway, logger interfaces.Logger) services.GradeService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &gradeService{gateway: gateway, logger: logger, now: time.Now}
}

// AssessHost scans the target host and evaluates the result
func (s *gradeService) AssessHost(ctx context.Context, target entities.GradeTarget) (*entities.GradeVerdict, error) {
	// Validate before spending a scan on it
	if _, err := NewGradeAcceptance(string(target.MinimumGrade)); err != nil {
		return nil, err
	}

	s.logger.Debug("assessing host", interfaces.F("host", target.Host), interfaces.F("minimum", target.MinimumGrade))
	host, err := s.gateway.Analyze(ctx, target.Host, target.Options)
	if err != nil {
		return nil, fmt.Errorf("assessment of %s failed: %w", target.Host, err)
	}

	return s.Evaluate(host, string(target.MinimumGrade))
}

// Evaluate checks a scanned host against a minimum grade
// Pure business logic - no I/O
func (s *gradeService) Evaluate(host *entities.Host, minimumGrade string) (*entities.GradeVerdict, error) {
	acceptance, err := NewGradeAcceptance(minimumGrade)
	if err != nil {
		return nil, err
	}

	verdict := &entities.GradeVerdict{
		MinimumGrade: acceptance.Minimum(),
		Passed:       acceptance.IsSatisfiedBy(host),
		Failures:     acceptance.ExplainFailure(host),
		Expectation:  acceptance.DescribeExpectation(),
		AssessedAt:   s.now(),
	}
	if host != nil {
		verdict.Host = host.Host
		verdict.Endpoints = len(host.Endpoints)
	}

	return verdict, nil
}
