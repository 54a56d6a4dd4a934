// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/ochairo/gradegate/internal/domain/entities"
)

// GradeService defines the interface for grade gate decisions
type GradeService interface {
	// AssessHost scans a target and evaluates it against its minimum grade
	AssessHost(ctx context.Context, target entities.GradeTarget) (*entities.GradeVerdict, error)

	// Evaluate checks an already scanned host against a minimum grade
	Evaluate(host *entities.Host, minimumGrade string) (*entities.GradeVerdict, error)
}
