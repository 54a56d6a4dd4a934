// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/gradegate/internal/domain/entities"
)

// PolicyRepository defines the interface for accessing grade policies
type PolicyRepository interface {
	// GetPolicy retrieves a grade policy by name
	GetPolicy(ctx context.Context, name string) (*entities.GradePolicy, error)

	// ListPolicies returns all available grade policies
	ListPolicies(ctx context.Context) ([]*entities.GradePolicy, error)
}
