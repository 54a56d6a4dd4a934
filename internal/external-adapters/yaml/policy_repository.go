package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/gradegate/internal/domain/entities"
	"github.com/ochairo/gradegate/internal/domain/interfaces"
)

// PolicyRepository implements repositories.PolicyRepository using YAML files
type PolicyRepository struct {
	policiesDir string
	parser      *PolicyParser
	logger      interfaces.Logger
}

// NewPolicyRepository creates a new YAML-based policy repository
func NewPolicyRepository(policiesDir string, logger interfaces.Logger) *PolicyRepository {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &PolicyRepository{
		policiesDir: policiesDir,
		parser:      NewPolicyParser(),
		logger:      logger,
	}
}

// GetPolicy retrieves a grade policy by name
func (r *PolicyRepository) GetPolicy(_ context.Context, name string) (*entities.GradePolicy, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid policy name %q", name)
	}

	for _, ext := range []string{".yml", ".yaml"} {
		filePath := filepath.Join(r.policiesDir, name+ext)
		if _, err := os.Stat(filePath); err == nil {
			return r.parser.ParseFile(filePath)
		}
	}

	return nil, fmt.Errorf("policy not found: %s", name)
}

// ListPolicies returns all available grade policies
func (r *PolicyRepository) ListPolicies(_ context.Context) ([]*entities.GradePolicy, error) {
	entries, err := os.ReadDir(r.policiesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read policies directory: %w", err)
	}

	policies := make([]*entities.GradePolicy, 0)
	for _, entry := range entries {
		// Skip non-YAML files
		if entry.IsDir() || !(strings.HasSuffix(entry.Name(), ".yml") || strings.HasSuffix(entry.Name(), ".yaml")) {
			continue
		}

		filePath := filepath.Join(r.policiesDir, entry.Name())
		policy, err := r.parser.ParseFile(filePath)
		if err != nil {
			// Log warning but continue processing other files
			r.logger.Warn("skipping unparseable policy",
				interfaces.F("file", entry.Name()),
				interfaces.F("error", err.Error()))
			continue
		}

		policies = append(policies, policy)
	}

	return policies, nil
}
