// Package yaml provides YAML-based grade policy parsing and repository implementations.
package yaml

import (
	"errors"
	"fmt"
	"os"

	"github.com/ochairo/gradegate/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPolicy is returned when a policy file parses but fails validation
var ErrInvalidPolicy = errors.New("invalid policy")

// yamlPolicy represents the raw YAML structure
type yamlPolicy struct {
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description"`
	MinimumGrade  string       `yaml:"minimum_grade"`
	MaxConcurrent int          `yaml:"max_concurrent"`
	Publish       bool         `yaml:"publish"`
	FromCache     bool         `yaml:"from_cache"`
	MaxAgeHours   int          `yaml:"max_age_hours"`
	Targets       []yamlTarget `yaml:"targets"`
}

type yamlTarget struct {
	Host         string `yaml:"host"`
	MinimumGrade string `yaml:"minimum_grade"`
}

// PolicyParser parses YAML policy files
type PolicyParser struct{}

// NewPolicyParser creates a new YAML parser
func NewPolicyParser() *PolicyParser {
	return &PolicyParser{}
}

// ParseFile parses a YAML policy file into a GradePolicy entity
func (p *PolicyParser) ParseFile(filePath string) (*entities.GradePolicy, error) {
	//nolint:gosec // G304: filePath is a user-selected policy file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a GradePolicy entity
func (p *PolicyParser) Parse(data []byte) (*entities.GradePolicy, error) {
	var raw yamlPolicy
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if raw.Name == "" {
		return nil, fmt.Errorf("%w: policy must have a name", ErrInvalidPolicy)
	}
	if len(raw.Targets) == 0 {
		return nil, fmt.Errorf("%w: policy %s has no targets", ErrInvalidPolicy, raw.Name)
	}
	if raw.MaxConcurrent < 0 || raw.MaxAgeHours < 0 {
		return nil, fmt.Errorf("%w: policy %s: max_concurrent and max_age_hours must not be negative", ErrInvalidPolicy, raw.Name)
	}

	var defaultGrade entities.Grade
	if raw.MinimumGrade != "" {
		g, err := entities.ParseGrade(raw.MinimumGrade)
		if err != nil {
			return nil, fmt.Errorf("%w: policy %s: %v", ErrInvalidPolicy, raw.Name, err)
		}
		defaultGrade = g
	}

	options := entities.AnalyzeOptions{
		Publish:     raw.Publish,
		FromCache:   raw.FromCache,
		MaxAgeHours: raw.MaxAgeHours,
	}

	// Convert to domain entity
	policy := &entities.GradePolicy{
		Name:          raw.Name,
		Description:   raw.Description,
		MinimumGrade:  defaultGrade,
		MaxConcurrent: raw.MaxConcurrent,
		Options:       options,
		Targets:       make([]entities.GradeTarget, 0, len(raw.Targets)),
	}

	seen := make(map[string]bool)
	for i, yt := range raw.Targets {
		target, err := convertTarget(yt, defaultGrade, options)
		if err != nil {
			return nil, fmt.Errorf("%w: policy %s target %d: %v", ErrInvalidPolicy, raw.Name, i+1, err)
		}
		if seen[target.Host] {
			return nil, fmt.Errorf("%w: policy %s: duplicate target %s", ErrInvalidPolicy, raw.Name, target.Host)
		}
		seen[target.Host] = true
		policy.Targets = append(policy.Targets, target)
	}

	return policy, nil
}

func convertTarget(yt yamlTarget, defaultGrade entities.Grade, options entities.AnalyzeOptions) (entities.GradeTarget, error) {
	if yt.Host == "" {
		return entities.GradeTarget{}, fmt.Errorf("host is required")
	}

	grade := defaultGrade
	if yt.MinimumGrade != "" {
		g, err := entities.ParseGrade(yt.MinimumGrade)
		if err != nil {
			return entities.GradeTarget{}, err
		}
		grade = g
	}
	if grade == "" {
		return entities.GradeTarget{}, fmt.Errorf("no minimum_grade for %s and no policy default", yt.Host)
	}

	return entities.GradeTarget{
		Host:         yt.Host,
		MinimumGrade: grade,
		Options:      options,
	}, nil
}
