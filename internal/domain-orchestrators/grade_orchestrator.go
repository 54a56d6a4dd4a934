// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ochairo/gradegate/internal/domain/entities"
	"github.com/ochairo/gradegate/internal/domain/interfaces"
	"github.com/ochairo/gradegate/internal/domain/interfaces/repositories"
	"github.com/ochairo/gradegate/internal/domain/interfaces/services"
	"golang.org/x/sync/errgroup"
)

// GradeOrchestrator coordinates grade gate runs over a policy
// Following Clean Architecture: orchestrators coordinate services for complex use cases
type GradeOrchestrator struct {
	gradeService services.GradeService
	policies     repositories.PolicyRepository
	logger       interfaces.Logger
}

// NewGradeOrchestrator creates a new grade orchestrator.
// policies may be nil when only RunPolicy is used.
func NewGradeOrchestrator(gradeService services.GradeService, policies repositories.PolicyRepository, logger interfaces.Logger) *GradeOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &GradeOrchestrator{
		gradeService: gradeService,
		policies:     policies,
		logger:       logger,
	}
}

// GradeWorkflowResult contains the verdicts of a complete gate run
type GradeWorkflowResult struct {
	Policy      string                   `json:"policy"`
	Verdicts    []*entities.GradeVerdict `json:"verdicts"`
	Duration    time.Duration            `json:"duration"`
	Blocked     bool                     `json:"blocked"`
	BlockReason string                   `json:"blockReason,omitempty"`
}

// PolicyOverride adjusts a loaded policy before it runs
type PolicyOverride func(policy *entities.GradePolicy)

// RunNamedPolicy loads a policy from the repository, applies overrides and runs it
func (o *GradeOrchestrator) RunNamedPolicy(ctx context.Context, name string, overrides ...PolicyOverride) (*GradeWorkflowResult, error) {
	if o.policies == nil {
		return nil, fmt.Errorf("no policy repository configured")
	}
	policy, err := o.policies.GetPolicy(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy %s: %w", name, err)
	}
	for _, override := range overrides {
		override(policy)
	}
	return o.RunPolicy(ctx, policy)
}

// RunPolicy assesses every target of the policy and decides whether the gate blocks.
// A target whose scan fails yields a failed verdict instead of aborting the run.
func (o *GradeOrchestrator) RunPolicy(ctx context.Context, policy *entities.GradePolicy) (*GradeWorkflowResult, error) {
	if policy == nil || len(policy.Targets) == 0 {
		return nil, fmt.Errorf("policy has no targets")
	}
	startTime := time.Now()

	result := &GradeWorkflowResult{
		Policy:   policy.Name,
		Verdicts: make([]*entities.GradeVerdict, len(policy.Targets)),
	}

	limit := policy.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, target := range policy.Targets {
		i, target := i, target // per-iteration copies (go 1.21 loop semantics)
		if target.Options == (entities.AnalyzeOptions{}) {
			target.Options = policy.Options
		}
		g.Go(func() error {
			verdict, err := o.gradeService.AssessHost(gctx, target)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if isContextError(err) {
					return err
				}
				o.logger.Warn("assessment failed",
					interfaces.F("host", target.Host),
					interfaces.F("error", err.Error()))
				verdict = &entities.GradeVerdict{
					Host:         target.Host,
					MinimumGrade: target.MinimumGrade,
					Error:        err.Error(),
					AssessedAt:   time.Now(),
				}
			}
			if verdict.Host == "" {
				verdict.Host = target.Host
			}
			result.Verdicts[i] = verdict

			o.logger.Info("host evaluated",
				interfaces.F("host", verdict.Host),
				interfaces.F("minimum", verdict.MinimumGrade),
				interfaces.F("passed", verdict.Passed))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("grade gate interrupted: %w", err)
	}

	result.Blocked, result.BlockReason = o.determineBlockReason(result.Verdicts)
	result.Duration = time.Since(startTime)
	return result, nil
}

// isContextError reports whether err comes from an expired or cancelled context,
// including deadlines a scanner gives up on before the context reports them
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// determineBlockReason analyzes the verdicts to determine why the gate blocks
func (o *GradeOrchestrator) determineBlockReason(verdicts []*entities.GradeVerdict) (bool, string) {
	var failed, errored []string
	for _, v := range verdicts {
		switch {
		case v.Error != "":
			errored = append(errored, v.Host)
		case !v.Passed:
			failed = append(failed, v.Host)
		}
	}

	if len(failed) == 0 && len(errored) == 0 {
		return false, ""
	}

	var parts []string
	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d host(s) below minimum grade: %s", len(failed), strings.Join(failed, ", ")))
	}
	if len(errored) > 0 {
		parts = append(parts, fmt.Sprintf("%d host(s) could not be assessed: %s", len(errored), strings.Join(errored, ", ")))
	}
	return true, "Gate blocked: " + strings.Join(parts, "; ")
}

// GetFailedVerdicts returns the verdicts that did not pass, in policy order
func (o *GradeOrchestrator) GetFailedVerdicts(result *GradeWorkflowResult) []*entities.GradeVerdict {
	failed := make([]*entities.GradeVerdict, 0)
	for _, v := range result.Verdicts {
		if !v.Passed {
			failed = append(failed, v)
		}
	}
	return failed
}

// GetGradeSummary generates a human-readable summary of a gate run
func (o *GradeOrchestrator) GetGradeSummary(result *GradeWorkflowResult) string {
	if result.Blocked {
		return fmt.Sprintf("🚫 BLOCKED: %s", result.BlockReason)
	}

	summary := fmt.Sprintf("✅ PASSED: %d host(s) meet their minimum grade\n", len(result.Verdicts))
	endpoints := 0
	for _, v := range result.Verdicts {
		endpoints += v.Endpoints
	}
	summary += fmt.Sprintf("   Endpoints checked: %d\n", endpoints)
	summary += fmt.Sprintf("   Duration: %v", result.Duration)

	return summary
}
