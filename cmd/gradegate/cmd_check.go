package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/gradegate/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/gradegate/internal/domain-orchestrators"
	"github.com/ochairo/gradegate/internal/domain/entities"
	"github.com/ochairo/gradegate/internal/domain/interfaces"
	gw "github.com/ochairo/gradegate/internal/domain/interfaces/gateways"
	"github.com/ochairo/gradegate/internal/domain/services"
	"github.com/ochairo/gradegate/internal/external-adapters/gpg"
	"github.com/ochairo/gradegate/internal/external-adapters/yaml"
)

type checkOptions struct {
	hosts       string
	minimum     string
	policyPath  string
	policyName  string
	policiesDir string
	policySig   string
	keyring     string
	snapshotDir string
	fromCache   bool
	maxAge      int
	publish     bool
	concurrency int
	jsonOutput  bool
	verbose     bool
}

func runCheck(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var opts checkOptions
	fs.StringVar(&opts.hosts, "host", "", "Comma-separated hostnames to assess")
	fs.StringVar(&opts.minimum, "min", "", "Minimum acceptable grade (A+, A, A-, B, C, D, E, F)")
	fs.StringVar(&opts.policyPath, "policy", "", "Policy YAML file listing hosts and minimum grades")
	fs.StringVar(&opts.policyName, "policy-name", "", "Name of a policy in --policies-dir")
	fs.StringVar(&opts.policiesDir, "policies-dir", "policies", "Directory searched for --policy-name")
	fs.StringVar(&opts.policySig, "policy-sig", "", "Detached GPG signature of the --policy file")
	fs.StringVar(&opts.keyring, "keyring", "", "Public keyring used to verify --policy-sig")
	fs.StringVar(&opts.snapshotDir, "snapshot-dir", "", "Evaluate saved <host>.json assessments instead of calling the API")
	fs.BoolVar(&opts.fromCache, "from-cache", false, "Accept cached SSL Labs results")
	fs.IntVar(&opts.maxAge, "max-age", 0, "Maximum age in hours of cached results (with --from-cache)")
	fs.BoolVar(&opts.publish, "publish", false, "Publish results on the SSL Labs public board")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "Maximum concurrent assessments (overrides the policy)")
	fs.BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")
	fs.BoolVar(&opts.verbose, "verbose", false, "Show assessment details")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gradegate check [options]

Assess hosts with SSL Labs and fail unless every endpoint of every host
meets its minimum grade. Hosts come from exactly one of --host, --policy
or --policy-name.

Exit status: 0 all hosts pass, 2 a host failed or could not be assessed, 1 error.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  gradegate check --host example.com --min A
  gradegate check --host example.com,api.example.com --min A- --from-cache --max-age 24
  gradegate check --policy policies/prod.yml --policy-sig policies/prod.yml.asc --keyring keys.asc
  gradegate check --policy-name prod --policies-dir policies --snapshot-dir ./assessments --json
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return exitError
	}

	// Validate inputs
	sources := 0
	for _, set := range []bool{opts.hosts != "", opts.policyPath != "", opts.policyName != ""} {
		if set {
			sources++
		}
	}
	if sources == 0 {
		fmt.Fprintf(os.Stderr, "Error: one of --host, --policy or --policy-name is required\n\n")
		fs.Usage()
		return exitError
	}
	if sources > 1 {
		fmt.Fprintf(os.Stderr, "Error: --host, --policy and --policy-name are mutually exclusive\n\n")
		return exitError
	}
	if opts.hosts != "" && opts.minimum == "" {
		fmt.Fprintf(os.Stderr, "Error: --min is required when using --host\n\n")
		fs.Usage()
		return exitError
	}
	if opts.policySig != "" && (opts.policyPath == "" || opts.keyring == "") {
		fmt.Fprintf(os.Stderr, "Error: --policy-sig requires --policy and --keyring\n\n")
		return exitError
	}

	logger, flush := newLogger()
	defer flush()

	gradeOrch := newCheckOrchestrator(opts, logger)
	result, err := executeCheck(ctx, gradeOrch, opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	} else {
		displayCheckResults(gradeOrch, result, opts.verbose)
	}

	if result.Blocked {
		return exitFailed
	}
	return exitOK
}

// newCheckOrchestrator wires the gateway, service and policy repository
func newCheckOrchestrator(opts checkOptions, logger interfaces.Logger) *orchestrators.GradeOrchestrator {
	// Layer 1: Gateway (Infrastructure)
	var scanner gw.ScanGateway
	if opts.snapshotDir != "" {
		scanner = gateways.NewSnapshotGateway(opts.snapshotDir)
	} else {
		scanner = gateways.NewSSLLabsGateway(gateways.SSLLabsConfigFromEnv(), logger)
	}

	// Layer 2: Service (Business Logic)
	gradeService := services.NewGradeService(scanner, logger)

	// Layer 3: Orchestrator (Use Case)
	policies := yaml.NewPolicyRepository(opts.policiesDir, logger)
	return orchestrators.NewGradeOrchestrator(gradeService, policies, logger)
}

func executeCheck(ctx context.Context, gradeOrch *orchestrators.GradeOrchestrator, opts checkOptions, logger interfaces.Logger) (*orchestrators.GradeWorkflowResult, error) {
	if opts.policyName != "" {
		if !opts.jsonOutput {
			fmt.Printf("🔍 Grade gate: %s (from %s)\n\n", opts.policyName, opts.policiesDir)
		}
		return gradeOrch.RunNamedPolicy(ctx, opts.policyName, opts.overrides()...)
	}

	policy, err := loadPolicy(opts, logger)
	if err != nil {
		return nil, err
	}

	if !opts.jsonOutput {
		fmt.Printf("🔍 Grade gate: %s (%d host(s))\n\n", policy.Name, len(policy.Targets))
	}
	return gradeOrch.RunPolicy(ctx, policy)
}

func (o checkOptions) analyzeOptions() entities.AnalyzeOptions {
	return entities.AnalyzeOptions{
		Publish:     o.publish,
		FromCache:   o.fromCache,
		MaxAgeHours: o.maxAge,
	}
}

// overrides returns the policy changes requested by command line flags
func (o checkOptions) overrides() []orchestrators.PolicyOverride {
	var out []orchestrators.PolicyOverride

	// Flags replace the file's cache behaviour
	if o.fromCache || o.publish || o.maxAge > 0 {
		analyze := o.analyzeOptions()
		out = append(out, func(policy *entities.GradePolicy) {
			policy.Options = analyze
			for i := range policy.Targets {
				policy.Targets[i].Options = analyze
			}
		})
	}
	if o.concurrency > 0 {
		limit := o.concurrency
		out = append(out, func(policy *entities.GradePolicy) {
			policy.MaxConcurrent = limit
		})
	}
	return out
}

// loadPolicy reads the policy file (verifying its signature when requested)
// or builds an ad-hoc policy from --host and --min
func loadPolicy(opts checkOptions, logger interfaces.Logger) (*entities.GradePolicy, error) {
	var policy *entities.GradePolicy

	if opts.policyPath == "" {
		minimum, err := entities.ParseGrade(opts.minimum)
		if err != nil {
			return nil, fmt.Errorf("invalid --min: %w", err)
		}
		policy = &entities.GradePolicy{Name: "command line", MinimumGrade: minimum, Options: opts.analyzeOptions()}
		for _, host := range strings.Split(opts.hosts, ",") {
			host = strings.TrimSpace(host)
			if host == "" {
				continue
			}
			policy.Targets = append(policy.Targets, entities.GradeTarget{Host: host, MinimumGrade: minimum})
		}
		if len(policy.Targets) == 0 {
			return nil, fmt.Errorf("no hosts given")
		}
	} else {
		//nolint:gosec // G304: policyPath is a user-selected policy file
		data, err := os.ReadFile(opts.policyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy: %w", err)
		}

		// Verify and parse the same bytes
		if opts.policySig != "" {
			verifier := gpg.NewVerifier()
			if err := verifier.ImportKeyFromFile(opts.keyring); err != nil {
				return nil, fmt.Errorf("failed to load keyring: %w", err)
			}
			signer, err := verifier.VerifySignature(data, opts.policySig)
			if err != nil {
				return nil, fmt.Errorf("policy %s: %w", opts.policyPath, err)
			}
			logger.Info("policy signature verified", interfaces.F("policy", opts.policyPath), interfaces.F("signer", signer))
		}

		policy, err = yaml.NewPolicyParser().Parse(data)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", opts.policyPath, err)
		}
	}

	for _, override := range opts.overrides() {
		override(policy)
	}
	return policy, nil
}

func displayCheckResults(gradeOrch *orchestrators.GradeOrchestrator, result *orchestrators.GradeWorkflowResult, verbose bool) {
	for _, v := range result.Verdicts {
		if v.Passed {
			fmt.Printf("✅ %s (minimum %s, %d endpoint(s))\n", v.Host, v.MinimumGrade, v.Endpoints)
		}
		if verbose && v.Error == "" {
			fmt.Printf("   %s assessed at %s\n", v.Host, v.AssessedAt.Format("2006-01-02 15:04:05"))
		}
	}

	for _, v := range gradeOrch.GetFailedVerdicts(result) {
		if v.Error != "" {
			fmt.Printf("⚠️  %s\n", v.Host)
			fmt.Printf("   Assessment failed: %s\n", v.Error)
			continue
		}
		fmt.Printf("❌ %s (minimum %s, %d endpoint(s))\n", v.Host, v.MinimumGrade, v.Endpoints)
		fmt.Printf("   %s\n", v.Expectation)
		for _, failure := range v.Failures {
			fmt.Printf("   - %s\n", failure)
		}
	}

	fmt.Printf("\n%s\n", gradeOrch.GetGradeSummary(result))
}
