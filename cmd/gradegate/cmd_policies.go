package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/gradegate/internal/external-adapters/yaml"
)

func runPolicies(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("policies", flag.ExitOnError)
	dir := fs.String("dir", "policies", "Directory containing policy YAML files")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gradegate policies [options]

List the grade policies found in a directory.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return exitError
	}

	logger, flush := newLogger()
	defer flush()

	policies, err := yaml.NewPolicyRepository(*dir, logger).ListPolicies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if len(policies) == 0 {
		fmt.Printf("No policies found in %s\n", *dir)
		return exitOK
	}

	fmt.Printf("Available policies (%d):\n\n", len(policies))
	for _, p := range policies {
		fmt.Printf("  %-20s %d target(s)", p.Name, len(p.Targets))
		if p.MinimumGrade != "" {
			fmt.Printf(", default minimum %s", p.MinimumGrade)
		}
		fmt.Println()
		if p.Description != "" {
			fmt.Printf("  %-20s %s\n", "", p.Description)
		}
	}
	return exitOK
}
