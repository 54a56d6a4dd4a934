package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/gradegate/internal/domain-adapters/gateways"
	gw "github.com/ochairo/gradegate/internal/domain/interfaces/gateways"
)

func runInfo(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	snapshotDir := fs.String("snapshot-dir", "", "Describe a directory of saved assessments instead of the API")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gradegate info [options]

Show scanner engine version, criteria version and assessment capacity.

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

	var scanner gw.ScanGateway = gateways.NewSSLLabsGateway(gateways.SSLLabsConfigFromEnv(), logger)
	if *snapshotDir != "" {
		scanner = gateways.NewSnapshotGateway(*snapshotDir)
	}

	info, err := scanner.Info(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	fmt.Printf("🔎 Scanner\n")
	fmt.Printf("   Engine version: %s\n", info.EngineVersion)
	if info.CriteriaVersion != "" {
		fmt.Printf("   Criteria version: %s\n", info.CriteriaVersion)
	}
	if info.MaxAssessments > 0 {
		fmt.Printf("   Assessments: %d/%d in use\n", info.CurrentAssessments, info.MaxAssessments)
	}
	for _, msg := range info.Messages {
		fmt.Printf("   %s\n", msg)
	}
	return exitOK
}
