package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochairo/gradegate/internal/domain/interfaces"
	"github.com/ochairo/gradegate/internal/external-adapters/zaplog"
)

// version is set at build time via -ldflags
var version = "dev"

// Exit codes
const (
	exitOK     = 0
	exitError  = 1
	exitFailed = 2 // a host did not meet its minimum grade
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]

	// Dispatch to subcommand
	var code int
	switch command {
	case "check":
		code = runCheck(ctx, os.Args[2:])
	case "grades":
		code = runGrades(os.Args[2:])
	case "info":
		code = runInfo(ctx, os.Args[2:])
	case "policies":
		code = runPolicies(ctx, os.Args[2:])
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		code = exitError
	}
	stop()
	os.Exit(code)
}

func printUsage() {
	fmt.Println(`gradegate - SSL Labs minimum grade gate

Usage:
  gradegate <command> [options]

Commands:
  check      Assess hosts and fail unless every endpoint meets the minimum grade
  grades     Show the grade scale and the grades accepted for a minimum
  info       Show SSL Labs engine version and assessment capacity
  policies   List grade policies in a directory
  version    Print the gradegate version

Environment:
  SSLLABS_API_URL       API base URL (default https://api.ssllabs.com/api/v3)
  SSLLABS_EMAIL         Registered email, sent with every request (API v4)
  GRADEGATE_LOG_LEVEL   debug, info, warn or error (default info)
  GRADEGATE_PRETTY_LOG  "true" for console instead of JSON logs

Use "gradegate <command> --help" for more information about a command.`)
}

// newLogger builds the process logger, falling back to a no-op logger
func newLogger() (interfaces.Logger, func()) {
	logger, err := zaplog.New(zaplog.ConfigFromEnv(version))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, logging disabled\n", err)
		return &interfaces.NoOpLogger{}, func() {}
	}
	return logger, func() { _ = logger.Sync() }
}
