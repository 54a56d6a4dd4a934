package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/gradegate/internal/domain/entities"
	"github.com/ochairo/gradegate/internal/domain/services"
)

func runGrades(args []string) int {
	fs := flag.NewFlagSet("grades", flag.ExitOnError)
	minimum := fs.String("min", "", "Minimum grade to show the accepted grades for")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gradegate grades [options]

Show the SSL Labs grade scale, best first.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return exitError
	}

	scale := make([]string, 0)
	for _, g := range entities.Grades() {
		scale = append(scale, g.String())
	}
	fmt.Printf("Grade scale: %s\n", strings.Join(scale, " > "))

	if *minimum == "" {
		return exitOK
	}

	acceptance, err := services.NewGradeAcceptance(*minimum)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	fmt.Printf("\nAt minimum %s:\n", acceptance.Minimum())
	for _, g := range entities.Grades() {
		if g.AtLeast(acceptance.Minimum()) {
			fmt.Printf("  ✅ %-2s accepted\n", g)
		} else {
			fmt.Printf("  ❌ %-2s rejected\n", g)
		}
	}
	return exitOK
}
