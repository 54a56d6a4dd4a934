// Package gateways defines interfaces for external scanner access.
package gateways

import (
	"context"

	"github.com/ochairo/gradegate/internal/domain/entities"
)

// ScanGateway defines access to a TLS configuration scanner
type ScanGateway interface {
	// Analyze runs (or fetches) an assessment and blocks until it is complete
	Analyze(ctx context.Context, hostname string, opts entities.AnalyzeOptions) (*entities.Host, error)

	// Info reports scanner versions and the client's assessment capacity
	Info(ctx context.Context) (*entities.ScannerInfo, error)
}
