package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/gradegate/internal/domain/entities"
)

// snapshotGateway implements ScanGateway from host documents saved on disk.
// Each host is read from <dir>/<hostname>.json, in the SSL Labs API format.
// When the directory carries a SHA256SUMS manifest every snapshot must match it.
type snapshotGateway struct {
	dir string
}

// NewSnapshotGateway creates a gateway that serves previously saved assessments
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewSnapshotGateway(dir string) *snapshotGateway {
	return &snapshotGateway{dir: dir}
}

// Analyze loads the saved assessment for hostname
func (g *snapshotGateway) Analyze(ctx context.Context, hostname string, _ entities.AnalyzeOptions) (*entities.Host, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hostname == "" || strings.ContainsAny(hostname, `/\`) || strings.HasPrefix(hostname, ".") {
		return nil, fmt.Errorf("invalid hostname %q", hostname)
	}

	name := hostname + ".json"
	path := filepath.Join(g.dir, name)
	//nolint:gosec // G304: path is confined to the snapshot directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot for %s: %w", hostname, err)
	}

	sums, err := loadChecksums(g.dir)
	if err != nil {
		return nil, err
	}
	if sums != nil {
		if err := verifyChecksum(sums, name, data); err != nil {
			return nil, err
		}
	}

	var host entities.Host
	if err := json.Unmarshal(data, &host); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}

	if host.Status == entities.StatusError {
		return nil, fmt.Errorf("%w: %s: %s", ErrAssessmentFailed, hostname, host.StatusMessage)
	}
	if host.Status != "" && !host.Done() {
		return nil, fmt.Errorf("snapshot for %s is incomplete (status %s)", hostname, host.Status)
	}
	if host.Host == "" {
		host.Host = hostname
	}

	return &host, nil
}

// Info describes the snapshot source
func (g *snapshotGateway) Info(_ context.Context) (*entities.ScannerInfo, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}

	return &entities.ScannerInfo{
		EngineVersion: "snapshot",
		Messages:      []string{fmt.Sprintf("%d saved assessments in %s", count, g.dir)},
	}, nil
}
