package gateways

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// checksumManifest is the optional sha256sum-style manifest of a snapshot directory
const checksumManifest = "SHA256SUMS"

// ErrChecksumMismatch is returned when a snapshot does not match its manifest entry
var ErrChecksumMismatch = errors.New("checksum mismatch")

// loadChecksums reads <dir>/SHA256SUMS. A missing manifest yields a nil map.
func loadChecksums(dir string) (map[string]string, error) {
	//nolint:gosec // G304: manifest lives in the user-selected snapshot directory
	f, err := os.Open(filepath.Join(dir, checksumManifest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", checksumManifest, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	sums := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		// Trailing spaces can be part of a file name
		text := strings.TrimLeft(strings.TrimRight(scanner.Text(), "\r"), " \t")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		sum, name, ok := parseChecksumLine(text)
		if !ok {
			return nil, fmt.Errorf("%s line %d: expected \"<sha256>  <file>\"", checksumManifest, line)
		}
		sums[name] = sum
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", checksumManifest, err)
	}
	return sums, nil
}

// parseChecksumLine splits a sha256sum line. File names may contain spaces,
// and "./host.json" is stored as "host.json".
func parseChecksumLine(text string) (string, string, bool) {
	sum, name, ok := strings.Cut(text, " ")
	if !ok || len(sum) != sha256.Size*2 {
		return "", "", false
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return "", "", false
	}

	// sha256sum separates with two spaces, or " *" in binary mode
	name = strings.TrimPrefix(strings.TrimPrefix(name, " "), "*")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(sum), filepath.Clean(filepath.FromSlash(name)), true
}

// verifyChecksum checks data against the manifest entry for name
func verifyChecksum(sums map[string]string, name string, data []byte) error {
	expected, ok := sums[name]
	if !ok {
		return fmt.Errorf("%s is not listed in %s", name, checksumManifest)
	}

	sum := sha256.Sum256(data)
	actual := hex.EncodeToString(sum[:])
	if actual != expected {
		return fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksumMismatch, name, expected, actual)
	}
	return nil
}
