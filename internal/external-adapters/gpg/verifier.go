// Package gpg provides OpenPGP signature verification for policy files.
package gpg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// ErrNoKeys is returned when verification is attempted with an empty keyring
var ErrNoKeys = errors.New("no GPG keys imported")

const armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE-----"

// maxSignatureSize bounds signature files; detached signatures are typically < 1KB
const maxSignatureSize = 64 * 1024

// Verifier checks detached signatures using ProtonMail's go-crypto
// A maintained, modern fork of golang.org/x/crypto/openpgp
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a new GPG verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{keyring: make(openpgp.EntityList, 0)}
}

// ImportKeyFromFile imports public keys from an armored or binary keyring file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}

	return v.ImportKeyRing(bytes.NewReader(data))
}

// ImportKeyRing imports public keys from r, accepting armored or binary input
func (v *Verifier) ImportKeyRing(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		// Try reading as binary
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in keyring")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifySignature verifies the detached signature sigPath over data and
// returns the signer's fingerprint. Callers must use the same bytes they verified.
func (v *Verifier) VerifySignature(data []byte, sigPath string) (string, error) {
	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return "", fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer sigFile.Close()

	return v.VerifyDetached(bytes.NewReader(data), io.LimitReader(sigFile, maxSignatureSize))
}

// VerifyDetached verifies an armored or binary detached signature over signed
// and returns the signer's fingerprint
func (v *Verifier) VerifyDetached(signed, signature io.Reader) (string, error) {
	if len(v.keyring) == 0 {
		return "", ErrNoKeys
	}

	// Peek at the signature to determine if it's armored
	sig := bufio.NewReader(signature)
	peek, _ := sig.Peek(len(armoredSignaturePrefix))

	var (
		signer *openpgp.Entity
		err    error
	)
	if string(peek) == armoredSignaturePrefix {
		signer, err = openpgp.CheckArmoredDetachedSignature(v.keyring, signed, sig, nil)
	} else {
		signer, err = openpgp.CheckDetachedSignature(v.keyring, signed, sig, nil)
	}
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}

	return fmt.Sprintf("%X", signer.PrimaryKey.Fingerprint), nil
}

// Fingerprints lists the fingerprints of all imported primary keys, sorted
func (v *Verifier) Fingerprints() []string {
	out := make([]string, 0, len(v.keyring))
	for _, entity := range v.keyring {
		out = append(out, fmt.Sprintf("%X", entity.PrimaryKey.Fingerprint))
	}
	sort.Strings(out)
	return out
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}

// ClearKeyring clears all imported keys
func (v *Verifier) ClearKeyring() {
	v.keyring = make(openpgp.EntityList, 0)
}
