package ctf

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTrace prefixes the fingerprint hash. The version suffix leaves room for
// changing the canonical form later.
const DomainTrace = "ctfmeta/trace/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical returns the canonical JSON document of t.
func Canonical(t *Trace) ([]byte, error) {
	data, err := MarshalCanonical(DescribeTrace(t))
	if err != nil {
		return nil, fmt.Errorf("canonical trace: %w", err)
	}
	return data, nil
}

// Fingerprint is the content address of a compiled trace: two documents that
// compile to the same model share a fingerprint regardless of formatting,
// declaration order of aliases or comments.
func Fingerprint(t *Trace) (string, error) {
	data, err := Canonical(t)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	return hashWithDomain(DomainTrace, data), nil
}
