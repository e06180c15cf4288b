package effect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
const (
	DomainMacro   = "padfx/macro/v1"
	DomainProfile = "padfx/profile/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MacroHash computes the content address of a macro from its name and the
// wire form of its steps. Two macros with the same name and steps hash the
// same regardless of where they were declared.
func MacroHash(name string, steps []map[string]any) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"name":  name,
		"steps": steps,
	})
	if err != nil {
		return "", fmt.Errorf("MacroHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainMacro, canonical), nil
}

// ProfileHash computes the content address of a compiled profile's wire
// form.
func ProfileHash(wire map[string]any) (string, error) {
	canonical, err := MarshalCanonical(wire)
	if err != nil {
		return "", fmt.Errorf("ProfileHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProfile, canonical), nil
}
