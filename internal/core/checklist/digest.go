package checklist

import (
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
)

// Digest computes the canonical content fingerprint of a checklist.
//
// The hash covers everything that affects execution: name, version, domain,
// variables, sections, items, conditions, and matrices. The Metadata field
// carries a hash:"ignore" tag, so author/tags/estimated_time edits do not
// change the digest. hashstructure canonicalizes map key order, which keeps
// the digest stable across matrix rows authored with different key orders.
func Digest(c *Checklist) (string, error) {
	h, err := hashstructure.Hash(c, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("compute checklist digest: %w", err)
	}
	return fmt.Sprintf("%016x", h), nil
}
