package state

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/terralite-io/terralite/internal/ir"
)

// encodeState serializes a state document, sorted by address for stable
// diffs, and seals it with the backend's cipher when one is configured.
func encodeState(s *ir.State, c *stateCipher) ([]byte, error) {
	doc := s.Clone()
	sort.Slice(doc.Resources, func(i, j int) bool {
		return doc.Resources[i].Address < doc.Resources[j].Address
	})

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	raw = append(raw, '\n')

	sealed, err := c.seal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt state: %w", err)
	}
	return sealed, nil
}

// decodeState parses a (possibly encrypted) state document and
// rehydrates reference values inside recorded inputs.
func decodeState(raw []byte, c *stateCipher) (*ir.State, error) {
	if IsEncrypted(raw) {
		decrypted, err := c.open(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt state: %w", err)
		}
		raw = decrypted
	}

	var s ir.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	if s.Version == 0 {
		s.Version = ir.StateVersion
	}
	if s.Version > ir.StateVersion {
		return nil, fmt.Errorf("state version %d is newer than supported version %d", s.Version, ir.StateVersion)
	}
	for _, res := range s.Resources {
		res.Inputs = ir.DecodeProperties(res.Inputs)
	}
	return &s, nil
}
