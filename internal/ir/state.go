package ir

// StateVersion is the current persisted state document version.
const StateVersion = 1

// State is the persisted record of everything the engine believes is
// provisioned. Serial is a generation counter bumped on every write and
// used for optimistic concurrency between writers.
type State struct {
	Version   int               `json:"version"`
	Serial    int               `json:"serial"`
	Lineage   string            `json:"lineage"`
	Resources []*ResourceRecord `json:"resources"`
}

// ResourceRecord is the last-known-applied state of one resource
// instance, including the provider-assigned external identifier.
type ResourceRecord struct {
	Address  string `json:"address"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Provider string `json:"provider"`

	// ExternalID is the identifier assigned by the external system.
	ExternalID string `json:"externalId"`

	// Inputs are the declared attributes at the time of the last apply;
	// Attributes are the provider-observed attributes (sensitive values
	// included, access-controlled by state encryption).
	Inputs     map[string]any `json:"inputs,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`

	// Dependencies records the addresses this resource depended on when
	// applied, so destroy ordering survives config removal.
	Dependencies []string `json:"dependencies,omitempty"`
}

// NewState returns an empty state document at serial zero.
func NewState() *State {
	return &State{Version: StateVersion}
}

// Find returns the record for an address, or nil.
func (s *State) Find(addr string) *ResourceRecord {
	for _, res := range s.Resources {
		if res.Address == addr {
			return res
		}
	}
	return nil
}

// Upsert inserts or replaces the record for its address.
func (s *State) Upsert(rec *ResourceRecord) {
	for i, res := range s.Resources {
		if res.Address == rec.Address {
			s.Resources[i] = rec
			return
		}
	}
	s.Resources = append(s.Resources, rec)
}

// Remove drops the record for an address, reporting whether it existed.
func (s *State) Remove(addr string) bool {
	for i, res := range s.Resources {
		if res.Address == addr {
			s.Resources = append(s.Resources[:i], s.Resources[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state document.
func (s *State) Clone() *State {
	clone := &State{
		Version: s.Version,
		Serial:  s.Serial,
		Lineage: s.Lineage,
	}
	for _, res := range s.Resources {
		clone.Resources = append(clone.Resources, res.Clone())
	}
	return clone
}

// Clone returns a deep copy of the record.
func (r *ResourceRecord) Clone() *ResourceRecord {
	clone := *r
	clone.Inputs = DeepCopyProperties(r.Inputs)
	clone.Attributes = DeepCopyProperties(r.Attributes)
	clone.Dependencies = append([]string(nil), r.Dependencies...)
	return &clone
}
