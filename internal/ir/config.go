package ir

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is one configuration unit: the full set of declared resources.
// The engine receives a Config explicitly; there is no ambient working
// directory.
type Config struct {
	Resources []*Resource `json:"resources"`
}

// DuplicateAddressError reports two declarations sharing one address.
type DuplicateAddressError struct {
	Address string
}

func (e *DuplicateAddressError) Error() string {
	return fmt.Sprintf("duplicate resource address %s: each resource must have a unique type.name", e.Address)
}

// AddResource declares a resource, failing if its address is already
// declared in this configuration unit.
func (c *Config) AddResource(res *Resource) error {
	addr := res.Address().String()
	for _, existing := range c.Resources {
		if existing.Address().String() == addr {
			return &DuplicateAddressError{Address: addr}
		}
	}
	c.Resources = append(c.Resources, res)
	return nil
}

// Validate checks address uniqueness across the whole unit and rejects
// resources declaring both repetition meta-arguments.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Resources))
	for _, res := range c.Resources {
		if res.Type == "" || res.Name == "" {
			return fmt.Errorf("resource %q: type and name are required", res.Address())
		}
		if res.Count > 0 && len(res.ForEach) > 0 {
			return fmt.Errorf("resource %s: count and forEach are mutually exclusive", res.Address())
		}
		addr := res.Address().String()
		if seen[addr] {
			return &DuplicateAddressError{Address: addr}
		}
		seen[addr] = true
	}
	return nil
}

// LoadConfig reads a configuration document from a JSON file and
// rehydrates reference values.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	for _, res := range cfg.Resources {
		res.Properties = DecodeProperties(res.Properties)
		res.ForEach = DecodeProperties(res.ForEach)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
