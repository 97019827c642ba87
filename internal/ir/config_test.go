package ir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigAddResource_RejectsDuplicateAddress(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.AddResource(&Resource{Type: "mem.bucket", Name: "assets", Provider: "mem"}))

	err := cfg.AddResource(&Resource{Type: "mem.bucket", Name: "assets", Provider: "mem"})
	require.Error(t, err)

	var dup *DuplicateAddressError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "mem.bucket.assets", dup.Address)
}

func TestConfigValidate_CountAndForEachExclusive(t *testing.T) {
	cfg := &Config{Resources: []*Resource{
		{
			Type: "mem.bucket", Name: "assets", Provider: "mem",
			Count:   2,
			ForEach: map[string]any{"a": 1},
		},
	}}

	assert.Error(t, cfg.Validate())
}

func TestConfigValidate_RequiresTypeAndName(t *testing.T) {
	cfg := &Config{Resources: []*Resource{{Type: "mem.bucket"}}}
	assert.Error(t, cfg.Validate())
}

func TestLoadConfig_DecodesReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terralite.json")
	content := `{
  "resources": [
    {"type": "mem.vpc", "name": "main", "provider": "mem",
     "properties": {"cidr": "10.0.0.0/16"}},
    {"type": "mem.subnet", "name": "a", "provider": "mem",
     "properties": {"vpcId": {"$ref": "mem.vpc.main", "attr": "id"}}}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Resources, 2)

	ref, ok := cfg.Resources[1].Properties["vpcId"].(Reference)
	require.True(t, ok, "vpcId should decode to a Reference")
	assert.Equal(t, "mem.vpc.main", ref.Address)
	assert.Equal(t, "id", ref.Attribute)
}

func TestLoadConfig_InvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terralite.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
