package state

import "fmt"

// BackendConfig selects and configures a state storage backend.
type BackendConfig struct {
	Type   string            `json:"type"` // "local" or "s3"
	Config map[string]string `json:"config"`
}

// NewStore creates a state store from backend configuration.
func NewStore(cfg *BackendConfig) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("backend configuration is nil")
	}

	switch cfg.Type {
	case "local", "":
		path := cfg.Config["path"]
		if path == "" {
			return nil, fmt.Errorf("local backend requires 'path' configuration")
		}
		return NewFileStoreWithKey(path, cfg.Config["encryption_key"]), nil
	case "s3":
		return NewS3Store(cfg.Config)
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}
