package zonesync

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Config binds zones to providers. Providers maps a free-form name to the
// provider's settings (must include "Type"); Domains maps a zone name to one
// of those provider names.
type Config struct {
	Providers map[string]map[string]string
	Domains   map[string]string
}

// LoadConfig reads the JSON config from path, falling back to the
// ZONESYNC_CONFIG environment variable when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ZONESYNC_CONFIG")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	for zone, provider := range config.Domains {
		if _, ok := config.Providers[provider]; !ok {
			return nil, &ConfigError{Reason: fmt.Sprintf("zone %s references unknown provider %s", zone, provider)}
		}
	}
	return config, nil
}
