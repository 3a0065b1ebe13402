package marketdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProfiles merges a yaml profile file over the defaults. Entries in the
// file override defaults per symbol; symbols unknown to the defaults are
// added as new instruments.
//
//	EURUSD:
//	  base: 1.0800
//	  volatility: 0.015
//	  precision: 5
func LoadProfiles(path string) (map[string]Profile, error) {
	profiles := DefaultProfiles()
	if path == "" {
		return profiles, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read market profiles: %w", err)
	}
	overrides := map[string]Profile{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse market profiles: %w", err)
	}
	for sym, p := range overrides {
		if p.Base <= 0 {
			return nil, fmt.Errorf("market profile %s: base must be positive", sym)
		}
		profiles[sym] = p
	}
	return profiles, nil
}
