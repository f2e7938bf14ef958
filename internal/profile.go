package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is one reusable generation configuration from the YAML profile
// file: the alias, passwords, endpoint, and trust strategy for a broker
// environment, so repeat generations don't re-type them as flags.
type Profile struct {
	Name               string `yaml:"name"`
	Alias              string `yaml:"alias"`
	TruststorePassword string `yaml:"truststorePassword"`
	KeystorePassword   string `yaml:"keystorePassword"`
	Bootstrap          string `yaml:"bootstrap"`
	// TrustStrategy is "all" (default) or "root-only".
	TrustStrategy string `yaml:"trustStrategy,omitempty"`
}

// profilesYAML is the full profile file structure with optional defaults.
type profilesYAML struct {
	Defaults *Profile  `yaml:"defaults,omitempty"`
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles loads generation profiles from the specified YAML file,
// filling empty fields from the defaults section.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg profilesYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing profile file %s: %w", path, err)
	}

	if cfg.Defaults != nil {
		for i := range cfg.Profiles {
			applyDefaults(&cfg.Profiles[i], cfg.Defaults)
		}
	}
	return cfg.Profiles, nil
}

// FindProfile returns the named profile, or an error listing what exists.
func FindProfile(profiles []Profile, name string) (*Profile, error) {
	var names []string
	for i := range profiles {
		if profiles[i].Name == name {
			return &profiles[i], nil
		}
		names = append(names, profiles[i].Name)
	}
	return nil, fmt.Errorf("profile %q not found (have %v)", name, names)
}

// Strategy maps the profile's trust strategy name to a TrustStrategy.
func (p *Profile) Strategy() (TrustStrategy, error) {
	switch p.TrustStrategy {
	case "", "all":
		return ImportAllCerts, nil
	case "root-only":
		return ImportRootOnly, nil
	default:
		return 0, fmt.Errorf("unknown trust strategy %q (use all or root-only)", p.TrustStrategy)
	}
}

func applyDefaults(p, defaults *Profile) {
	if p.Alias == "" {
		p.Alias = defaults.Alias
	}
	if p.TruststorePassword == "" {
		p.TruststorePassword = defaults.TruststorePassword
	}
	if p.KeystorePassword == "" {
		p.KeystorePassword = defaults.KeystorePassword
	}
	if p.Bootstrap == "" {
		p.Bootstrap = defaults.Bootstrap
	}
	if p.TrustStrategy == "" {
		p.TrustStrategy = defaults.TrustStrategy
	}
}
