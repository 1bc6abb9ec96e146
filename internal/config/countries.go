package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var embeddedCountries []byte

// CountryConfig is the search configuration of one supported country.
type CountryConfig struct {
	Name                 string
	SearchURL            string
	RemoteURL            string
	FallbackAverageCount int
	FallbackRemoteRatio  float64
}

// Registry is the validated, ordered set of countries. The zero value is empty.
type Registry struct {
	countries []CountryConfig
	byName    map[string]int
}

// rawCountry uses pointers so that missing keys can be told apart from zero values.
type rawCountry struct {
	Name                 string   `yaml:"name"`
	SearchURL            string   `yaml:"search_url"`
	RemoteURL            string   `yaml:"remote_url"`
	FallbackAverageCount *int     `yaml:"fallback_average_count"`
	FallbackRemoteRatio  *float64 `yaml:"fallback_remote_ratio"`
}

type rawRegistry struct {
	Countries []rawCountry `yaml:"countries"`
}

// LoadRegistry reads the registry at path, or the embedded one when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	data := embeddedCountries
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read country registry: %w", err)
		}
		data = b
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes and validates a YAML registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var raw rawRegistry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse country registry: %w", err)
	}
	if len(raw.Countries) == 0 {
		return nil, errors.New("country registry is empty")
	}

	reg := &Registry{
		countries: make([]CountryConfig, 0, len(raw.Countries)),
		byName:    make(map[string]int, len(raw.Countries)),
	}
	var errs []error
	for i, rc := range raw.Countries {
		cc, err := rc.validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("country #%d (%q): %w", i+1, rc.Name, err))
			continue
		}
		if _, dup := reg.byName[cc.Name]; dup {
			errs = append(errs, fmt.Errorf("country #%d: duplicate name %q", i+1, cc.Name))
			continue
		}
		reg.byName[cc.Name] = len(reg.countries)
		reg.countries = append(reg.countries, cc)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

func (rc rawCountry) validate() (CountryConfig, error) {
	var errs []error
	name := strings.TrimSpace(rc.Name)
	if name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if err := validateURL(rc.SearchURL); err != nil {
		errs = append(errs, fmt.Errorf("search_url: %w", err))
	}
	if err := validateURL(rc.RemoteURL); err != nil {
		errs = append(errs, fmt.Errorf("remote_url: %w", err))
	}
	if rc.FallbackAverageCount == nil {
		errs = append(errs, errors.New("fallback_average_count is required"))
	} else if *rc.FallbackAverageCount < 0 {
		errs = append(errs, errors.New("fallback_average_count cannot be negative"))
	}
	if rc.FallbackRemoteRatio == nil {
		errs = append(errs, errors.New("fallback_remote_ratio is required"))
	} else if r := *rc.FallbackRemoteRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("fallback_remote_ratio %v is outside [0,1]", r))
	}
	if len(errs) > 0 {
		return CountryConfig{}, errors.Join(errs...)
	}
	return CountryConfig{
		Name:                 name,
		SearchURL:            rc.SearchURL,
		RemoteURL:            rc.RemoteURL,
		FallbackAverageCount: *rc.FallbackAverageCount,
		FallbackRemoteRatio:  *rc.FallbackRemoteRatio,
	}, nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// Countries returns a copy of the configured countries in registry order.
func (r *Registry) Countries() []CountryConfig {
	out := make([]CountryConfig, len(r.countries))
	copy(out, r.countries)
	return out
}

// Names returns the configured country names in registry order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.countries))
	for i, c := range r.countries {
		out[i] = c.Name
	}
	return out
}

// Lookup finds a country by exact name.
func (r *Registry) Lookup(name string) (CountryConfig, bool) {
	i, ok := r.byName[name]
	if !ok {
		return CountryConfig{}, false
	}
	return r.countries[i], true
}

// Only returns a registry restricted to one country.
func (r *Registry) Only(name string) (*Registry, error) {
	cc, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown country %q (configured: %s)", name, strings.Join(r.Names(), ", "))
	}
	return &Registry{
		countries: []CountryConfig{cc},
		byName:    map[string]int{cc.Name: 0},
	}, nil
}

// Len returns the number of configured countries.
func (r *Registry) Len() int {
	return len(r.countries)
}
