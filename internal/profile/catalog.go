package profile

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultKey is the profile used when nothing else is configured.
const DefaultKey = "T1DM"

//go:embed profiles.yaml
var builtinCatalog []byte

type catalogFile struct {
	Default  string           `yaml:"default"`
	Profiles []PatientProfile `yaml:"profiles"`
}

// Catalog is an immutable, validated set of patient profiles.
type Catalog struct {
	defaultKey string
	order      []string
	profiles   map[string]PatientProfile
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtinCatalog)
}

// Load reads a YAML catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode profile catalog: %w", err)
	}
	if doc.Default == "" {
		doc.Default = DefaultKey
	}
	return NewCatalog(doc.Default, doc.Profiles)
}

// NewCatalog validates the given profiles and builds a catalog from them.
func NewCatalog(defaultKey string, profiles []PatientProfile) (*Catalog, error) {
	c := &Catalog{
		defaultKey: defaultKey,
		profiles:   make(map[string]PatientProfile, len(profiles)),
	}

	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.profiles[p.Key]; dup {
			return nil, fmt.Errorf("duplicate profile key %q", p.Key)
		}
		c.profiles[p.Key] = p.clone()
		c.order = append(c.order, p.Key)
	}

	if _, ok := c.profiles[defaultKey]; !ok {
		return nil, fmt.Errorf("default profile %q: %w", defaultKey, ErrUnknownProfile)
	}
	return c, nil
}

// Lookup returns a copy of the profile registered under key.
func (c *Catalog) Lookup(key string) (PatientProfile, error) {
	p, ok := c.profiles[key]
	if !ok {
		return PatientProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, key)
	}
	return p.clone(), nil
}

// Resolve looks up key, falling back to the default profile when key is empty.
func (c *Catalog) Resolve(key string) (PatientProfile, error) {
	if key == "" {
		key = c.defaultKey
	}
	return c.Lookup(key)
}

// DefaultKey returns the key of the catalog's default profile.
func (c *Catalog) DefaultKey() string {
	return c.defaultKey
}

// Keys returns the profile keys in declaration order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// Profiles returns copies of all profiles in declaration order.
func (c *Catalog) Profiles() []PatientProfile {
	out := make([]PatientProfile, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.profiles[k].clone())
	}
	return out
}
