package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/stromtarif/stromtarif/pkg/types"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the list of appliances every new session starts with.
type Catalog struct {
	Devices []types.Device `json:"devices" yaml:"devices" toml:"devices"`
}

// DefaultCatalog returns the built-in appliance catalog.
func DefaultCatalog() (Catalog, error) {
	return ParseCatalog(defaultCatalog, "yaml")
}

// LoadCatalog reads a catalog file. The format is chosen by the file
// extension: .yaml/.yml, .toml or .json.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseCatalog decodes and validates a catalog in the given format.
func ParseCatalog(data []byte, format string) (Catalog, error) {
	var c Catalog
	var err error
	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &c)
	case "toml":
		err = toml.Unmarshal(data, &c)
	case "json":
		err = json.Unmarshal(data, &c)
	default:
		return Catalog{}, fmt.Errorf("unsupported catalog format: %q", format)
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to decode %s catalog: %w", format, err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks every device and requires unique IDs.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.ID == "" {
			return fmt.Errorf("catalog device %d (%s) has no id", i, d.Name)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate catalog device id: %s", d.ID)
		}
		seen[d.ID] = true
		if msgs := ValidateDevice(d); len(msgs) > 0 {
			return fmt.Errorf("catalog device %s: %w", d.ID, &ValidationError{Messages: msgs})
		}
	}
	return nil
}
