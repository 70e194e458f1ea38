package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Models []ModelDescriptor `yaml:"models"`
}

// Load reads a model catalog from a YAML file. Changing the cascade
// composition is a redeploy, not a runtime operation.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("catalog %s defines no models", path)
	}

	return New(file.Models)
}

// LoadOrDefault loads the catalog at path, or the built-in one when path is
// empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
