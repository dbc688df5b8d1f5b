package crewdef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseJSON loads a definition from JSON and validates it.
func ParseJSON(data []byte) (*Definition, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON payload")
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse json definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ParseYAML loads a definition from YAML and validates it.
func ParseYAML(data []byte) (*Definition, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty YAML payload")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse yaml definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// MarshalYAML serializes a definition to YAML.
func MarshalYAML(def *Definition) ([]byte, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return yaml.Marshal(def)
}

// Load reads a crew definition from a YAML or JSON file.
func Load(path string) (*Definition, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("definition path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			return ParseJSON(data)
		}
		return ParseYAML(data)
	}
}
