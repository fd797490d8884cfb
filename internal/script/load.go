package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scriptFile is the on-disk YAML layout:
//
//	turns:
//	  1:
//	    - pattern: ".*"
//	      responses: ["Hi @{name}"]
//	      next_turn: -1
type scriptFile struct {
	Turns TableSpec `yaml:"turns"`
}

// Load reads a turn table spec from a YAML file.
func Load(path string) (TableSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", path, err)
	}
	var f scriptFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("script: parse %s: %w", path, err)
	}
	if len(f.Turns) == 0 {
		return nil, fmt.Errorf("script: %s defines no turns", path)
	}
	return f.Turns, nil
}
