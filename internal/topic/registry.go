// Package topic maps surface keywords to canonical recommendation topics and
// tracks which topics a conversation has discovered and surfaced.
package topic

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry maps a lowercase surface keyword to the canonical slug used in
// outbound recommendation requests. Many keywords may share one slug.
type Registry map[string]string

// Slug returns the outbound slug for a keyword.
func (r Registry) Slug(keyword string) (string, bool) {
	slug, ok := r[keyword]
	return slug, ok
}

// Keywords returns the registry's key set in sorted order.
func (r Registry) Keywords() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// registryFile is the on-disk YAML layout: a flat keyword -> slug mapping
// under a "topics" key.
type registryFile struct {
	Topics map[string]string `yaml:"topics"`
}

// Load reads a registry from a YAML file.
func Load(path string) (Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topic: read %s: %w", path, err)
	}
	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("topic: parse %s: %w", path, err)
	}
	if len(f.Topics) == 0 {
		return nil, fmt.Errorf("topic: %s defines no topics", path)
	}
	return Registry(f.Topics), nil
}

// Default returns the built-in keyword registry.
func Default() Registry {
	return Registry{
		"agile":             "agile",
		"agile development": "agile",
		"analytics":         "analytics",
		"android":           "android",
		"arduino":           "diy-hardware",
		"big data":          "big data",
		"breadboard":        "diy-hardware",
		"business":          "business",
		"circuit-board":     "diy-hardware",
		"cloud":             "cloud",
		"code":              "core programming",
		"consulting":        "business",
		"css":               "css",
		"database":          "databases",
		"design":            "web design",
		"devops":            "devops",
		"diy":               "diy-hardware",
		"do-it-yourself":    "diy-hardware",
		"game development":  "game development",
		"games":             "game development",
		"html":              "html5",
		"html5":             "html5",
		"ios":               "ios",
		"iphone":            "ios",
		"java":              "java",
		"javascript":        "javascript",
		"languages":         "new languages",
		"lean":              "startups",
		"maker":             "diy-hardware",
		"management":        "business",
		"mobile":            "mobile",
		"mongo":             "nosql",
		"nosql":             "nosql",
		"php":               "php",
		"parallel":          "core programming",
		"programming":       "core programming",
		"python":            "python",
		"raspberry pi":      "diy-hardware",
		"redis":             "nosql",
		"startup":           "startups",
		"teams":             "teams",
		"team work":         "teams",
		"user experience":   "ux & ia",
		"ux":                "ux & ia",
		"visualization":     "data viz",
	}
}
