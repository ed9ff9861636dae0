// Package module holds named interview module definitions: the system
// prompts and pacing settings for one interview type. Definitions are
// loaded once at startup and read-only afterwards.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompts are the system prompts a module uses to seed generation.
type Prompts struct {
	Initial  string `yaml:"initial"`
	FollowUp string `yaml:"follow_up"`
	Summary  string `yaml:"summary"`
}

// Settings control the pacing and sampling of a module's interviews.
type Settings struct {
	// InterviewLength is the planned question count.
	InterviewLength int `yaml:"interview_length"`
	// Temperature is the sampling temperature for this module.
	Temperature float64 `yaml:"temperature"`
	// Model overrides the default model for this module.
	Model string `yaml:"model"`
}

// Config is one named interview module definition.
type Config struct {
	Prompts  Prompts  `yaml:"prompts"`
	Settings Settings `yaml:"settings"`
}

// LoadDir reads all *.yaml module definitions from dir, keyed by file
// basename. A missing directory is not an error; it yields an empty
// set.
func LoadDir(dir string) (map[string]Config, error) {
	modules := make(map[string]Config)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return modules, nil
		}
		return nil, fmt.Errorf("read modules dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read module %s: %w", name, err)
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse module %s: %w", name, err)
		}
		modules[strings.TrimSuffix(name, ".yaml")] = cfg
	}

	return modules, nil
}
