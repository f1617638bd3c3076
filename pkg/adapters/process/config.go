package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ToolConfig declares an external command exposed to the model as a tool.
type ToolConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	// Parameters is the JSON Schema of the arguments, shown to the model and
	// enforced by the argument firewall.
	Parameters map[string]any `yaml:"parameters" json:"parameters"`
	Timeout    time.Duration  `yaml:"timeout" json:"timeout"`
}

// ConfigFile is the structure of tools.yaml.
type ConfigFile struct {
	Tools []ToolConfig `yaml:"tools" json:"tools"`
}

// LoadTools reads a YAML or JSON tools file. A missing file means no tools.
// Entries without a name or command are skipped; a later entry replaces an
// earlier one of the same name.
func LoadTools(path string) ([]ToolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	index := make(map[string]int)
	var tools []ToolConfig
	for _, tool := range cfg.Tools {
		if tool.Name == "" || tool.Command == "" {
			continue
		}
		if i, ok := index[tool.Name]; ok {
			tools[i] = tool
			continue
		}
		index[tool.Name] = len(tools)
		tools = append(tools, tool)
	}
	return tools, nil
}
