package steps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a step batch.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// batchFile is the object form of a batch: {"steps": [...]}. A bare list is
// accepted as well.
type batchFile struct {
	Steps []BuildStep `json:"steps" yaml:"steps"`
}

// Load reads a step batch from path. The format follows the extension
// (.json, .jsonc, .yaml, .yml) and is sniffed otherwise.
func Load(path string) ([]BuildStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading steps: %w", err)
	}

	format := FormatAuto
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	}

	list, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Parse decodes a step batch. JSON input may carry comments and trailing
// commas. Unknown kinds are rejected; statuses are left for Continue to set.
func Parse(data []byte, format Format) ([]BuildStep, error) {
	if format == FormatAuto {
		format = sniff(data)
	}

	var list []BuildStep
	switch format {
	case FormatJSON:
		stripped := bytes.TrimSpace(jsonc.ToJSON(data))
		if len(stripped) == 0 {
			return nil, nil
		}
		if stripped[0] == '[' {
			if err := json.Unmarshal(stripped, &list); err != nil {
				return nil, fmt.Errorf("parsing steps: %w", err)
			}
		} else {
			var bf batchFile
			if err := json.Unmarshal(stripped, &bf); err != nil {
				return nil, fmt.Errorf("parsing steps: %w", err)
			}
			list = bf.Steps
		}
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("parsing steps: %w", err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		doc := node.Content[0]
		if doc.Kind == yaml.SequenceNode {
			if err := doc.Decode(&list); err != nil {
				return nil, fmt.Errorf("parsing steps: %w", err)
			}
		} else {
			var bf batchFile
			if err := doc.Decode(&bf); err != nil {
				return nil, fmt.Errorf("parsing steps: %w", err)
			}
			list = bf.Steps
		}
	default:
		return nil, fmt.Errorf("unknown step format %q", format)
	}

	for i, s := range list {
		if !s.Kind.Valid() {
			return nil, fmt.Errorf("step %d: unknown kind %q", i+1, s.Kind)
		}
	}
	return list, nil
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatYAML
}

// DecodeObject decodes an object-shaped batch document into v, using the
// same format rules as Parse. It lets callers read fields that travel
// alongside "steps".
func DecodeObject(data []byte, v any) error {
	switch sniff(data) {
	case FormatJSON:
		stripped := bytes.TrimSpace(jsonc.ToJSON(data))
		if len(stripped) == 0 || stripped[0] != '{' {
			return fmt.Errorf("not an object")
		}
		return json.Unmarshal(stripped, v)
	default:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return err
		}
		if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
			return fmt.Errorf("not an object")
		}
		return node.Content[0].Decode(v)
	}
}
