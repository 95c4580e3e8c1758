// Package profile reads and writes named sets of form values as YAML.
//
//	name: baseline
//	description: fasting panel from March
//	fields:
//	  hba1c: 5.9
//	  family_history: [cancer, diabetes]
//	  smoking_status: former
package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/genome360-risk-client/internal/domain"
	"github.com/genome360-risk-client/internal/inputmodel"
)

// Profile is a partial or complete set of raw field values.
type Profile struct {
	Name        string
	Description string
	Fields      map[domain.FieldName]string
}

type document struct {
	Name        string               `yaml:"name,omitempty"`
	Description string               `yaml:"description,omitempty"`
	Fields      map[string]yaml.Node `yaml:"fields"`
}

// Load reads a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile. Scalars keep their source text; sequences are
// joined into comma separated lists; null clears an optional measurement.
func Parse(data []byte) (*Profile, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid profile yaml: %w", err)
	}

	p := &Profile{
		Name:        doc.Name,
		Description: doc.Description,
		Fields:      make(map[domain.FieldName]string, len(doc.Fields)),
	}
	for key, node := range doc.Fields {
		name := domain.FieldName(key)
		if _, ok := domain.LookupField(name); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownField, key)
		}
		text, err := nodeText(&node)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		p.Fields[name] = text
	}
	return p, nil
}

func nodeText(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "", nil
		}
		return n.Value, nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return "", fmt.Errorf("list items must be scalars")
			}
			items = append(items, item.Value)
		}
		return strings.Join(items, ", "), nil
	default:
		return "", fmt.Errorf("unsupported yaml value at line %d", n.Line)
	}
}

// Apply loads every profile value into m. Nothing is changed when any value
// is rejected.
func (p *Profile) Apply(m *inputmodel.Model) error {
	return m.Apply(p.Fields)
}

// Export captures every field of m, in registry order.
func Export(m *inputmodel.Model, name string) *Profile {
	return &Profile{Name: name, Fields: m.Values()}
}

// Marshal encodes the profile with fields in registry order. Lists become
// YAML sequences and absent measurements become null.
func (p *Profile) Marshal() ([]byte, error) {
	fields := &yaml.Node{Kind: yaml.MappingNode}
	for _, spec := range domain.Fields() {
		text, ok := p.Fields[spec.Name]
		if !ok {
			continue
		}
		fields.Content = append(fields.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(spec.Name)},
			valueNode(spec, text),
		)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	if p.Name != "" {
		root.Content = append(root.Content, scalar("name"), scalar(p.Name))
	}
	if p.Description != "" {
		root.Content = append(root.Content, scalar("description"), scalar(p.Description))
	}
	root.Content = append(root.Content, scalar("fields"), fields)

	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	return out, nil
}

// Save writes the profile to path.
func (p *Profile) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func valueNode(spec domain.FieldSpec, text string) *yaml.Node {
	switch spec.Kind {
	case domain.KindList:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, item := range inputmodel.SplitList(text) {
			seq.Content = append(seq.Content, scalar(item))
		}
		return seq
	case domain.KindOptional:
		if text == "" {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
	}
	return scalar(text)
}
