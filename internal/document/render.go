package document

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// MarshalYAML returns canonical YAML bytes for a document. Meta keys are
// sorted at every depth so rewriting the same document is byte-stable.
func MarshalYAML(d *Document) ([]byte, error) {
	top := &yaml.Node{}
	if err := top.Encode(d); err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == "meta" {
			top.Content[i+1] = canonicalNode(d.Meta)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	out = append(out, '\n')
	return out, nil
}

// MarshalJSON returns a single JSON line with HTML escaping disabled.
func MarshalJSON(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders d in the given format ("yaml" or "json") to path, creating
// parent directories.
func Write(path, format string, d *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := Marshal(format, d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Marshal dispatches on format; anything but "json" renders YAML.
func Marshal(format string, d *Document) ([]byte, error) {
	if format == "json" {
		return MarshalJSON(d)
	}
	return MarshalYAML(d)
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func scalarFrom(v any) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(v)
	return n
}

func canonicalNode(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.MappingNode}
	case map[string]any:
		return canonicalMapNode(x)
	case map[any]any:
		m := map[string]any{}
		for k, vv := range x {
			if ks, ok := k.(string); ok {
				m[ks] = vv
			}
		}
		return canonicalMapNode(m)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range x {
			n.Content = append(n.Content, canonicalNode(it))
		}
		return n
	default:
		return scalarFrom(x)
	}
}

func canonicalMapNode(m map[string]any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	if len(m) == 0 {
		return n
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Content = append(n.Content, scalarNode(k), canonicalNode(m[k]))
	}
	return n
}
