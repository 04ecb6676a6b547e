package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file and flattens it into Properties.
// Supported formats, chosen by extension: .cue, .yaml/.yml, .properties.
// Nested structures become dotted keys; lists join with commas.
func Load(path string) (Properties, error) {
	var (
		flat map[string]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		flat, err = loadCUE(path)
	case ".yaml", ".yml":
		flat, err = loadYAML(path)
	case ".properties":
		flat, err = loadProperties(path)
	default:
		return Properties{}, errors.New("unsupported config format: expected .cue, .yaml or .properties")
	}
	if err != nil {
		return Properties{}, err
	}
	p := Properties{m: flat}
	if err := checkConfigVersion(p); err != nil {
		return Properties{}, err
	}
	return p, nil
}

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %v", err)
	}
	return v, nil
}

func loadCUE(path string) (map[string]string, error) {
	v, err := compileCUE(path)
	if err != nil {
		return nil, err
	}
	if v.Kind() != cue.StructKind {
		return nil, errors.New("invalid config: top level must be a struct")
	}
	out := map[string]string{}
	if err := flattenCUE("", v, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenCUE(prefix string, v cue.Value, out map[string]string) error {
	switch v.Kind() {
	case cue.StructKind:
		it, err := v.Fields()
		if err != nil {
			return fmt.Errorf("invalid config: %v", err)
		}
		for it.Next() {
			if err := flattenCUE(joinKey(prefix, it.Selector().Unquoted()), it.Value(), out); err != nil {
				return err
			}
		}
		return nil
	case cue.ListKind:
		it, err := v.List()
		if err != nil {
			return fmt.Errorf("invalid config: %v", err)
		}
		var items []string
		for it.Next() {
			s, err := cueScalar(prefix, it.Value())
			if err != nil {
				return err
			}
			items = append(items, s)
		}
		out[prefix] = strings.Join(items, ",")
		return nil
	default:
		s, err := cueScalar(prefix, v)
		if err != nil {
			return err
		}
		out[prefix] = s
		return nil
	}
}

func cueScalar(key string, v cue.Value) (string, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("invalid type for field: %s (expected scalar, got %v)", key, v.Kind())
	}
}

func loadYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}
	out := map[string]string{}
	if err := flattenAny("", doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenAny(prefix string, v any, out map[string]string) error {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := flattenAny(joinKey(prefix, k), x[k], out); err != nil {
				return err
			}
		}
	case []any:
		items := make([]string, 0, len(x))
		for _, it := range x {
			switch it.(type) {
			case map[string]any, []any:
				return fmt.Errorf("invalid type for field: %s (nested lists and maps are not supported)", prefix)
			}
			items = append(items, fmt.Sprint(it))
		}
		out[prefix] = strings.Join(items, ",")
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(x)
	}
	return nil
}

func loadProperties(path string) (map[string]string, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return p.Map(), nil
}

func joinKey(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + "." + k
}
