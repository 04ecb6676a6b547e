package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Properties is an immutable flat string-keyed property set. The zero value
// is an empty set. Every method that changes content returns a new value.
type Properties struct {
	m map[string]string
}

// FromMap copies m into a new Properties value.
func FromMap(m map[string]string) Properties {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Properties{m: cp}
}

// Lookup returns the value for key and whether it was set.
func (p Properties) Lookup(key string) (string, bool) {
	v, ok := p.m[key]
	return v, ok
}

// Get returns the value for key, or def when unset.
func (p Properties) Get(key, def string) string {
	if v, ok := p.m[key]; ok {
		return v
	}
	return def
}

// Has reports whether key is set.
func (p Properties) Has(key string) bool {
	_, ok := p.m[key]
	return ok
}

// Bool parses key as a boolean, returning def when unset or malformed.
func (p Properties) Bool(key string, def bool) bool {
	v, ok := p.m[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// Int parses key as an integer, returning def when unset or malformed.
func (p Properties) Int(key string, def int) int {
	v, ok := p.m[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// Duration parses key as a Go duration. A bare integer is read as
// milliseconds.
func (p Properties) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := p.m[key]
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid duration for %s: %q", key, v)
	}
	return d, nil
}

// List splits a comma separated value, trimming blanks and dropping empty
// items.
func (p Properties) List(key string) []string {
	return SplitList(p.m[key])
}

// SplitList splits a comma separated string into trimmed, non-empty items.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// With returns a copy of p with key set to value.
func (p Properties) With(key, value string) Properties {
	cp := make(map[string]string, len(p.m)+1)
	for k, v := range p.m {
		cp[k] = v
	}
	cp[key] = value
	return Properties{m: cp}
}

// Merge returns a copy of p overlaid with every key of other.
func (p Properties) Merge(other Properties) Properties {
	cp := make(map[string]string, len(p.m)+len(other.m))
	for k, v := range p.m {
		cp[k] = v
	}
	for k, v := range other.m {
		cp[k] = v
	}
	return Properties{m: cp}
}

// WithPrefix returns the subset of keys starting with prefix.
func (p Properties) WithPrefix(prefix string) Properties {
	cp := map[string]string{}
	for k, v := range p.m {
		if strings.HasPrefix(k, prefix) {
			cp[k] = v
		}
	}
	return Properties{m: cp}
}

// Keys returns every key in sorted order.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p.m))
	for k := range p.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys.
func (p Properties) Len() int { return len(p.m) }

// Map returns a copy of the underlying key/value pairs.
func (p Properties) Map() map[string]string {
	cp := make(map[string]string, len(p.m))
	for k, v := range p.m {
		cp[k] = v
	}
	return cp
}

// String renders the set as sorted key=value lines.
func (p Properties) String() string {
	var b strings.Builder
	for _, k := range p.Keys() {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(p.m[k])
		b.WriteByte('\n')
	}
	return b.String()
}
