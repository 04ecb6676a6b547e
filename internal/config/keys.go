package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Well-known top-level keys.
const (
	KeyAnnotators          = "annotators"
	KeyThreads             = "threads"
	KeyEnforceRequirements = "enforceRequirements"
	KeyTimeout             = "timeout"
	KeyCacheMaxEntries     = "cache.maxEntries"

	// CustomClassPrefix prefixes the implementation class of a custom stage:
	// customAnnotatorClass.<name> = <class>.
	CustomClassPrefix = "customAnnotatorClass."
)

// DefaultCacheMaxEntries bounds the strong tier of the stage cache.
const DefaultCacheMaxEntries = 128

// Annotators returns the requested stage list in the order given.
func (p Properties) Annotators() []string {
	return p.List(KeyAnnotators)
}

// Threads returns the worker pool size, defaulting to the CPU count.
func (p Properties) Threads() int {
	n := p.Int(KeyThreads, runtime.NumCPU())
	if n < 1 {
		n = 1
	}
	return n
}

// EnforceRequirements reports whether the builder verifies stage
// requirements. Defaults to true.
func (p Properties) EnforceRequirements() bool {
	return p.Bool(KeyEnforceRequirements, true)
}

// Timeout returns the per-request deadline; zero means none.
func (p Properties) Timeout() (time.Duration, error) {
	d, err := p.Duration(KeyTimeout, 0)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", KeyTimeout)
	}
	return d, nil
}

// CacheMaxEntries returns the strong retention bound of the stage cache.
func (p Properties) CacheMaxEntries() int {
	n := p.Int(KeyCacheMaxEntries, DefaultCacheMaxEntries)
	if n < 1 {
		n = 1
	}
	return n
}

// CustomClass returns the implementation class configured for a custom
// stage name.
func (p Properties) CustomClass(name string) (string, bool) {
	v, ok := p.Lookup(CustomClassPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// ParseAssignment splits a "key=value" override.
func ParseAssignment(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", fmt.Errorf("invalid property override: %q (expected key=value)", s)
	}
	return k, strings.TrimSpace(v), nil
}
