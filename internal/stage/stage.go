// Package stage defines the annotator contract, the capability tokens stages
// exchange, and the registry of stage factories and prerequisites.
package stage

import (
	"context"
	"sort"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// Requirement names a piece of information a Document may carry.
type Requirement string

// Set is a set of requirements. Sets returned by a Stage are shared and must
// not be mutated by callers.
type Set map[Requirement]struct{}

// NewSet builds a set from the given tokens.
func NewSet(reqs ...Requirement) Set {
	s := make(Set, len(reqs))
	for _, r := range reqs {
		s[r] = struct{}{}
	}
	return s
}

// ParseSet builds a set from a comma separated token list.
func ParseSet(csv string) Set {
	s := Set{}
	for _, item := range config.SplitList(csv) {
		s[Requirement(item)] = struct{}{}
	}
	return s
}

// Has reports whether r is in s.
func (s Set) Has(r Requirement) bool {
	_, ok := s[r]
	return ok
}

// AddAll adds every token of other to s in place.
func (s Set) AddAll(other Set) {
	for r := range other {
		s[r] = struct{}{}
	}
}

// Missing returns the tokens of s absent from have, sorted.
func (s Set) Missing(have Set) []Requirement {
	var out []Requirement
	for r := range s {
		if !have.Has(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Sorted returns the tokens in lexical order.
func (s Set) Sorted() []Requirement {
	out := make([]Requirement, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the set as a sorted comma separated list.
func (s Set) String() string {
	parts := make([]string, 0, len(s))
	for _, r := range s.Sorted() {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ",")
}

// Stage is one pluggable annotator. Implementations must be safe for
// concurrent Annotate calls on distinct documents: a constructed stage is
// shared by every pipeline that resolves to the same signature.
//
// Annotate mutates doc in place. Long running stages should return
// promptly once ctx is done.
type Stage interface {
	Requires() Set
	Satisfies() Set
	Annotate(ctx context.Context, doc *document.Document) error
}

// Factory constructs a stage from the properties relevant to it.
type Factory func(name string, props config.Properties) (Stage, error)

// base carries the declared requirement sets of a built-in stage.
type base struct {
	requires  Set
	satisfies Set
}

func (b base) Requires() Set  { return b.requires }
func (b base) Satisfies() Set { return b.satisfies }
