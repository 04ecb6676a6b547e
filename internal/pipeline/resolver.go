package pipeline

import (
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/stage"
)

// maxExpansionSteps bounds prerequisite expansion.
const maxExpansionSteps = 1_000_000

// Stage names the normalization rules refer to.
const (
	nameParse    = "parse"
	nameDepParse = "depparse"
	nameNER      = "ner"
	nameRegexNER = "regexner"
	nameCoref    = "coref"
	nameOpenIE   = "openie"
	nameSsplit   = "ssplit"
)

// Table is the prerequisite view of a stage registry.
type Table interface {
	Known(name string, props config.Properties) bool
	Prerequisites(name string, props config.Properties) ([]string, bool)
}

// Resolve turns an unordered request into a dependency-correct,
// deduplicated execution order. Properties are immutable: keys derived by
// the normalization rules are returned in a new Properties value.
func Resolve(tab Table, requested []string, props config.Properties) ([]string, config.Properties, error) {
	req := make([]string, 0, len(requested))
	requestedSet := map[string]bool{}
	for _, name := range requested {
		name = strings.TrimSpace(name)
		if name == "" || requestedSet[name] {
			continue
		}
		if !tab.Known(name, props) {
			return nil, props, &UnknownStageError{Name: name}
		}
		requestedSet[name] = true
		req = append(req, name)
	}

	closure, prereqs, err := expand(tab, req, props)
	if err != nil {
		return nil, props, err
	}

	// parse also provides depparse. Dropping depparse before ordering lets
	// parse take its place in every dependent's prerequisite list.
	if contains(closure, nameParse) && contains(closure, nameDepParse) && !requestedSet[nameDepParse] {
		closure = remove(closure, nameDepParse)
		for name, pre := range prereqs {
			prereqs[name] = substitute(pre, nameDepParse, nameParse)
		}
	}

	order, err := topoSort(closure, prereqs)
	if err != nil {
		return nil, props, &UnsatisfiableError{Request: req, Remaining: unsatisfiedNames(closure, order)}
	}

	order = moveAfter(order, nameRegexNER, nameNER, prereqs)
	if i, j := index(order, nameOpenIE), index(order, nameCoref); i >= 0 && j > i {
		order = moveAfter(order, nameOpenIE, nameCoref, prereqs)
	}
	if contains(order, nameCoref) && !contains(order, nameParse) && !props.Has(stage.KeyCorefMentionDetection) {
		props = props.With(stage.KeyCorefMentionDetection, stage.MentionDetectionDep)
	}
	return order, props, nil
}

// expand computes the transitive prerequisite closure in discovery order.
func expand(tab Table, req []string, props config.Properties) ([]string, map[string][]string, error) {
	closure := append([]string(nil), req...)
	seen := map[string]bool{}
	for _, name := range req {
		seen[name] = true
	}
	prereqs := map[string][]string{}
	steps := 0
	for i := 0; i < len(closure); i++ {
		name := closure[i]
		pre, ok := tab.Prerequisites(name, props)
		if !ok {
			return nil, nil, &UnknownStageError{Name: name}
		}
		prereqs[name] = pre
		for _, p := range pre {
			steps++
			if steps > maxExpansionSteps {
				return nil, nil, circularError(maxExpansionSteps)
			}
			if !seen[p] {
				seen[p] = true
				closure = append(closure, p)
			}
		}
	}
	return closure, prereqs, nil
}

// topoSort repeatedly scans the remaining names and appends each one whose
// prerequisites are all ordered. A scan that appends nothing fails.
func topoSort(closure []string, prereqs map[string][]string) ([]string, error) {
	ordered := map[string]bool{}
	out := make([]string, 0, len(closure))
	remaining := append([]string(nil), closure...)
	for len(remaining) > 0 {
		next := remaining[:0:0]
		for _, name := range remaining {
			if all(prereqs[name], ordered) {
				ordered[name] = true
				out = append(out, name)
			} else {
				next = append(next, name)
			}
		}
		if len(next) == len(remaining) {
			return out, ErrUnsatisfiable
		}
		remaining = next
	}
	return out, nil
}

func all(names []string, set map[string]bool) bool {
	for _, n := range names {
		if !set[n] {
			return false
		}
	}
	return true
}

func unsatisfiedNames(closure, ordered []string) []string {
	var out []string
	for _, n := range closure {
		if !contains(ordered, n) {
			out = append(out, n)
		}
	}
	return out
}

// moveAfter places name immediately after anchor when both are present.
// Stages between the two that need name, directly or transitively, travel
// with it in their existing order. A move that would break any
// prerequisite, such as anchor itself needing name, leaves order unchanged.
func moveAfter(order []string, name, anchor string, prereqs map[string][]string) []string {
	i, j := index(order, name), index(order, anchor)
	if i < 0 || j < 0 || i == j+1 {
		return order
	}
	block := []string{name}
	if i < j {
		for _, n := range order[i+1 : j] {
			if dependsOn(n, name, prereqs) {
				block = append(block, n)
			}
		}
	}
	rest := make([]string, 0, len(order))
	for _, n := range order {
		if !contains(block, n) {
			rest = append(rest, n)
		}
	}
	at := index(rest, anchor) + 1
	out := make([]string, 0, len(order))
	out = append(out, rest[:at]...)
	out = append(out, block...)
	out = append(out, rest[at:]...)
	if !respectsPrerequisites(out, prereqs) {
		return order
	}
	return out
}

// dependsOn reports whether name needs target through its prerequisites.
func dependsOn(name, target string, prereqs map[string][]string) bool {
	seen := map[string]bool{}
	stack := append([]string(nil), prereqs[name]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if !seen[n] {
			seen[n] = true
			stack = append(stack, prereqs[n]...)
		}
	}
	return false
}

// respectsPrerequisites reports whether every stage follows all of its prerequisites.
func respectsPrerequisites(order []string, prereqs map[string][]string) bool {
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	for i, n := range order {
		for _, p := range prereqs[n] {
			if j, ok := pos[p]; !ok || j >= i {
				return false
			}
		}
	}
	return true
}

func index(list []string, name string) int {
	for i, n := range list {
		if n == name {
			return i
		}
	}
	return -1
}

func contains(list []string, name string) bool { return index(list, name) >= 0 }

func remove(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func substitute(list []string, from, to string) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		if n == from {
			n = to
		}
		if !contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
