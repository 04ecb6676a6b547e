package stage

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

type regexRule struct {
	tokens []*regexp.Regexp
	typ    string
}

// regexNER overlays entity types from token-sequence patterns. Each mapping
// line is "<pattern>\t<TYPE>" (or "<pattern> => <TYPE>"), where pattern is a
// space separated list of regular expressions matched against whole tokens.
type regexNER struct {
	base
	rules     []regexRule
	overwrite map[string]bool
}

func newRegexNER(name string, props config.Properties) (Stage, error) {
	mapping := props.Get(name+".mapping", "")
	if path := props.Get(name+".mappingFile", ""); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: mapping file: %v", name, err)
		}
		mapping += "\n" + string(b)
	}
	ignoreCase := props.Bool(name+".ignorecase", false)
	var rules []regexRule
	for _, line := range strings.FieldsFunc(mapping, func(r rune) bool { return r == '\n' || r == ';' }) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := parseRegexRule(line, ignoreCase)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", name, err)
		}
		rules = append(rules, rule)
	}
	return &regexNER{
		base:      base{requires: NewSet(Tokenize, Ssplit, POS), satisfies: NewSet(RegexNER)},
		rules:     rules,
		overwrite: wordSet(config.SplitList(props.Get(name+".overwrite", "MISC"))...),
	}, nil
}

func parseRegexRule(line string, ignoreCase bool) (regexRule, error) {
	pattern, typ, ok := strings.Cut(line, "\t")
	if !ok {
		pattern, typ, ok = strings.Cut(line, "=>")
	}
	pattern, typ = strings.TrimSpace(pattern), strings.TrimSpace(typ)
	if !ok || pattern == "" || typ == "" {
		return regexRule{}, fmt.Errorf("invalid mapping line: %q", line)
	}
	var rule regexRule
	rule.typ = typ
	for _, part := range strings.Fields(pattern) {
		expr := "^(?:" + part + ")$"
		if ignoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return regexRule{}, fmt.Errorf("invalid pattern %q: %v", part, err)
		}
		rule.tokens = append(rule.tokens, re)
	}
	return rule, nil
}

func (r *regexNER) Annotate(ctx context.Context, doc *document.Document) error {
	for _, s := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		toks := doc.Tokens[s.TokenBegin:s.TokenEnd]
		for i := 0; i < len(toks); i++ {
			for _, rule := range r.rules {
				if n := rule.match(toks[i:]); n > 0 && r.writable(toks[i:i+n]) {
					for k := i; k < i+n; k++ {
						toks[k].NER = rule.typ
					}
					i += n - 1
					break
				}
			}
		}
	}
	return nil
}

func (rule regexRule) match(toks []document.Token) int {
	if len(rule.tokens) > len(toks) {
		return 0
	}
	for k, re := range rule.tokens {
		if !re.MatchString(toks[k].Word) {
			return 0
		}
	}
	return len(rule.tokens)
}

// writable reports whether every token is untagged or carries an
// overwritable type.
func (r *regexNER) writable(toks []document.Token) bool {
	for _, t := range toks {
		if t.NER != "" && t.NER != NEROther && !r.overwrite[t.NER] {
			return false
		}
	}
	return true
}
