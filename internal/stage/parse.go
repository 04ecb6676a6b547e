package stage

import (
	"context"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// parser produces a shallow constituency bracketing and, like a full
// parser, the dependency analysis derived from it.
type parser struct {
	base
	maxLen int
}

func newParser(name string, props config.Properties) (Stage, error) {
	if err := checkModel(name, props); err != nil {
		return nil, err
	}
	return &parser{
		base:   base{requires: NewSet(Tokenize, Ssplit, POS), satisfies: NewSet(Parse, DepParse)},
		maxLen: props.Int(name+".maxlen", -1),
	}, nil
}

func (p *parser) Annotate(ctx context.Context, doc *document.Document) error {
	for i := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		toks := doc.SentenceTokens(doc.Sentences[i])
		if p.maxLen > 0 && len(toks) > p.maxLen {
			doc.Sentences[i].Tree = flatTree(toks)
		} else {
			doc.Sentences[i].Tree = chunkTree(toks)
		}
		doc.Sentences[i].Dependencies = dependencies(toks)
	}
	return nil
}

func phraseLabel(tag string) string {
	switch {
	case tag == "DT" || tag == "PRP$" || tag == "JJ" || tag == "CD" || tag == "PRP" || tag == "POS" || strings.HasPrefix(tag, "NN"):
		return "NP"
	case tag == "MD" || tag == "RB" || isVerbTag(tag):
		return "VP"
	case tag == "IN" || tag == "TO":
		return "PP"
	default:
		return ""
	}
}

func leaf(t document.Token) string {
	w := strings.NewReplacer("(", "-LRB-", ")", "-RRB-").Replace(t.Word)
	tag := t.POS
	if tag == "" {
		tag = "X"
	}
	return "(" + tag + " " + w + ")"
}

func chunkTree(toks []document.Token) string {
	var b strings.Builder
	b.WriteString("(ROOT (S")
	for i := 0; i < len(toks); {
		label := phraseLabel(toks[i].POS)
		if label == "" || label == "PP" {
			b.WriteString(" " + leafOrPhrase(label, toks[i:i+1]))
			i++
			continue
		}
		j := i + 1
		for j < len(toks) && phraseLabel(toks[j].POS) == label && !(label == "NP" && toks[j].POS == "DT") {
			j++
		}
		b.WriteString(" " + leafOrPhrase(label, toks[i:j]))
		i = j
	}
	b.WriteString("))")
	return b.String()
}

func leafOrPhrase(label string, toks []document.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = leaf(t)
	}
	if label == "" {
		return strings.Join(parts, " ")
	}
	return "(" + label + " " + strings.Join(parts, " ") + ")"
}

func flatTree(toks []document.Token) string {
	return "(ROOT (X" + " " + leafOrPhrase("", toks) + "))"
}
