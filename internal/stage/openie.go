package stage

import (
	"context"
	"sort"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// openIE reads subject/relation/object triples off the dependency arcs of
// each sentence's root predicate.
type openIE struct {
	base
	resolveCoref bool
}

func newOpenIE(name string, props config.Properties) (Stage, error) {
	resolve := props.Bool(name+".resolve_coref", false)
	req := NewSet(Tokenize, Ssplit, POS, Lemma, DepParse, NatLog)
	if resolve {
		req[Coref] = struct{}{}
	}
	return &openIE{base: base{requires: req, satisfies: NewSet(OpenIE)}, resolveCoref: resolve}, nil
}

func (o *openIE) Annotate(ctx context.Context, doc *document.Document) error {
	rep := map[int]string{}
	if o.resolveCoref {
		rep = representatives(doc)
	}
	var out []document.Triple
	for _, s := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		out = append(out, sentenceTriples(doc, s, rep)...)
	}
	doc.Triples = out
	return nil
}

// representatives maps the head token of every coreferent mention to the
// text of its chain's representative mention.
func representatives(doc *document.Document) map[int]string {
	out := map[int]string{}
	for _, c := range doc.Coref {
		if c.Representative < 0 || c.Representative >= len(c.Mentions) {
			continue
		}
		text := c.Mentions[c.Representative].Text
		for _, m := range c.Mentions {
			out[m.TokenEnd-1] = text
		}
	}
	return out
}

func sentenceTriples(doc *document.Document, s document.Sentence, rep map[int]string) []document.Triple {
	toks := doc.SentenceTokens(s)
	root, subj, obj := -1, -1, -1
	var obls []int
	children := map[int][]document.Dependency{}
	for _, d := range s.Dependencies {
		children[d.Governor] = append(children[d.Governor], d)
		if d.Rel == "root" {
			root = d.Dependent
		}
	}
	if root <= 0 {
		return nil
	}
	negated := false
	for _, d := range children[root] {
		switch d.Rel {
		case "nsubj":
			subj = d.Dependent
		case "obj":
			obj = d.Dependent
		case "obl":
			obls = append(obls, d.Dependent)
		case "advmod":
			if negationWords[strings.ToLower(toks[d.Dependent-1].Word)] {
				negated = true
			}
		}
	}
	if subj < 0 {
		return nil
	}
	phrase := func(head int) string {
		if text, ok := rep[s.TokenBegin+head-1]; ok {
			return text
		}
		idx := []int{head}
		for _, d := range children[head] {
			if d.Rel == "compound" || d.Rel == "amod" {
				idx = append(idx, d.Dependent)
			}
		}
		sort.Ints(idx)
		words := make([]string, len(idx))
		for i, k := range idx {
			words[i] = toks[k-1].Word
		}
		return strings.Join(words, " ")
	}
	verb := toks[root-1].Lemma
	if verb == "" {
		verb = strings.ToLower(toks[root-1].Word)
	}
	if negated {
		verb = "not " + verb
	}
	var out []document.Triple
	if obj > 0 {
		out = append(out, document.Triple{Subject: phrase(subj), Relation: verb, Object: phrase(obj), Sentence: s.Index})
	}
	for _, o := range obls {
		prep := ""
		for _, d := range children[o] {
			if d.Rel == "case" {
				prep = strings.ToLower(toks[d.Dependent-1].Word)
			}
		}
		rel := verb
		if prep != "" {
			rel += " " + prep
		}
		out = append(out, document.Triple{Subject: phrase(subj), Relation: rel, Object: phrase(o), Sentence: s.Index})
	}
	return out
}
