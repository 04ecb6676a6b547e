package stage

import (
	"context"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

type depParser struct{ base }

func newDepParser(name string, props config.Properties) (Stage, error) {
	if err := checkModel(name, props); err != nil {
		return nil, err
	}
	return &depParser{base{requires: NewSet(Tokenize, Ssplit, POS), satisfies: NewSet(DepParse)}}, nil
}

func (p *depParser) Annotate(ctx context.Context, doc *document.Document) error {
	for i := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc.Sentences[i].Dependencies = dependencies(doc.SentenceTokens(doc.Sentences[i]))
	}
	return nil
}

// rootIndex picks the first verb, else the first non-punctuation token.
// The result is a 0-based position in toks.
func rootIndex(toks []document.Token) int {
	for i, t := range toks {
		if isVerbTag(t.POS) && t.POS != "VBG" {
			return i
		}
	}
	for i, t := range toks {
		if isVerbTag(t.POS) {
			return i
		}
	}
	for i, t := range toks {
		if !isPunctTag(t.POS) {
			return i
		}
	}
	return 0
}

// nounHead returns the last noun of the contiguous noun run starting at or
// after i, or -1 when a verb or punctuation intervenes.
func nounHead(toks []document.Token, i int) int {
	for i < len(toks) && !isNounTag(toks[i].POS) {
		tag := toks[i].POS
		if isVerbTag(tag) || isPunctTag(tag) || tag == "CC" {
			return -1
		}
		i++
	}
	if i >= len(toks) {
		return -1
	}
	for i+1 < len(toks) && strings.HasPrefix(toks[i+1].POS, "NN") && strings.HasPrefix(toks[i].POS, "NN") {
		i++
	}
	return i
}

// dependencies builds a shallow head-first dependency analysis.
func dependencies(toks []document.Token) []document.Dependency {
	if len(toks) == 0 {
		return nil
	}
	root := rootIndex(toks)
	deps := make([]document.Dependency, 0, len(toks))
	add := func(rel string, gov, dep int) {
		deps = append(deps, document.Dependency{Rel: rel, Governor: gov + 1, Dependent: dep + 1})
	}
	hasSubj, hasObj := false, false
	for i := range toks {
		if i == root {
			deps = append(deps, document.Dependency{Rel: "root", Governor: 0, Dependent: i + 1})
			continue
		}
		tag := toks[i].POS
		switch {
		case isPunctTag(tag):
			add("punct", root, i)
		case tag == "DT" || tag == "PRP$" || tag == "JJ" || tag == "IN" || tag == "TO" || tag == "POS":
			head := nounHead(toks, i+1)
			if head < 0 {
				add("dep", root, i)
				break
			}
			rel := map[string]string{"DT": "det", "PRP$": "nmod:poss", "JJ": "amod", "IN": "case", "TO": "case", "POS": "case"}[tag]
			add(rel, head, i)
		case strings.HasPrefix(tag, "NN") && i+1 < len(toks) && strings.HasPrefix(toks[i+1].POS, "NN"):
			add("compound", nounHead(toks, i), i)
		case isNounTag(tag):
			rel := "dep"
			switch {
			case i > 0 && (toks[i-1].POS == "IN" || toks[i-1].POS == "TO" || precededByCase(toks, i)):
				rel = "obl"
			case i < root && !hasSubj:
				rel, hasSubj = "nsubj", true
			case i > root && !hasObj:
				rel, hasObj = "obj", true
			}
			add(rel, root, i)
		case tag == "MD" || (isVerbTag(tag) && i < root):
			add("aux", root, i)
		case tag == "RB":
			add("advmod", root, i)
		case tag == "CC":
			add("cc", root, i)
		case isVerbTag(tag):
			add("conj", root, i)
		default:
			add("dep", root, i)
		}
	}
	return deps
}

// precededByCase reports whether the noun phrase ending at i opens with a
// preposition.
func precededByCase(toks []document.Token, i int) bool {
	for j := i - 1; j >= 0; j-- {
		tag := toks[j].POS
		switch {
		case tag == "IN" || tag == "TO":
			return true
		case tag == "DT" || tag == "JJ" || tag == "PRP$" || strings.HasPrefix(tag, "NN") || tag == "CD":
			continue
		default:
			return false
		}
	}
	return false
}
