package stage

import (
	"context"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

type lemmatizer struct{ base }

func newLemmatizer(_ string, _ config.Properties) (Stage, error) {
	return &lemmatizer{base{requires: NewSet(Tokenize, Ssplit, POS), satisfies: NewSet(Lemma)}}, nil
}

func (l *lemmatizer) Annotate(_ context.Context, doc *document.Document) error {
	for i := range doc.Tokens {
		doc.Tokens[i].Lemma = lemmaOf(doc.Tokens[i].Word, doc.Tokens[i].POS)
	}
	return nil
}

func lemmaOf(word, tag string) string {
	if strings.HasPrefix(tag, "NNP") {
		return word
	}
	lower := strings.ToLower(word)
	if l, ok := irregularLemmas[lower]; ok {
		return l
	}
	switch tag {
	case "NNS":
		switch {
		case strings.HasSuffix(lower, "ies") && len(lower) > 4:
			return lower[:len(lower)-3] + "y"
		case strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "shes"), strings.HasSuffix(lower, "xes"):
			return lower[:len(lower)-2]
		case strings.HasSuffix(lower, "s"):
			return lower[:len(lower)-1]
		}
	case "VBG":
		return stripVerbSuffix(lower, "ing")
	case "VBD", "VBN":
		return stripVerbSuffix(lower, "ed")
	case "VBZ":
		if strings.HasSuffix(lower, "s") {
			return lower[:len(lower)-1]
		}
	}
	return lower
}

func stripVerbSuffix(w, suffix string) string {
	if !strings.HasSuffix(w, suffix) || len(w) <= len(suffix)+2 {
		return w
	}
	stem := w[:len(w)-len(suffix)]
	// stopped -> stop
	if n := len(stem); n > 2 && stem[n-1] == stem[n-2] && !strings.ContainsRune("aeiouls", rune(stem[n-1])) {
		return stem[:n-1]
	}
	return stem
}
