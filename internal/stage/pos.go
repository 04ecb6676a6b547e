package stage

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// tagger assigns Penn Treebank style tags from a closed-class lexicon and
// suffix rules.
type tagger struct {
	base
	lexicon map[string]string
}

func newTagger(name string, props config.Properties) (Stage, error) {
	if err := checkModel(name, props); err != nil {
		return nil, err
	}
	lex := make(map[string]string, len(closedClass))
	for w, tag := range closedClass {
		lex[w] = tag
	}
	// pos.lexicon = "word:TAG,word:TAG"
	for _, item := range config.SplitList(props.Get(name+".lexicon", "")) {
		if w, tag, ok := strings.Cut(item, ":"); ok {
			lex[strings.ToLower(strings.TrimSpace(w))] = strings.TrimSpace(tag)
		}
	}
	return &tagger{
		base:    base{requires: NewSet(Tokenize, Ssplit), satisfies: NewSet(POS)},
		lexicon: lex,
	}, nil
}

func (t *tagger) Annotate(ctx context.Context, doc *document.Document) error {
	for _, s := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := s.TokenBegin; i < s.TokenEnd; i++ {
			doc.Tokens[i].POS = t.tag(doc.Tokens[i].Word, i == s.TokenBegin)
		}
	}
	return nil
}

func (t *tagger) tag(word string, sentenceInitial bool) string {
	lower := strings.ToLower(word)
	if tag, ok := t.lexicon[lower]; ok {
		return tag
	}
	r, _ := utf8.DecodeRuneInString(word)
	switch {
	case word == "." || word == "!" || word == "?":
		return "."
	case word == "," || word == ";":
		return ","
	case word == ":" || word == "--" || word == "-":
		return ":"
	case word == "\"" || word == "“" || word == "``":
		return "``"
	case word == "”" || word == "''":
		return "''"
	case word == "(" || word == "[":
		return "-LRB-"
	case word == ")" || word == "]":
		return "-RRB-"
	case word == "'s":
		return "POS"
	case unicode.IsDigit(r):
		return "CD"
	case !isWordRune(r):
		return "SYM"
	case unicode.IsUpper(r) && (!sentenceInitial || months[word] || weekdays[word] || firstNames[word] || locations[word] || titles[word]):
		return "NNP"
	case strings.HasSuffix(lower, "ly") && len(lower) > 4:
		return "RB"
	case strings.HasSuffix(lower, "ing") && len(lower) > 4:
		return "VBG"
	case strings.HasSuffix(lower, "ed") && len(lower) > 3:
		return "VBD"
	case strings.HasSuffix(lower, "ous") || strings.HasSuffix(lower, "ful") || strings.HasSuffix(lower, "ive") || strings.HasSuffix(lower, "able"):
		return "JJ"
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") && len(lower) > 3:
		return "NNS"
	default:
		return "NN"
	}
}
