package stage

import (
	"context"
	"fmt"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

var closers = wordSet("\"", "''", "'", ")", "]", "”", "’")

type sentenceSplitter struct {
	base
	boundaries    map[string]bool
	newlineBreaks int
	oneSentence   bool
}

func newSentenceSplitter(name string, props config.Properties) (Stage, error) {
	s := &sentenceSplitter{
		base:        base{requires: NewSet(Tokenize), satisfies: NewSet(Ssplit)},
		boundaries:  wordSet(config.SplitList(props.Get(name+".boundaryTokens", ".,!,?"))...),
		oneSentence: props.Bool(name+".isOneSentence", false),
	}
	switch mode := props.Get(KeyNewlineBreak, NewlineBreakTwo); mode {
	case NewlineBreakNever:
	case NewlineBreakAlways:
		s.newlineBreaks = 1
	case NewlineBreakTwo:
		s.newlineBreaks = 2
	default:
		return nil, fmt.Errorf("%s: invalid %s: %q", name, KeyNewlineBreak, mode)
	}
	return s, nil
}

func (s *sentenceSplitter) Annotate(_ context.Context, doc *document.Document) error {
	var sentences []document.Sentence
	start := 0
	emit := func(end int) {
		if end > start {
			sentences = append(sentences, document.Sentence{Index: len(sentences), TokenBegin: start, TokenEnd: end})
		}
		start = end
	}
	if s.oneSentence {
		emit(len(doc.Tokens))
		doc.Sentences = sentences
		return nil
	}
	for i := 0; i < len(doc.Tokens); i++ {
		tok := doc.Tokens[i]
		if s.newlineBreaks > 0 && tok.NewlinesBefore >= s.newlineBreaks {
			emit(i)
		}
		if !s.boundaries[tok.Word] {
			continue
		}
		end := i + 1
		for end < len(doc.Tokens) && closers[doc.Tokens[end].Word] && doc.Tokens[end].NewlinesBefore == 0 {
			end++
		}
		emit(end)
		i = end - 1
	}
	emit(len(doc.Tokens))
	doc.Sentences = sentences
	return nil
}
