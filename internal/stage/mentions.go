package stage

import (
	"context"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

type entityMentions struct {
	base
	skip map[string]bool
}

func newEntityMentions(name string, props config.Properties) (Stage, error) {
	return &entityMentions{
		base: base{requires: NewSet(Tokenize, Ssplit, POS, Lemma, NER), satisfies: NewSet(EntityMentions)},
		skip: wordSet(config.SplitList(props.Get(name+".skipTypes", ""))...),
	}, nil
}

func (e *entityMentions) Annotate(_ context.Context, doc *document.Document) error {
	var out []document.Mention
	for _, m := range nerSpans(doc) {
		if !e.skip[m.Type] {
			out = append(out, m)
		}
	}
	doc.Mentions = out
	return nil
}

// nerSpans groups maximal runs of equal, non-O NER tags within each sentence.
func nerSpans(doc *document.Document) []document.Mention {
	var out []document.Mention
	for _, s := range doc.Sentences {
		for i := s.TokenBegin; i < s.TokenEnd; {
			typ := doc.Tokens[i].NER
			if typ == "" || typ == NEROther {
				i++
				continue
			}
			j := i + 1
			for j < s.TokenEnd && doc.Tokens[j].NER == typ {
				j++
			}
			out = append(out, document.Mention{
				Text:       doc.SpanText(i, j),
				Type:       typ,
				Sentence:   s.Index,
				TokenBegin: i,
				TokenEnd:   j,
			})
			i = j
		}
	}
	return out
}
