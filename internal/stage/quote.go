package stage

import (
	"context"
	"regexp"
	"sort"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

var (
	doubleQuoteRe = regexp.MustCompile(`"[^"]+"|“[^”]+”|''[^']+''|` + "``[^']+''")
	singleQuoteRe = regexp.MustCompile(`(?:^|[\s(])('[^']+')(?:[\s.,;:!?)]|$)|‘[^’]+’`)
)

type quoteAnnotator struct {
	base
	single bool
	maxLen int
}

func newQuoteAnnotator(name string, props config.Properties) (Stage, error) {
	return &quoteAnnotator{
		base:   base{requires: NewSet(Tokenize, Ssplit), satisfies: NewSet(Quote)},
		single: props.Bool(name+".singleQuotes", false),
		maxLen: props.Int(name+".maxLength", -1),
	}, nil
}

func (q *quoteAnnotator) Annotate(ctx context.Context, doc *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var out []document.Quote
	add := func(b, e int) {
		if q.maxLen > 0 && e-b > q.maxLen {
			return
		}
		out = append(out, document.Quote{Text: doc.Text[b:e], Begin: b, End: e})
	}
	for _, loc := range doubleQuoteRe.FindAllStringIndex(doc.Text, -1) {
		add(loc[0], loc[1])
	}
	if q.single {
		for _, loc := range singleQuoteRe.FindAllStringSubmatchIndex(doc.Text, -1) {
			if loc[2] >= 0 {
				add(loc[2], loc[3])
			} else {
				add(loc[0], loc[1])
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Begin < out[j].Begin })
	doc.Quotes = out
	return nil
}
