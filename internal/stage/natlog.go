package stage

import (
	"context"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// Token polarities.
const (
	PolarityUp   = "up"
	PolarityDown = "down"
)

// natLog marks tokens under the scope of a negation as downward monotone.
// Scope runs from the negation to the next clause boundary.
type natLog struct{ base }

func newNatLog(string, config.Properties) (Stage, error) {
	return &natLog{base{requires: NewSet(Tokenize, Ssplit, POS, Lemma, DepParse), satisfies: NewSet(NatLog)}}, nil
}

func (n *natLog) Annotate(ctx context.Context, doc *document.Document) error {
	for _, s := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		toks := doc.Tokens[s.TokenBegin:s.TokenEnd]
		down := false
		for i := range toks {
			w := strings.ToLower(toks[i].Word)
			switch {
			case negationWords[w] || negationWords[strings.ToLower(toks[i].Lemma)]:
				down = true
			case toks[i].POS == "," || toks[i].POS == ":" || toks[i].POS == "CC" || toks[i].POS == ".":
				down = false
			}
			toks[i].Polarity = PolarityUp
			if down {
				toks[i].Polarity = PolarityDown
			}
		}
	}
	return nil
}
