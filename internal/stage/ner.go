package stage

import (
	"context"
	"strconv"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// Entity types produced by the tagger.
const (
	NERPerson       = "PERSON"
	NEROrganization = "ORGANIZATION"
	NERLocation     = "LOCATION"
	NERMisc         = "MISC"
	NERDate         = "DATE"
	NERNumber       = "NUMBER"
	NEROther        = "O"
)

// nerTagger labels proper noun runs with gazetteer lookups and numeric
// classifiers.
type nerTagger struct {
	base
	numeric bool
	extra   map[string]string
}

func newNER(name string, props config.Properties) (Stage, error) {
	if err := checkModel(name, props); err != nil {
		return nil, err
	}
	extra := map[string]string{}
	// ner.gazette = "Acme:ORGANIZATION,Gotham:LOCATION"
	for _, item := range config.SplitList(props.Get(name+".gazette", "")) {
		if w, typ, ok := strings.Cut(item, ":"); ok {
			extra[strings.TrimSpace(w)] = strings.TrimSpace(typ)
		}
	}
	return &nerTagger{
		base:    base{requires: NewSet(Tokenize, Ssplit, POS, Lemma), satisfies: NewSet(NER)},
		numeric: props.Bool(name+".applyNumericClassifiers", true),
		extra:   extra,
	}, nil
}

func (n *nerTagger) Annotate(ctx context.Context, doc *document.Document) error {
	for _, s := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		n.tagSentence(doc.Tokens[s.TokenBegin:s.TokenEnd])
	}
	return nil
}

func (n *nerTagger) tagSentence(toks []document.Token) {
	for i := range toks {
		toks[i].NER = NEROther
	}
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if n.numeric {
			switch {
			case months[tok.Word] || weekdays[tok.Word]:
				toks[i].NER = NERDate
				continue
			case tok.POS == "CD" && isYear(tok.Word):
				toks[i].NER = NERDate
				continue
			case tok.POS == "CD":
				toks[i].NER = NERNumber
				continue
			}
		}
		if tok.POS != "NNP" || titles[tok.Word] {
			continue
		}
		j := i
		for j < len(toks) && toks[j].POS == "NNP" && !months[toks[j].Word] && !weekdays[toks[j].Word] {
			j++
		}
		if j == i {
			continue
		}
		typ := n.classify(toks, i, j)
		for k := i; k < j; k++ {
			toks[k].NER = typ
		}
		i = j - 1
	}
}

func (n *nerTagger) classify(toks []document.Token, begin, end int) string {
	for k := begin; k < end; k++ {
		if t, ok := n.extra[toks[k].Word]; ok {
			return t
		}
	}
	last := toks[end-1].Word
	if end < len(toks) && orgSuffixes[toks[end].Word] {
		last = toks[end].Word
	}
	switch {
	case orgSuffixes[last]:
		return NEROrganization
	case locations[toks[begin].Word] || locations[last]:
		return NERLocation
	case firstNames[toks[begin].Word]:
		return NERPerson
	case begin > 0 && titles[toks[begin-1].Word]:
		return NERPerson
	default:
		return NERMisc
	}
}

func isYear(w string) bool {
	if len(w) != 4 {
		return false
	}
	y, err := strconv.Atoi(w)
	return err == nil && y >= 1000 && y <= 2999
}
