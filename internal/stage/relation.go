package stage

import (
	"context"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// Relation types.
const (
	RelWorkFor    = "Work_For"
	RelLiveIn     = "Live_In"
	RelOrgBasedIn = "OrgBased_In"
	RelLocatedIn  = "Located_In"
)

var relationTypes = map[[2]string]string{
	{NERPerson, NEROrganization}:   RelWorkFor,
	{NERPerson, NERLocation}:       RelLiveIn,
	{NEROrganization, NERLocation}: RelOrgBasedIn,
	{NERLocation, NERLocation}:     RelLocatedIn,
}

// relationExtractor links ordered entity pairs of one sentence when a
// predicate or preposition sits between them.
type relationExtractor struct{ base }

func newRelationExtractor(string, config.Properties) (Stage, error) {
	return &relationExtractor{base{
		requires:  NewSet(Tokenize, Ssplit, POS, Lemma, NER, DepParse),
		satisfies: NewSet(Relation),
	}}, nil
}

func (r *relationExtractor) Annotate(ctx context.Context, doc *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	spans := nerSpans(doc)
	var out []document.Relation
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans) && spans[j].Sentence == spans[i].Sentence; j++ {
			typ, ok := relationTypes[[2]string{spans[i].Type, spans[j].Type}]
			if !ok || !linked(doc.Tokens[spans[i].TokenEnd:spans[j].TokenBegin]) {
				continue
			}
			out = append(out, document.Relation{
				Type:     typ,
				Subject:  spans[i].Text,
				Object:   spans[j].Text,
				Sentence: spans[i].Sentence,
			})
		}
	}
	doc.Relations = out
	return nil
}

func linked(between []document.Token) bool {
	if len(between) == 0 {
		return false
	}
	for _, t := range between {
		if isVerbTag(t.POS) || t.POS == "IN" || t.POS == "," {
			return true
		}
	}
	return false
}
