package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// Mention detection modes read from coref.md.type.
const (
	MentionDetectionDep  = "dep"
	MentionDetectionRule = "rule"
)

// KeyCorefMentionDetection selects the syntactic input coref relies on.
const KeyCorefMentionDetection = "coref.md.type"

const pronounType = "PRONOUN"

// coref clusters entity mentions by head match and attaches pronouns to the
// nearest compatible antecedent.
type coref struct {
	base
	maxDistance int
}

// corefPrerequisites follows coref.md.type: rule-based mention detection
// reads constituency trees, everything else reads dependencies.
func corefPrerequisites(props config.Properties) []string {
	syntax := "depparse"
	if props.Get(KeyCorefMentionDetection, "") == MentionDetectionRule {
		syntax = "parse"
	}
	return []string{"tokenize", "ssplit", "pos", "lemma", "ner", syntax}
}

func newCoref(name string, props config.Properties) (Stage, error) {
	req := NewSet(Tokenize, Ssplit, POS, Lemma, NER)
	switch md := props.Get(name+".md.type", MentionDetectionRule); md {
	case MentionDetectionDep:
		req[DepParse] = struct{}{}
	case MentionDetectionRule:
		req[Parse] = struct{}{}
	default:
		return nil, fmt.Errorf("%s: invalid md.type: %q", name, md)
	}
	return &coref{
		base:        base{requires: req, satisfies: NewSet(Coref)},
		maxDistance: props.Int(name+".maxMentionDistance", 3),
	}, nil
}

func (c *coref) Annotate(ctx context.Context, doc *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mentions := corefMentions(doc)
	chainOf := make([]int, len(mentions))
	var chains [][]int
	for i, m := range mentions {
		chainOf[i] = -1
		if m.Type == pronounType {
			if j := c.antecedent(doc, mentions, i); j >= 0 {
				chainOf[i] = chainOf[j]
				chains[chainOf[j]] = append(chains[chainOf[j]], i)
			}
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if mentions[j].Type == m.Type && headWord(mentions[j]) == headWord(m) {
				chainOf[i] = chainOf[j]
				break
			}
		}
		if chainOf[i] < 0 {
			chainOf[i] = len(chains)
			chains = append(chains, nil)
		}
		chains[chainOf[i]] = append(chains[chainOf[i]], i)
	}
	var out []document.CorefChain
	for _, members := range chains {
		if len(members) < 2 {
			continue
		}
		chain := document.CorefChain{ID: len(out) + 1}
		best := -1
		for k, idx := range members {
			m := mentions[idx]
			chain.Mentions = append(chain.Mentions, m)
			if m.Type != pronounType && (best < 0 || m.TokenEnd-m.TokenBegin > chain.Mentions[best].TokenEnd-chain.Mentions[best].TokenBegin) {
				best = k
			}
		}
		chain.Representative = best
		out = append(out, chain)
	}
	doc.Coref = out
	return nil
}

// antecedent returns the closest preceding entity mention compatible with
// the pronoun at i, or -1.
func (c *coref) antecedent(doc *document.Document, mentions []document.Mention, i int) int {
	p := strings.ToLower(doc.Tokens[mentions[i].TokenBegin].Word)
	for j := i - 1; j >= 0; j-- {
		m := mentions[j]
		if c.maxDistance >= 0 && mentions[i].Sentence-m.Sentence > c.maxDistance {
			return -1
		}
		if m.Type == pronounType {
			continue
		}
		switch {
		case personPronouns[p] && m.Type == NERPerson,
			thingPronouns[p] && (m.Type == NEROrganization || m.Type == NERLocation),
			pluralPronouns[p] && m.Type == NEROrganization:
			return j
		}
	}
	return -1
}

func headWord(m document.Mention) string {
	f := strings.Fields(m.Text)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

// corefMentions lists entity and pronoun mentions in token order.
func corefMentions(doc *document.Document) []document.Mention {
	spans := nerSpans(doc)
	var out []document.Mention
	k := 0
	for _, s := range doc.Sentences {
		for i := s.TokenBegin; i < s.TokenEnd; i++ {
			for k < len(spans) && spans[k].TokenBegin == i {
				switch spans[k].Type {
				case NERPerson, NEROrganization, NERLocation:
					out = append(out, spans[k])
				}
				k++
			}
			w := strings.ToLower(doc.Tokens[i].Word)
			if personPronouns[w] || thingPronouns[w] || pluralPronouns[w] {
				out = append(out, document.Mention{
					Text: doc.Tokens[i].Word, Type: pronounType, Sentence: s.Index,
					TokenBegin: i, TokenEnd: i + 1,
				})
			}
		}
	}
	return out
}
