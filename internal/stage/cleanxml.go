package stage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

var xmlTagPattern = regexp.MustCompile(`<(/?)([A-Za-z_][\w:.-]*)[^<>]*>`)

// cleanXML drops tokens that fall inside markup tags.
type cleanXML struct {
	base
	tags *regexp.Regexp
}

func newCleanXML(name string, props config.Properties) (Stage, error) {
	expr := props.Get(name+".xmltags", ".*")
	tags, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("%s: invalid %s.xmltags: %v", name, name, err)
	}
	return &cleanXML{
		base: base{requires: NewSet(Tokenize), satisfies: NewSet(CleanXML)},
		tags: tags,
	}, nil
}

func (c *cleanXML) Annotate(_ context.Context, doc *document.Document) error {
	var spans [][2]int
	for _, m := range xmlTagPattern.FindAllStringSubmatchIndex(doc.Text, -1) {
		if c.tags.MatchString(doc.Text[m[4]:m[5]]) {
			spans = append(spans, [2]int{m[0], m[1]})
		}
	}
	if len(spans) == 0 {
		return nil
	}
	kept := doc.Tokens[:0]
	s := 0
	for _, tok := range doc.Tokens {
		for s < len(spans) && spans[s][1] <= tok.Begin {
			s++
		}
		if s < len(spans) && tok.Begin >= spans[s][0] && tok.End <= spans[s][1] {
			continue
		}
		tok.Index = len(kept)
		kept = append(kept, tok)
	}
	doc.Tokens = kept
	return nil
}
