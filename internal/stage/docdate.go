package stage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// docDate fills Document.Date from a fixed value or from the document ID.
type docDate struct {
	base
	fixed   string
	extract *regexp.Regexp
}

func newDocDate(name string, props config.Properties) (Stage, error) {
	expr := props.Get(name+".extract", `\d{4}-\d{2}-\d{2}`)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid %s.extract: %v", name, name, err)
	}
	return &docDate{
		base:    base{requires: NewSet(), satisfies: NewSet(DocDate)},
		fixed:   props.Get(name+".date", ""),
		extract: re,
	}, nil
}

func (d *docDate) Annotate(_ context.Context, doc *document.Document) error {
	if doc.Date != "" {
		return nil
	}
	if d.fixed != "" {
		doc.Date = d.fixed
		return nil
	}
	doc.Date = d.extract.FindString(doc.ID)
	return nil
}
