package stage

import (
	"context"
	"testing"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// annotate runs the named built-in stages in order over text.
func annotate(t *testing.T, text string, props map[string]string, names ...string) *document.Document {
	t.Helper()
	reg := NewDefaultRegistry()
	p := config.FromMap(props)
	doc := document.New("doc-1", text)
	for _, name := range names {
		st, err := reg.Construct(name, p)
		if err != nil {
			t.Fatalf("construct %s: %v", name, err)
		}
		if err := st.Annotate(context.Background(), doc); err != nil {
			t.Fatalf("annotate %s: %v", name, err)
		}
	}
	return doc
}

func words(toks []document.Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Word
	}
	return out
}

func field(toks []document.Token, f func(document.Token) string) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = f(tok)
	}
	return out
}

func propsOf(kv ...string) config.Properties {
	m := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return config.FromMap(m)
}
