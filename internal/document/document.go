// Package document holds the mutable record that flows through a pipeline.
//
// A Document is owned by exactly one run at a time. Stages mutate it in
// place; nothing in this package synchronizes access.
package document

// Token is one word or punctuation unit with character offsets into
// Document.Text.
type Token struct {
	Index          int    `json:"index" yaml:"index"`
	Word           string `json:"word" yaml:"word"`
	Begin          int    `json:"begin" yaml:"begin"`
	End            int    `json:"end" yaml:"end"`
	NewlinesBefore int    `json:"newlinesBefore,omitempty" yaml:"newlinesBefore,omitempty"`
	POS            string `json:"pos,omitempty" yaml:"pos,omitempty"`
	Lemma          string `json:"lemma,omitempty" yaml:"lemma,omitempty"`
	NER            string `json:"ner,omitempty" yaml:"ner,omitempty"`
	Polarity       string `json:"polarity,omitempty" yaml:"polarity,omitempty"`
}

// Dependency is a head → dependent arc. Governor and Dependent are
// 1-based token positions within the sentence; Governor 0 is the root.
type Dependency struct {
	Rel       string `json:"rel" yaml:"rel"`
	Governor  int    `json:"governor" yaml:"governor"`
	Dependent int    `json:"dependent" yaml:"dependent"`
}

// Sentence spans Tokens[TokenBegin:TokenEnd].
type Sentence struct {
	Index        int          `json:"index" yaml:"index"`
	TokenBegin   int          `json:"tokenBegin" yaml:"tokenBegin"`
	TokenEnd     int          `json:"tokenEnd" yaml:"tokenEnd"`
	Tree         string       `json:"tree,omitempty" yaml:"tree,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Mention is a typed token span, TokenEnd exclusive, in document token
// indexes.
type Mention struct {
	Text       string `json:"text" yaml:"text"`
	Type       string `json:"type" yaml:"type"`
	Sentence   int    `json:"sentence" yaml:"sentence"`
	TokenBegin int    `json:"tokenBegin" yaml:"tokenBegin"`
	TokenEnd   int    `json:"tokenEnd" yaml:"tokenEnd"`
}

// CorefChain groups mentions referring to the same entity.
// Representative indexes into Mentions.
type CorefChain struct {
	ID             int       `json:"id" yaml:"id"`
	Representative int       `json:"representative" yaml:"representative"`
	Mentions       []Mention `json:"mentions" yaml:"mentions"`
}

// Triple is an open-domain subject/relation/object extraction.
type Triple struct {
	Subject  string `json:"subject" yaml:"subject"`
	Relation string `json:"relation" yaml:"relation"`
	Object   string `json:"object" yaml:"object"`
	Sentence int    `json:"sentence" yaml:"sentence"`
}

// Relation is a typed relation between two entity mentions.
type Relation struct {
	Type     string `json:"type" yaml:"type"`
	Subject  string `json:"subject" yaml:"subject"`
	Object   string `json:"object" yaml:"object"`
	Sentence int    `json:"sentence" yaml:"sentence"`
}

// Quote is a quoted span of Document.Text.
type Quote struct {
	Text  string `json:"text" yaml:"text"`
	Begin int    `json:"begin" yaml:"begin"`
	End   int    `json:"end" yaml:"end"`
}

// Document is one unit of work. Field order is stable to keep rendered
// output deterministic.
type Document struct {
	ID        string         `json:"id" yaml:"id"`
	Text      string         `json:"text" yaml:"text"`
	Date      string         `json:"date,omitempty" yaml:"date,omitempty"`
	Tokens    []Token        `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Sentences []Sentence     `json:"sentences,omitempty" yaml:"sentences,omitempty"`
	Mentions  []Mention      `json:"mentions,omitempty" yaml:"mentions,omitempty"`
	Coref     []CorefChain   `json:"coref,omitempty" yaml:"coref,omitempty"`
	Triples   []Triple       `json:"triples,omitempty" yaml:"triples,omitempty"`
	Relations []Relation     `json:"relations,omitempty" yaml:"relations,omitempty"`
	Quotes    []Quote        `json:"quotes,omitempty" yaml:"quotes,omitempty"`
	Meta      map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// New returns a document with no annotations.
func New(id, text string) *Document {
	return &Document{ID: id, Text: text}
}

// SentenceTokens returns the tokens of sentence s.
func (d *Document) SentenceTokens(s Sentence) []Token {
	if s.TokenBegin < 0 || s.TokenEnd > len(d.Tokens) || s.TokenBegin > s.TokenEnd {
		return nil
	}
	return d.Tokens[s.TokenBegin:s.TokenEnd]
}

// SpanText joins the words of Tokens[begin:end] with single spaces.
func (d *Document) SpanText(begin, end int) string {
	if begin < 0 || end > len(d.Tokens) || begin >= end {
		return ""
	}
	n := 0
	for _, t := range d.Tokens[begin:end] {
		n += len(t.Word) + 1
	}
	buf := make([]byte, 0, n)
	for i, t := range d.Tokens[begin:end] {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, t.Word...)
	}
	return string(buf)
}

// SetMeta stores v under key, allocating Meta on first use.
func (d *Document) SetMeta(key string, v any) {
	if d.Meta == nil {
		d.Meta = map[string]any{}
	}
	d.Meta[key] = v
}
