package stage

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// Newline sentence break policies read from ssplit.newlineIsSentenceBreak.
const (
	NewlineBreakNever  = "never"
	NewlineBreakAlways = "always"
	NewlineBreakTwo    = "two"
)

// KeyNewlineBreak controls paragraph handling in both tokenize and ssplit.
const KeyNewlineBreak = "ssplit.newlineIsSentenceBreak"

type tokenizer struct {
	base
	whitespace   bool
	keepNewlines bool
}

func newTokenizer(name string, props config.Properties) (Stage, error) {
	mode := props.Get(KeyNewlineBreak, NewlineBreakTwo)
	switch mode {
	case NewlineBreakNever, NewlineBreakAlways, NewlineBreakTwo:
	default:
		return nil, fmt.Errorf("%s: invalid %s: %q", name, KeyNewlineBreak, mode)
	}
	return &tokenizer{
		base:         base{requires: NewSet(), satisfies: NewSet(Tokenize)},
		whitespace:   props.Bool(name+".whitespace", false),
		keepNewlines: mode != NewlineBreakNever,
	}, nil
}

func (t *tokenizer) Annotate(ctx context.Context, doc *document.Document) error {
	text := doc.Text
	var tokens []document.Token
	newlines := 0
	for i := 0; i < len(text); {
		if len(tokens)%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			if r == '\n' {
				newlines++
			}
			i += size
			continue
		}
		end := t.scan(text, i)
		tok := document.Token{Index: len(tokens), Word: text[i:end], Begin: i, End: end}
		if t.keepNewlines {
			tok.NewlinesBefore = newlines
		}
		tokens = append(tokens, tok)
		newlines = 0
		i = end
	}
	doc.Tokens = tokens
	return nil
}

// scan returns the end offset of the token starting at i.
func (t *tokenizer) scan(text string, i int) int {
	if t.whitespace {
		j := i
		for j < len(text) {
			r, size := utf8.DecodeRuneInString(text[j:])
			if unicode.IsSpace(r) {
				break
			}
			j += size
		}
		return j
	}
	r, size := utf8.DecodeRuneInString(text[i:])
	if !isWordRune(r) {
		if r == '\'' && strings.HasPrefix(text[i:], "'s") && !nextIsWordRune(text, i+2) {
			return i + 2
		}
		return i + size
	}
	j := i + size
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		if isWordRune(r) {
			j += size
			continue
		}
		// Internal joiners: don't, state-of-the-art, U.S., 3.5
		if (r == '\'' || r == '-' || r == '.') && nextIsWordRune(text, j+size) {
			if r == '\'' && strings.HasPrefix(text[j:], "'s") && !nextIsWordRune(text, j+2) {
				break
			}
			j += size
			continue
		}
		break
	}
	// n't splits off its host: "don't" -> "do" "n't".
	if w := text[i:j]; len(w) > 3 && strings.HasSuffix(strings.ToLower(w), "n't") {
		return j - 3
	}
	if j < len(text) && text[j] == '.' && (abbreviations[text[i:j]] || strings.Contains(text[i:j], ".")) {
		return j + 1
	}
	return j
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func nextIsWordRune(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return isWordRune(r)
}
