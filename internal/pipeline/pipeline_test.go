package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
	"github.com/flarebyte/glossa/internal/stage"
)

func TestRunAppliesStagesStrictlyInOrder(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(name string) func(context.Context, *document.Document) error {
		return func(_ context.Context, doc *document.Document) error {
			mu.Lock()
			events = append(events, name+":start")
			mu.Unlock()
			// each stage sees its predecessor's mutation
			doc.SetMeta(name, len(doc.Meta))
			mu.Lock()
			events = append(events, name+":end")
			mu.Unlock()
			return nil
		}
	}
	reg := newCountingRegistry(t,
		row{name: "a", annotate: record("a")},
		row{name: "b", pre: []string{"a"}, annotate: record("b")},
		row{name: "c", pre: []string{"b"}, annotate: record("c")},
	)
	p, err := NewBuilder(reg, NewCache(CacheOptions{})).Build([]string{"c"}, config.Properties{}, true)
	require.NoError(t, err)

	doc, err := p.Run(context.Background(), document.New("d", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"a:start", "a:end", "b:start", "b:end", "c:start", "c:end"}, events)
	assert.Equal(t, map[string]any{"a": 0, "b": 1, "c": 2}, doc.Meta)
}

func TestRunStopsAtFirstFailingStage(t *testing.T) {
	cause := errors.New("bad input")
	ran := false
	reg := newCountingRegistry(t,
		row{name: "a", annotate: func(context.Context, *document.Document) error { return cause }},
		row{name: "b", pre: []string{"a"}, annotate: func(context.Context, *document.Document) error {
			ran = true
			return nil
		}},
	)
	p, err := NewBuilder(reg, NewCache(CacheOptions{})).Build([]string{"b"}, config.Properties{}, true)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), document.New("d", ""))
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "a", se.Stage)
	assert.ErrorIs(t, err, ErrStage)
	assert.ErrorIs(t, err, cause)
	assert.False(t, ran)
	assert.Equal(t, "stage failed: a: bad input", err.Error())
}

func TestRunChecksContextBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reg := newCountingRegistry(t,
		row{name: "a", annotate: func(context.Context, *document.Document) error {
			cancel()
			return nil
		}},
		row{name: "b", pre: []string{"a"}, annotate: func(context.Context, *document.Document) error {
			return fmt.Errorf("must not run")
		}},
	)
	p, err := NewBuilder(reg, NewCache(CacheOptions{})).Build([]string{"b"}, config.Properties{}, true)
	require.NoError(t, err)
	_, err = p.Run(ctx, document.New("d", ""))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStage)
}

func TestConcurrentRunsAreIsolated(t *testing.T) {
	b := newDefaultBuilder()
	p, err := b.Build([]string{"ner"}, config.Properties{}, true)
	require.NoError(t, err)

	texts := []string{"John met Mary.", "Paris is big. Rome is old.", "In 2020 we sold 15 cars."}
	want := make([][]string, len(texts))
	for i, text := range texts {
		doc, err := p.Run(context.Background(), document.New("seq", text))
		require.NoError(t, err)
		want[i] = words(doc)
	}

	var wg sync.WaitGroup
	for n := 0; n < 50; n++ {
		for i, text := range texts {
			wg.Add(1)
			go func(i int, text string) {
				defer wg.Done()
				doc, err := p.Run(context.Background(), document.New("par", text))
				if err != nil {
					t.Errorf("run: %v", err)
					return
				}
				assert.Equal(t, want[i], words(doc))
			}(i, text)
		}
	}
	wg.Wait()
	assert.Equal(t, []stage.Stage{p.instances[0].Stage}, p.Stages()[:1])
}

func words(doc *document.Document) []string {
	out := make([]string, len(doc.Tokens))
	for i, tok := range doc.Tokens {
		out[i] = tok.Word + "/" + tok.POS + "/" + tok.NER
	}
	return out
}
