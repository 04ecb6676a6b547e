package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
	"github.com/flarebyte/glossa/internal/stage"
)

func newDefaultBuilder() *Builder {
	return NewBuilder(stage.NewDefaultRegistry(), NewCache(CacheOptions{}))
}

func TestBuildSharesInstancesAcrossRelevantlyEqualConfigs(t *testing.T) {
	b := newDefaultBuilder()
	p1, err := b.Build([]string{"pos"}, props("lemma.unused", "1"), true)
	require.NoError(t, err)
	p2, err := b.Build([]string{"pos"}, props("lemma.unused", "2"), true)
	require.NoError(t, err)
	p3, err := b.Build([]string{"pos"}, props("pos.lexicon", "glossa:NNP"), true)
	require.NoError(t, err)

	assert.Same(t, p1.instances[2], p2.instances[2], "irrelevant key must not split the pos instance")
	assert.NotSame(t, p1.instances[2], p3.instances[2], "pos.lexicon is relevant to pos")
	assert.Same(t, p1.instances[0], p3.instances[0], "tokenize is unaffected by pos.lexicon")
}

func TestBuildDisablesNewlineBreaksWithoutSsplit(t *testing.T) {
	b := newDefaultBuilder()
	p, err := b.Build([]string{"tokenize"}, config.Properties{}, true)
	require.NoError(t, err)
	assert.Equal(t, stage.NewlineBreakNever, p.Properties().Get(stage.KeyNewlineBreak, ""))

	withSplit, err := b.Build([]string{"ssplit"}, config.Properties{}, true)
	require.NoError(t, err)
	assert.False(t, withSplit.Properties().Has(stage.KeyNewlineBreak))
	assert.NotSame(t, p.instances[0], withSplit.instances[0], "tokenize signature includes the derived key")

	explicit, err := b.Build([]string{"tokenize"}, props(stage.KeyNewlineBreak, stage.NewlineBreakAlways), true)
	require.NoError(t, err)
	assert.Equal(t, stage.NewlineBreakAlways, explicit.Properties().Get(stage.KeyNewlineBreak, ""))
}

func TestBuildEnforcesRequirements(t *testing.T) {
	reg := newCountingRegistry(t,
		row{name: "a"},
		row{name: "b", pre: []string{"a"}, requires: []stage.Requirement{"a", "x"}},
	)
	b := NewBuilder(reg, NewCache(CacheOptions{}))
	_, err := b.Build([]string{"b"}, config.Properties{}, true)
	var missing *MissingRequirementError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "b", missing.Stage)
	assert.Equal(t, []stage.Requirement{"x"}, missing.Missing)
	assert.ErrorIs(t, err, ErrMissingRequirement)

	p, err := b.Build([]string{"b"}, config.Properties{}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.Names())
}

func TestBuildDoesNotMemoizeConstructionErrors(t *testing.T) {
	var attempts atomic.Int64
	reg := newCountingRegistry(t, row{name: "model", fail: func() error {
		if attempts.Add(1) == 1 {
			return errors.New("model not found: m.bin")
		}
		return nil
	}})
	b := NewBuilder(reg, NewCache(CacheOptions{}))

	_, err := b.Build([]string{"model"}, config.Properties{}, true)
	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "model", ce.Stage)
	assert.ErrorIs(t, err, ErrConstruction)

	_, err = b.Build([]string{"model"}, config.Properties{}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reg.count("model"))
}

func TestConcurrentBuildsConstructOnce(t *testing.T) {
	reg := newCountingRegistry(t,
		row{name: "a"},
		row{name: "b", pre: []string{"a"}, requires: []stage.Requirement{"a"}},
		row{name: "c", pre: []string{"b"}, requires: []stage.Requirement{"b"}},
	)
	b := NewBuilder(reg, NewCache(CacheOptions{}))
	cfg := props("annotators", "c", "a.opt", "1")

	var wg sync.WaitGroup
	pipelines := make([]*Pipeline, 1000)
	for i := range pipelines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := b.BuildFromProperties(cfg)
			if err != nil {
				t.Errorf("build: %v", err)
				return
			}
			pipelines[i] = p
		}(i)
	}
	wg.Wait()
	for _, name := range []string{"a", "b", "c"} {
		assert.LessOrEqual(t, reg.count(name), int64(1), name)
	}
	for _, p := range pipelines {
		require.NotNil(t, p)
		assert.Equal(t, []string{"a", "b", "c"}, p.Names())
	}
}

func TestBuildMemoizesPipelines(t *testing.T) {
	b := newDefaultBuilder()
	p1, err := b.Build([]string{"lemma"}, config.Properties{}, true)
	require.NoError(t, err)
	p2, err := b.Build([]string{"pos", "lemma"}, config.Properties{}, true)
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	p3, err := b.Build([]string{"lemma"}, config.Properties{}, false)
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)
}

func TestMemoizedPipelineReportsCallerProperties(t *testing.T) {
	b := newDefaultBuilder()
	p1, err := b.Build([]string{"lemma"}, props("request.tag", "first"), true)
	require.NoError(t, err)
	p2, err := b.Build([]string{"lemma"}, props("request.tag", "second"), true)
	require.NoError(t, err)

	assert.Equal(t, "first", p1.Properties().Get("request.tag", ""))
	assert.Equal(t, "second", p2.Properties().Get("request.tag", ""))
	require.Len(t, p2.instances, len(p1.instances))
	for i := range p1.instances {
		assert.Same(t, p1.instances[i], p2.instances[i])
	}
}

func TestBuildCorefWithRuleMentionDetectionPullsParse(t *testing.T) {
	b := newDefaultBuilder()
	p, err := b.Build([]string{"coref"}, props(stage.KeyCorefMentionDetection, stage.MentionDetectionRule), true)
	require.NoError(t, err)
	assert.Contains(t, p.Names(), "parse")
	assert.NotContains(t, p.Names(), "depparse")
	assert.Equal(t, "coref", p.Names()[len(p.Names())-1])

	doc, err := p.Run(t.Context(), document.New("d", "John met Mary. He smiled."))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Sentences)
}

func TestClearForcesReconstructionButKeepsBuiltPipelines(t *testing.T) {
	reg := newCountingRegistry(t, row{name: "a", annotate: func(_ context.Context, doc *document.Document) error {
		doc.SetMeta("a", true)
		return nil
	}})
	cache := NewCache(CacheOptions{})
	b := NewBuilder(reg, cache)
	old, err := b.Build([]string{"a"}, config.Properties{}, true)
	require.NoError(t, err)

	cache.Clear()
	fresh, err := b.Build([]string{"a"}, config.Properties{}, true)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, int64(2), reg.count("a"))

	doc, err := old.Run(context.Background(), document.New("d", "x"))
	require.NoError(t, err)
	assert.Equal(t, true, doc.Meta["a"])
}

func TestBuildCustomLuaStage(t *testing.T) {
	b := newDefaultBuilder()
	cfg := props(
		"annotators", "custom:count",
		"customAnnotatorClass.count", "lua",
		"count.prerequisites", "tokenize",
		"count.requires", "tokenize",
		"count.script", "#doc.tokens",
	)
	p, err := b.BuildFromProperties(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"tokenize", "custom:count"}, p.Names())

	doc, err := p.Run(context.Background(), document.New("d", "one two three"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.Meta["count"])

	_, err = b.BuildFromProperties(cfg.With("customAnnotatorClass.count", "python"))
	assert.ErrorIs(t, err, ErrConstruction)
	assert.ErrorIs(t, err, stage.ErrUnknownPlugin)
}

func TestBuildDefaultPipelineEndToEnd(t *testing.T) {
	b := newDefaultBuilder()
	p, err := b.BuildFromProperties(props("annotators", "tokenize,ssplit,pos,lemma,ner,parse,coref,openie"))
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"tokenize", "ssplit", "pos", "lemma", "ner", "parse", "coref", "natlog", "openie"},
		p.Names())

	doc, err := p.Run(context.Background(), document.New("d", "John met Mary in Paris."))
	require.NoError(t, err)
	assert.Len(t, doc.Sentences, 1)
	assert.NotEmpty(t, doc.Sentences[0].Tree)
	assert.NotEmpty(t, doc.Triples)
}
