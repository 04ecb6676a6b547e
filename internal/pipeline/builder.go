package pipeline

import (
	"strconv"
	"strings"
	"sync"
	"weak"

	"github.com/go-logr/logr"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/stage"
)

// Builder assembles verified pipelines from requests. Pipelines are
// memoized per ordered stage list and relevant properties for as long as
// some caller still holds them.
type Builder struct {
	reg   Registry
	cache *Cache
	log   logr.Logger

	mu    sync.Mutex
	built map[string]weak.Pointer[Pipeline]
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the builder logger. Built pipelines inherit it.
func WithLogger(log logr.Logger) BuilderOption {
	return func(b *Builder) { b.log = log }
}

// NewBuilder returns a builder drawing instances from cache.
func NewBuilder(reg Registry, cache *Cache, opts ...BuilderOption) *Builder {
	b := &Builder{
		reg:   reg,
		cache: cache,
		built: map[string]weak.Pointer[Pipeline]{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFromProperties builds the pipeline named by the annotators key,
// honoring enforceRequirements.
func (b *Builder) BuildFromProperties(props config.Properties) (*Pipeline, error) {
	return b.Build(props.Annotators(), props, props.EnforceRequirements())
}

// Build resolves requested, pulls every stage from the cache and verifies
// that each stage's requirements are satisfied by the stages before it when
// enforce is set.
func (b *Builder) Build(requested []string, props config.Properties, enforce bool) (*Pipeline, error) {
	b.cache.Prune()
	b.pruneBuilt()

	names, props, err := Plan(b.reg, requested, props)
	if err != nil {
		return nil, err
	}

	pool := NewPool(b.reg, b.cache, props)
	key := b.memoKey(pool, names, enforce)
	b.mu.Lock()
	if wp, ok := b.built[key]; ok {
		if p := wp.Value(); p != nil {
			b.mu.Unlock()
			return p.withProperties(props), nil
		}
	}
	b.mu.Unlock()

	p := &Pipeline{names: names, props: props, log: b.log}
	satisfied := stage.Set{}
	for _, name := range names {
		inst, err := pool.Get(name)
		if err != nil {
			return nil, err
		}
		if enforce {
			if missing := inst.Stage.Requires().Missing(satisfied); len(missing) > 0 {
				return nil, &MissingRequirementError{Stage: name, Missing: missing}
			}
		}
		satisfied.AddAll(inst.Stage.Satisfies())
		p.instances = append(p.instances, inst)
	}

	b.mu.Lock()
	b.built[key] = weak.Make(p)
	b.mu.Unlock()
	b.log.V(1).Info("pipeline built", "stages", strings.Join(names, ","), "enforce", enforce)
	return p, nil
}

// Plan resolves requested and applies the builder's property rules. The
// returned properties are the ones stage signatures are computed from.
func Plan(tab Table, requested []string, props config.Properties) ([]string, config.Properties, error) {
	names, props, err := Resolve(tab, requested, props)
	if err != nil {
		return nil, config.Properties{}, err
	}
	// Without ssplit, newlines never break sentences.
	if !contains(names, nameSsplit) && !props.Has(stage.KeyNewlineBreak) {
		props = props.With(stage.KeyNewlineBreak, stage.NewlineBreakNever)
	}
	return names, props, nil
}

func (b *Builder) memoKey(pool *Pool, names []string, enforce bool) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(b.cache.generation(), 10))
	sb.WriteString(";")
	sb.WriteString(strconv.FormatBool(enforce))
	for _, name := range names {
		sb.WriteString(";")
		sb.WriteString(pool.Signature(name).String())
	}
	return sb.String()
}

func (b *Builder) pruneBuilt() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, wp := range b.built {
		if wp.Value() == nil {
			delete(b.built, key)
		}
	}
}
