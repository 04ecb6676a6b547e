package pipeline

import (
	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/stage"
)

// Registry is the view of stage.Registry the builder needs.
type Registry interface {
	Table
	RelevantProperties(name string, props config.Properties) config.Properties
	Construct(name string, props config.Properties) (stage.Stage, error)
}

// Pool resolves stage names to cached instances for one build. Built-in and
// custom names share the same signature scheme.
type Pool struct {
	reg   Registry
	cache *Cache
	props config.Properties
}

// NewPool binds a registry and cache to the properties of one build.
func NewPool(reg Registry, cache *Cache, props config.Properties) *Pool {
	return &Pool{reg: reg, cache: cache, props: props}
}

// Signature derives the cache key of name under the pool's properties.
func (p *Pool) Signature(name string) Signature {
	return NewSignature(name, p.reg.RelevantProperties(name, p.props))
}

// Get returns the shared instance for name, constructing it on a miss.
func (p *Pool) Get(name string) (*Instance, error) {
	if !p.reg.Known(name, p.props) {
		return nil, &UnknownStageError{Name: name}
	}
	return p.cache.GetOrCreate(p.Signature(name), func() (stage.Stage, error) {
		st, err := p.reg.Construct(name, p.props)
		if err != nil {
			return nil, &ConstructionError{Stage: name, Err: err}
		}
		return st, nil
	})
}
