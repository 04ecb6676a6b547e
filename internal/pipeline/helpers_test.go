package pipeline

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
	"github.com/flarebyte/glossa/internal/stage"
)

type fakeStage struct {
	requires  stage.Set
	satisfies stage.Set
	annotate  func(ctx context.Context, doc *document.Document) error
}

func (f *fakeStage) Requires() stage.Set  { return f.requires }
func (f *fakeStage) Satisfies() stage.Set { return f.satisfies }
func (f *fakeStage) Annotate(ctx context.Context, doc *document.Document) error {
	if f.annotate == nil {
		return nil
	}
	return f.annotate(ctx, doc)
}

// countingRegistry registers one fake stage per row; calls counts factory
// invocations per stage name.
type countingRegistry struct {
	*stage.Registry
	calls map[string]*atomic.Int64
}

type row struct {
	name     string
	pre      []string
	requires []stage.Requirement
	annotate func(ctx context.Context, doc *document.Document) error
	fail     func() error
}

func newCountingRegistry(t *testing.T, rows ...row) *countingRegistry {
	t.Helper()
	r := &countingRegistry{Registry: stage.NewRegistry(), calls: map[string]*atomic.Int64{}}
	for _, rw := range rows {
		rw := rw
		counter := &atomic.Int64{}
		r.calls[rw.name] = counter
		err := r.Register(stage.Entry{
			Name:          rw.name,
			Prerequisites: rw.pre,
			Factory: func(name string, _ config.Properties) (stage.Stage, error) {
				counter.Add(1)
				if rw.fail != nil {
					if err := rw.fail(); err != nil {
						return nil, err
					}
				}
				return &fakeStage{
					requires:  stage.NewSet(rw.requires...),
					satisfies: stage.NewSet(stage.Requirement(name)),
					annotate:  rw.annotate,
				}, nil
			},
		})
		if err != nil {
			t.Fatalf("register %s: %v", rw.name, err)
		}
	}
	return r
}

func (r *countingRegistry) count(name string) int64 { return r.calls[name].Load() }

// mapTable is an in-memory prerequisite table.
type mapTable map[string][]string

func (m mapTable) Known(name string, _ config.Properties) bool {
	_, ok := m[name]
	return ok
}

func (m mapTable) Prerequisites(name string, _ config.Properties) ([]string, bool) {
	pre, ok := m[name]
	return pre, ok
}

func props(kv ...string) config.Properties {
	m := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return config.FromMap(m)
}
