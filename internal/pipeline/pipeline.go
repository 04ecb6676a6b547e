package pipeline

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
	"github.com/flarebyte/glossa/internal/stage"
)

// Pipeline is an ordered, verified, immutable list of stage instances. It is
// safe to run concurrently on distinct documents.
type Pipeline struct {
	names     []string
	instances []*Instance
	props     config.Properties
	log       logr.Logger
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string { return append([]string(nil), p.names...) }

// Properties returns the properties the pipeline was built with, including
// keys derived during resolution.
func (p *Pipeline) Properties() config.Properties { return p.props }

// withProperties returns p when props match its own, otherwise a pipeline
// sharing p's instances that reports props.
func (p *Pipeline) withProperties(props config.Properties) *Pipeline {
	if p.props.String() == props.String() {
		return p
	}
	return &Pipeline{names: p.names, instances: p.instances, props: props, log: p.log}
}

// Stages returns the stage instances in execution order.
func (p *Pipeline) Stages() []stage.Stage {
	out := make([]stage.Stage, len(p.instances))
	for i, inst := range p.instances {
		out[i] = inst.Stage
	}
	return out
}

// Run applies every stage to doc in order on the calling goroutine. The
// first failing stage aborts the run with a *StageError. A done ctx is
// reported as ctx.Err() before the next stage starts.
func (p *Pipeline) Run(ctx context.Context, doc *document.Document) (*document.Document, error) {
	for i, inst := range p.instances {
		if err := ctx.Err(); err != nil {
			return doc, err
		}
		start := time.Now()
		if err := inst.Stage.Annotate(ctx, doc); err != nil {
			p.log.V(2).Info("stage failed", "stage", p.names[i], "doc", doc.ID, "error", err.Error())
			return doc, &StageError{Stage: p.names[i], Err: err}
		}
		p.log.V(2).Info("stage done", "stage", p.names[i], "doc", doc.ID, "elapsed", time.Since(start))
	}
	return doc, nil
}
