package annotate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/flarebyte/glossa/cmd/glossa/shared"
	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
	"github.com/flarebyte/glossa/internal/engine"
	"github.com/flarebyte/glossa/internal/pipeline"
	"github.com/flarebyte/glossa/internal/stage"
)

var (
	flagProps       shared.PropertyFlags
	flagInputDir    string
	flagExt         []string
	flagNoGitignore bool
	flagThreads     int
	flagTimeout     string
	flagFormat      string
	flagOut         string
	flagMetricsFile string
)

// Cmd implements `glossa annotate`.
var Cmd = &cobra.Command{
	Use:           "annotate [files...]",
	Short:         "Annotate documents with the configured stages",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options{
			props:       flagProps,
			files:       args,
			inputDir:    flagInputDir,
			exts:        flagExt,
			noGitignore: flagNoGitignore,
			threads:     flagThreads,
			timeout:     flagTimeout,
			format:      flagFormat,
			out:         flagOut,
			metricsFile: flagMetricsFile,
			stdin:       cmd.InOrStdin(),
			stdout:      cmd.OutOrStdout(),
			log:         shared.NewLogger(shared.Verbosity, cmd.ErrOrStderr()),
		}
		return run(cmd.Context(), opts)
	},
}

func init() {
	f := Cmd.Flags()
	f.StringVarP(&flagProps.Config, "config", "c", "", "Config file (.cue, .yaml, .properties)")
	f.StringArrayVar(&flagProps.Sets, "set", nil, "Property override key=value (repeatable)")
	f.StringVar(&flagProps.Annotators, "annotators", "", "Comma separated stage list")
	f.StringVar(&flagInputDir, "input-dir", "", "Annotate every file under this directory")
	f.StringSliceVar(&flagExt, "ext", nil, "With --input-dir, keep only these extensions")
	f.BoolVar(&flagNoGitignore, "no-gitignore", false, "With --input-dir, ignore .gitignore files")
	f.IntVar(&flagThreads, "threads", 0, "Worker slots (overrides the threads property)")
	f.StringVar(&flagTimeout, "timeout", "", "Per-document deadline (overrides the timeout property)")
	f.StringVar(&flagFormat, "format", "yaml", "Output format: yaml or json")
	f.StringVarP(&flagOut, "out", "o", "-", "Output directory, or - for stdout")
	f.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus text metrics to this file")
}

type options struct {
	props       shared.PropertyFlags
	files       []string
	inputDir    string
	exts        []string
	noGitignore bool
	threads     int
	timeout     string
	format      string
	out         string
	metricsFile string

	stdin  io.Reader
	stdout io.Writer
	log    logr.Logger
}

func (o options) properties() (config.Properties, error) {
	props, err := o.props.Properties()
	if err != nil {
		return config.Properties{}, err
	}
	if o.threads > 0 {
		props = props.With(config.KeyThreads, fmt.Sprint(o.threads))
	}
	if o.timeout != "" {
		props = props.With(config.KeyTimeout, o.timeout)
	}
	return props, nil
}

func run(ctx context.Context, o options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.format != "yaml" && o.format != "json" {
		return shared.Usagef("invalid --format %q: expected yaml or json", o.format)
	}
	props, err := o.properties()
	if err != nil {
		return err
	}
	if len(props.Annotators()) == 0 {
		return shared.Usagef("no annotators: set --annotators or the annotators property")
	}
	timeout, err := props.Timeout()
	if err != nil {
		return shared.Usagef("%v", err)
	}
	docs, err := readInputs(ctx, o)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	cacheMetrics := pipeline.NewCacheMetrics()
	cacheMetrics.MustRegister(reg)
	engineMetrics := engine.NewMetrics()
	engineMetrics.MustRegister(reg)

	cache := pipeline.NewCache(pipeline.CacheOptions{
		MaxEntries: props.CacheMaxEntries(),
		Logger:     o.log.WithName("cache"),
		Metrics:    cacheMetrics,
	})
	builder := pipeline.NewBuilder(stage.NewDefaultRegistry(), cache, pipeline.WithLogger(o.log.WithName("pipeline")))
	p, err := builder.BuildFromProperties(props)
	if err != nil {
		return err
	}

	eng := engine.New(
		engine.WithThreads(props.Threads()),
		engine.WithLogger(o.log.WithName("engine")),
		engine.WithMetrics(engineMetrics),
	)
	results, timedOut, runErr := annotateAll(ctx, eng, p, docs, timeout)
	if err := eng.Close(); err != nil && runErr == nil {
		runErr = err
	}

	if o.metricsFile != "" {
		if err := prometheus.WriteToTextfile(o.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	if err := writeOutputs(o, results); err != nil {
		return err
	}
	if timedOut > 0 {
		return shared.ExitError{Code: shared.ExitTimedOut, Msg: fmt.Sprintf("%d document(s) timed out", timedOut)}
	}
	o.log.V(1).Info("annotate done", "documents", len(docs), "stages", len(p.Names()))
	return nil
}

// annotateAll runs every document through the engine and returns results in
// input order. Timed out documents leave a nil slot. Any other failure
// cancels the remaining runs.
func annotateAll(ctx context.Context, eng *engine.Engine, p engine.Runner, docs []*document.Document, timeout time.Duration) ([]*document.Document, int, error) {
	results := make([]*document.Document, len(docs))
	timedOut := make([]bool, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		f := eng.Submit(gctx, p, doc, timeout)
		g.Go(func() error {
			out, err := f.Wait(ctx)
			switch {
			case err == nil:
				results[i] = out
			case errors.Is(err, engine.ErrTimeout):
				timedOut[i] = true
			default:
				return fmt.Errorf("%s: %w", doc.ID, err)
			}
			return nil
		})
	}
	err := g.Wait()
	n := 0
	for _, t := range timedOut {
		if t {
			n++
		}
	}
	return results, n, err
}
