package stages

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flarebyte/glossa/cmd/glossa/shared"
	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/pipeline"
	"github.com/flarebyte/glossa/internal/stage"
)

var flagProps shared.PropertyFlags

// Cmd implements `glossa stages`.
var Cmd = &cobra.Command{
	Use:           "stages",
	Short:         "List registered stages or show a resolved pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		props, err := flagProps.Properties()
		if err != nil {
			return err
		}
		return run(cmd.OutOrStdout(), stage.NewDefaultRegistry(), props)
	},
}

func init() {
	f := Cmd.Flags()
	f.StringVarP(&flagProps.Config, "config", "c", "", "Config file (.cue, .yaml, .properties)")
	f.StringArrayVar(&flagProps.Sets, "set", nil, "Property override key=value (repeatable)")
	f.StringVar(&flagProps.Annotators, "annotators", "", "Comma separated stage list to resolve")
}

type row struct {
	Name          string   `yaml:"name"`
	Prerequisites []string `yaml:"prerequisites,flow"`
	Satisfies     []string `yaml:"satisfies,flow"`
}

type plan struct {
	Requested []string          `yaml:"requested,flow"`
	Order     []string          `yaml:"order,flow"`
	Derived   map[string]string `yaml:"derived,omitempty"`
}

func run(w io.Writer, reg *stage.Registry, props config.Properties) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()

	requested := props.Annotators()
	if len(requested) == 0 {
		return enc.Encode(table(reg))
	}
	names, resolved, err := pipeline.Plan(reg, requested, props)
	if err != nil {
		return err
	}
	return enc.Encode(plan{Requested: requested, Order: names, Derived: derived(props, resolved)})
}

// table lists built-in stages in registration order. Satisfied tokens come
// from an instance built with default properties.
func table(reg *stage.Registry) []row {
	var rows []row
	for _, name := range reg.Names() {
		pre, _ := reg.Prerequisites(name, config.Properties{})
		r := row{Name: name, Prerequisites: nonNil(pre), Satisfies: []string{}}
		if s, err := reg.Construct(name, config.Properties{}); err == nil {
			for _, req := range s.Satisfies().Sorted() {
				r.Satisfies = append(r.Satisfies, string(req))
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// derived returns keys the planner added or changed.
func derived(before, after config.Properties) map[string]string {
	out := map[string]string{}
	for _, k := range after.Keys() {
		v, _ := after.Lookup(k)
		if old, ok := before.Lookup(k); !ok || old != v {
			out[k] = v
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

