// Package shared holds flags and helpers common to glossa subcommands.
package shared

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/flarebyte/glossa/internal/config"
)

// Exit codes reported through ExitError.
const (
	ExitFailure  = 1
	ExitUsage    = 2
	ExitTimedOut = 3
)

// ExitError carries a process exit code to main.
type ExitError struct {
	Code int
	Msg  string
}

func (e ExitError) Error() string { return e.Msg }
func (e ExitError) ExitCode() int { return e.Code }

// Usagef returns an ExitError with the usage exit code.
func Usagef(format string, args ...any) error {
	return ExitError{Code: ExitUsage, Msg: fmt.Sprintf(format, args...)}
}

// Verbosity is the count of -v flags on the root command.
var Verbosity int

// PropertyFlags are the configuration inputs shared by annotate and stages.
type PropertyFlags struct {
	Config     string
	Sets       []string
	Annotators string
}

// Properties loads the config file, then applies --set overrides and
// --annotators on top, in that order.
func (f PropertyFlags) Properties() (config.Properties, error) {
	var props config.Properties
	if f.Config != "" {
		p, err := config.Load(f.Config)
		if err != nil {
			return config.Properties{}, err
		}
		props = p
	}
	for _, s := range f.Sets {
		k, v, err := config.ParseAssignment(s)
		if err != nil {
			return config.Properties{}, Usagef("%v", err)
		}
		props = props.With(k, v)
	}
	if a := strings.TrimSpace(f.Annotators); a != "" {
		props = props.With(config.KeyAnnotators, a)
	}
	return props, nil
}

// NewLogger returns a console zap logger writing to w. Info messages are
// always on; each -v enables one more V level.
func NewLogger(verbosity int, w io.Writer) logr.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.Level(-verbosity),
	)
	return zapr.NewLogger(zap.New(core))
}
