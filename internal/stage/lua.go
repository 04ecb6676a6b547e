package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// luaStage runs a user script against each document. The script is compiled
// once; every Annotate call gets a fresh interpreter, so one instance can
// serve many pipelines at the same time.
type luaStage struct {
	base
	name  string
	proto *lua.FunctionProto
	cfg   luaSandbox
}

func newLuaStage(name string, props config.Properties) (Stage, error) {
	code := props.Get(name+".script", "")
	if path := props.Get(name+".file", ""); path != "" {
		if code != "" {
			return nil, fmt.Errorf("%s: set only one of %s.script and %s.file", name, name, name)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read script: %w", name, err)
		}
		code = string(b)
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%s: missing %s.script or %s.file", name, name, name)
	}
	cfg, err := luaSandboxFromProps(name, props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	proto, err := compileLua(name, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", name, sanitizeErrorMessage(err.Error()))
	}
	return &luaStage{
		base: base{
			requires:  ParseSet(props.Get(name+".requires", "")),
			satisfies: ParseSet(props.Get(name+".satisfies", "")),
		},
		name:  name,
		proto: proto,
		cfg:   cfg,
	}, nil
}

func (l *luaStage) Annotate(ctx context.Context, doc *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	L := newSandboxLuaState(l.name, doc.ID, l.cfg)
	defer L.Close()
	L.SetGlobal("doc", toLValue(L, docValue(doc)))
	ret, err := runFunction(ctx, L, L.NewFunctionFromProto(l.proto), l.cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%s: %w", l.name, err)
	}
	if out := fromLValue(ret); out != nil {
		doc.SetMeta(l.name, out)
	}
	return nil
}

// compileLua accepts a bare expression or a statement block.
func compileLua(name, code string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader("return ("+code+")"), name)
	if err != nil {
		chunk, err = parse.Parse(strings.NewReader(code), name)
		if err != nil {
			return nil, err
		}
	}
	return lua.Compile(chunk, name)
}
