package stage

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/flarebyte/glossa/internal/config"
)

const (
	sandboxTimeoutViolation = "sandbox timeout"
	sandboxMemoryViolation  = "sandbox memory limit"
)

const (
	defaultLuaTimeout     = 200 * time.Millisecond
	defaultLuaMemoryLimit = 0
)

var defaultLuaLibs = []string{"base", "string", "table", "math"}

var luaLibs = map[string]lua.LGFunction{
	"base":   lua.OpenBase,
	"string": lua.OpenString,
	"table":  lua.OpenTable,
	"math":   lua.OpenMath,
}

type luaSandbox struct {
	Timeout             time.Duration
	MemoryLimitBytes    int
	Libs                []string
	DeterministicRandom bool
}

func luaSandboxFromProps(name string, props config.Properties) (luaSandbox, error) {
	timeout, err := props.Duration(name+".timeout", defaultLuaTimeout)
	if err != nil {
		return luaSandbox{}, err
	}
	cfg := luaSandbox{
		Timeout:             timeout,
		MemoryLimitBytes:    props.Int(name+".memoryLimitBytes", defaultLuaMemoryLimit),
		Libs:                defaultLuaLibs,
		DeterministicRandom: props.Bool(name+".deterministicRandom", true),
	}
	if props.Has(name + ".libs") {
		cfg.Libs = props.List(name + ".libs")
	}
	for _, lib := range cfg.Libs {
		if _, ok := luaLibs[lib]; !ok {
			return luaSandbox{}, fmt.Errorf("unknown lua lib: %q", lib)
		}
	}
	return cfg, nil
}

func newSandboxLuaState(stage, docID string, cfg luaSandbox) *lua.LState {
	opts := lua.Options{SkipOpenLibs: true, RegistrySize: lua.RegistrySize}
	if cfg.MemoryLimitBytes > 0 {
		opts.RegistrySize = 256
		opts.RegistryMaxSize = registryMaxFromMemory(cfg.MemoryLimitBytes)
		opts.RegistryGrowStep = 32
	}
	L := lua.NewState(opts)
	hasMath := false
	for _, lib := range cfg.Libs {
		L.Push(L.NewFunction(luaLibs[lib]))
		L.Push(lua.LString(lib))
		L.Call(1, 0)
		hasMath = hasMath || lib == "math"
	}
	if hasMath && cfg.DeterministicRandom {
		installDeterministicRandom(L, deterministicSeed(stage, docID))
	}
	return L
}

func registryMaxFromMemory(memoryLimitBytes int) int {
	n := memoryLimitBytes / 64
	if n < 256 {
		n = 256
	}
	return n
}

func deterministicSeed(stage, docID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(stage))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(docID))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

func installDeterministicRandom(L *lua.LState, seed int64) {
	mathTbl, ok := L.GetGlobal("math").(*lua.LTable)
	if !ok || mathTbl == nil {
		return
	}
	rng := rand.New(rand.NewSource(seed))
	mathTbl.RawSetString("random", L.NewFunction(func(L *lua.LState) int {
		switch L.GetTop() {
		case 0:
			L.Push(lua.LNumber(rng.Float64()))
			return 1
		case 1:
			hi := L.CheckInt(1)
			if hi < 1 {
				L.ArgError(1, "interval is empty")
				return 0
			}
			L.Push(lua.LNumber(rng.Intn(hi) + 1))
			return 1
		default:
			lo, hi := L.CheckInt(1), L.CheckInt(2)
			if hi < lo {
				L.ArgError(2, "interval is empty")
				return 0
			}
			L.Push(lua.LNumber(rng.Intn(hi-lo+1) + lo))
			return 1
		}
	}))
	mathTbl.RawSetString("randomseed", L.NewFunction(func(*lua.LState) int { return 0 }))
}

// runFunction calls fn with the sandbox deadline layered over ctx. A done
// parent context is reported as ctx.Err() so callers can tell a run timeout
// from a script timeout.
func runFunction(ctx context.Context, L *lua.LState, fn *lua.LFunction, cfg luaSandbox) (lua.LValue, error) {
	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	L.SetContext(runCtx)
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, errors.New(sandboxTimeoutViolation)
		}
		if strings.Contains(strings.ToLower(err.Error()), "registry overflow") {
			return nil, errors.New(sandboxMemoryViolation)
		}
		return nil, errors.New(sanitizeErrorMessage(err.Error()))
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}
