// Package script runs user supplied Lua filters over formatted text.
//
// A filter file defines a global function filter(text) returning the new
// text. Filters can use the maxfmt module:
//
//	maxfmt.remove_parens(s)    -- text, removed count; or nil, message
//	maxfmt.respace(s)
//	maxfmt.compact(s)
//	maxfmt.format(s, keep_newlines)
//	maxfmt.split(s [, sep])    -- top-level parts as a sequence
//	maxfmt.priority(token)     -- operator rank or nil
package script

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"maxfmt/errors"
	"maxfmt/logging"
	"maxfmt/output"
	"maxfmt/parens"
)

const (
	language = "lua"
	entry    = "filter"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.WithComponent("script")
		}
	}
}

// WithModule installs an extra module next to maxfmt.
func WithModule(module Module) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, module)
	}
}

// WithMaxDepth sets the nesting limit used by maxfmt.remove_parens and
// maxfmt.format.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// Engine owns one Lua state and the filters loaded into it. Calls are
// serialized.
type Engine struct {
	state    *lua.LState
	filters  []*Filter
	logger   logging.Logger
	extra    []Module
	maxDepth int
	mu       sync.Mutex
}

// NewEngine creates an Engine with the standard libraries and the maxfmt
// module installed.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{logger: logging.NewNullLogger()}
	for _, opt := range opts {
		opt(e)
	}

	e.state = lua.NewState()
	reg := newRegistry()
	mods := append([]Module{&formatModule{
		formatter: output.New(output.WithMaxDepth(e.maxDepth), output.WithLogger(e.logger)),
		relin:     parens.New(parens.WithMaxDepth(e.maxDepth), parens.WithLogger(e.logger)),
	}}, e.extra...)
	for _, m := range mods {
		if err := reg.add(m); err != nil {
			e.state.Close()
			return nil, errors.NewRuntimeError(language, errors.CodeScriptLoad, err.Error())
		}
	}
	if err := reg.install(e.state); err != nil {
		e.state.Close()
		return nil, errors.NewRuntimeError(language, errors.CodeScriptLoad, err.Error())
	}
	return e, nil
}

// LoadFile loads a filter from a Lua file. The filter is named after the
// file without its extension.
func (e *Engine) LoadFile(path string) (*Filter, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return e.load(name, path, func(L *lua.LState) error { return L.DoFile(path) })
}

// LoadString loads a filter from source.
func (e *Engine) LoadString(name, source string) (*Filter, error) {
	return e.load(name, "", func(L *lua.LState) error { return L.DoString(source) })
}

func (e *Engine) load(name, path string, run func(*lua.LState) error) (*Filter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Each chunk sets the global anew; it is detached right after so the
	// next chunk cannot overwrite it.
	e.state.SetGlobal(entry, lua.LNil)
	if err := run(e.state); err != nil {
		return nil, errors.NewRuntimeError(language, errors.CodeScriptLoad,
			fmt.Sprintf("failed to load filter '%s'", name)).WithPath(path).Wrap(err)
	}
	fn, ok := e.state.GetGlobal(entry).(*lua.LFunction)
	if !ok {
		return nil, errors.NewRuntimeError(language, errors.CodeScriptLoad,
			fmt.Sprintf("filter '%s' does not define a function %s(text)", name, entry)).WithPath(path)
	}
	e.state.SetGlobal(entry, lua.LNil)

	f := &Filter{engine: e, name: name, fn: fn}
	e.filters = append(e.filters, f)
	e.logger.Debug("filter loaded", logging.StringField("filter", name), logging.StringField("path", path))
	return f, nil
}

// Filters returns the loaded filters in load order, ready for
// output.WithFilters.
func (e *Engine) Filters() []output.Filter {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]output.Filter, len(e.filters))
	for i, f := range e.filters {
		out[i] = f
	}
	return out
}

// Apply runs every loaded filter in order and stops at the first failure.
func (e *Engine) Apply(text string) (string, error) {
	return e.ApplyContext(context.Background(), text)
}

// ApplyContext is Apply with cancellation of running Lua code.
func (e *Engine) ApplyContext(ctx context.Context, text string) (string, error) {
	e.mu.Lock()
	filters := append([]*Filter(nil), e.filters...)
	e.mu.Unlock()

	for _, f := range filters {
		var err error
		if text, err = f.ApplyContext(ctx, text); err != nil {
			return "", err
		}
	}
	return text, nil
}

// Close releases the Lua state. The engine cannot be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != nil {
		e.state.Close()
		e.state = nil
	}
}

// Filter is one loaded filter function. It implements output.Filter.
type Filter struct {
	engine *Engine
	name   string
	fn     *lua.LFunction
}

// Name returns the filter name.
func (f *Filter) Name() string {
	return f.name
}

// Apply calls the filter on text.
func (f *Filter) Apply(text string) (string, error) {
	return f.ApplyContext(context.Background(), text)
}

// ApplyContext calls the filter on text, aborting when ctx is done.
func (f *Filter) ApplyContext(ctx context.Context, text string) (string, error) {
	e := f.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		return "", errors.NewRuntimeError(language, errors.CodeScriptCall, "engine is closed").
			WithContext("filter", f.name)
	}

	L := e.state
	L.SetContext(ctx)
	defer L.RemoveContext()

	if err := L.CallByParam(lua.P{Fn: f.fn, NRet: 1, Protect: true}, lua.LString(text)); err != nil {
		return "", errors.NewRuntimeError(language, errors.CodeScriptCall,
			fmt.Sprintf("filter '%s' failed", f.name)).Wrap(err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	s, ok := ret.(lua.LString)
	if !ok {
		return "", errors.NewRuntimeError(language, errors.CodeScriptResult,
			fmt.Sprintf("filter '%s' returned %s, want string", f.name, ret.Type())).
			WithContext("filter", f.name)
	}
	return string(s), nil
}
