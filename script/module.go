package script

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"maxfmt/levels"
	"maxfmt/output"
	"maxfmt/parens"
)

// Module is a table of Go functions made available to filters both as a
// global and through require().
type Module interface {
	// Name is the global and require() name of the module.
	Name() string

	// Register creates the module table in L and sets it as a global.
	Register(L *lua.LState) error
}

// registry holds the modules an Engine installs into its state.
type registry struct {
	modules map[string]Module
	order   []string
	mu      sync.RWMutex
}

func newRegistry() *registry {
	return &registry{modules: make(map[string]Module)}
}

func (r *registry) add(module Module) error {
	if module == nil {
		return fmt.Errorf("module cannot be nil")
	}
	name := module.Name()
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module '%s' is already registered", name)
	}
	r.modules[name] = module
	r.order = append(r.order, name)
	return nil
}

// install registers every module in L and adds a package.preload loader
// returning its global table.
func (r *registry) install(L *lua.LState) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pkg, ok := L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return fmt.Errorf("package table not found")
	}
	preload, ok := pkg.RawGetString("preload").(*lua.LTable)
	if !ok {
		return fmt.Errorf("package.preload table not found")
	}

	for _, name := range r.order {
		if err := r.modules[name].Register(L); err != nil {
			return fmt.Errorf("failed to register module '%s': %v", name, err)
		}
		name := name
		preload.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			table := L.GetGlobal(name)
			if table.Type() != lua.LTTable {
				L.RaiseError("module '%s' did not create a table", name)
				return 0
			}
			L.Push(table)
			return 1
		}))
	}
	return nil
}

// formatModule exposes the formatting steps as the maxfmt table.
type formatModule struct {
	formatter *output.Formatter
	relin     *parens.Relinearizer
}

func (m *formatModule) Name() string {
	return "maxfmt"
}

func (m *formatModule) Register(L *lua.LState) error {
	table := L.NewTable()
	L.SetField(table, "remove_parens", L.NewFunction(m.removeParens))
	L.SetField(table, "respace", L.NewFunction(m.respace))
	L.SetField(table, "compact", L.NewFunction(m.compact))
	L.SetField(table, "format", L.NewFunction(m.format))
	L.SetField(table, "split", L.NewFunction(m.split))
	L.SetField(table, "priority", L.NewFunction(m.priority))
	L.SetGlobal(m.Name(), table)
	return nil
}

// removeParens returns the text and the number of removed groups, or nil and
// a message.
func (m *formatModule) removeParens(L *lua.LState) int {
	res, err := m.relin.RemoveRedundant(L.CheckString(1))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(res.Text))
	L.Push(lua.LNumber(res.Removed))
	return 2
}

func (m *formatModule) respace(L *lua.LState) int {
	L.Push(lua.LString(output.Respace(L.CheckString(1))))
	return 1
}

func (m *formatModule) compact(L *lua.LState) int {
	L.Push(lua.LString(output.Compact(L.CheckString(1))))
	return 1
}

func (m *formatModule) format(L *lua.LState) int {
	L.Push(lua.LString(m.formatter.Format(L.CheckString(1), L.OptBool(2, false))))
	return 1
}

// split cuts a string at top-level occurrences of a separator, "," by
// default, and returns the parts as a sequence.
func (m *formatModule) split(L *lua.LState) int {
	parts := levels.Split(L.CheckString(1), L.OptString(2, ","), levels.DefaultOptions())
	table := L.CreateTable(len(parts), 0)
	for _, p := range parts {
		table.Append(lua.LString(p))
	}
	L.Push(table)
	return 1
}

func (m *formatModule) priority(L *lua.LState) int {
	p, ok := parens.PriorityOf(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(p))
	return 1
}
