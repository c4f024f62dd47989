// Package script evaluates the Lua snippets carried by expression and script
// nodes. Each region owns one sandboxed VM; VMs are never shared between
// goroutines.
package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/nathoo/tilequest/engine/instance"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 50 * time.Millisecond

// Env is what a snippet can see: the current instance as `self`, its
// target as `target`, and the scratch item state as `state`.
type Env struct {
	Self   *instance.Instance
	Target *instance.Instance
	State  *instance.ItemState
	Tick   int64
	// Random returns an integer in [lo, hi].
	Random func(lo, hi int) int
}

// VM is a sandboxed Lua state with a compiled-chunk cache.
type VM struct {
	L       *lua.LState
	Timeout time.Duration
	cache   map[string]*lua.FunctionProto
}

// New creates a sandboxed VM.
func New() *VM {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	return &VM{L: L, Timeout: DefaultTimeout, cache: map[string]*lua.FunctionProto{}}
}

// Close releases the Lua state.
func (vm *VM) Close() { vm.L.Close() }

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the VM or break determinism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage", "print", "require", "module",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
		tbl.RawSetString("random", lua.LNil)
	}
}

func (vm *VM) compile(src string, expr bool) (*lua.FunctionProto, error) {
	key := "s:" + src
	if expr {
		key = "e:" + src
	}
	if proto, ok := vm.cache[key]; ok {
		return proto, nil
	}
	code := src
	if expr {
		code = "return (" + src + ")"
	}
	chunk, err := parse.Parse(strings.NewReader(code), "<node>")
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", src, err)
	}
	proto, err := lua.Compile(chunk, "<node>")
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", src, err)
	}
	vm.cache[key] = proto
	return proto, nil
}

func (vm *VM) call(proto *lua.FunctionProto, env Env, nret int) ([]lua.LValue, error) {
	bind(vm.L, env)

	ctx, cancel := context.WithTimeout(context.Background(), vm.Timeout)
	defer cancel()
	vm.L.SetContext(ctx)
	defer vm.L.RemoveContext()

	top := vm.L.GetTop()
	vm.L.Push(vm.L.NewFunctionFromProto(proto))
	if err := vm.L.PCall(0, nret, nil); err != nil {
		vm.L.SetTop(top)
		return nil, err
	}
	out := make([]lua.LValue, 0, nret)
	for i := top + 1; i <= vm.L.GetTop(); i++ {
		out = append(out, vm.L.Get(i))
	}
	vm.L.SetTop(top)
	return out, nil
}

// Eval evaluates an expression and returns its Lua value.
func (vm *VM) Eval(src string, env Env) (lua.LValue, error) {
	proto, err := vm.compile(src, true)
	if err != nil {
		return lua.LNil, err
	}
	out, err := vm.call(proto, env, 1)
	if err != nil {
		return lua.LNil, err
	}
	if len(out) == 0 {
		return lua.LNil, nil
	}
	return out[0], nil
}

// Bool evaluates an expression using Lua truthiness.
func (vm *VM) Bool(src string, env Env) (bool, error) {
	v, err := vm.Eval(src, env)
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(v), nil
}

// Int evaluates an expression that must produce a number.
func (vm *VM) Int(src string, env Env) (int64, error) {
	v, err := vm.Eval(src, env)
	if err != nil {
		return 0, err
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("expression %q is %s, not a number", src, v.Type())
	}
	return int64(n), nil
}

// Run executes statements, then writes `self`, `target` and `state`
// fields back into the environment.
func (vm *VM) Run(src string, env Env) error {
	proto, err := vm.compile(src, false)
	if err != nil {
		return err
	}
	if _, err := vm.call(proto, env, 0); err != nil {
		return err
	}
	writeBack(vm.L, env)
	return nil
}
