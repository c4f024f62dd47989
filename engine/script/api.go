package script

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/tilequest/engine/instance"
	"github.com/nathoo/tilequest/engine/value"
)

// Fields derived from the instance record rather than its attributes.
// They are visible to snippets but never written back.
var reserved = map[string]bool{
	"name": true, "x": true, "y": true, "region": true,
	"state": true, "alive": true, "level": true, "gold": true,
}

// bind installs the environment as globals.
func bind(L *lua.LState, env Env) {
	L.SetGlobal("self", instanceTable(L, env.Self))
	L.SetGlobal("target", instanceTable(L, env.Target))
	L.SetGlobal("state", stateTable(L, env.State))

	tick := env.Tick
	L.SetGlobal("tick", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(tick))
		return 1
	}))

	random := env.Random
	L.SetGlobal("random", L.NewFunction(func(L *lua.LState) int {
		lo := L.OptInt(1, 1)
		hi := L.OptInt(2, lo)
		if hi < lo {
			lo, hi = hi, lo
		}
		n := lo
		if random != nil {
			n = random(lo, hi)
		}
		L.Push(lua.LNumber(n))
		return 1
	}))

	self := env.Self
	L.SetGlobal("has_item", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(lua.LBool(self != nil && self.Sheet.Inventory.Has(name)))
		return 1
	}))
}

func instanceTable(L *lua.LState, inst *instance.Instance) lua.LValue {
	if inst == nil {
		return lua.LNil
	}
	tbl := L.NewTable()
	for name, v := range inst.Attributes {
		tbl.RawSetString(name, toLua(v))
	}
	tbl.RawSetString("name", lua.LString(inst.Name))
	tbl.RawSetString("state", lua.LString(inst.State.String()))
	tbl.RawSetString("alive", lua.LBool(inst.IsAlive()))
	tbl.RawSetString("level", lua.LNumber(inst.Sheet.Level))
	tbl.RawSetString("gold", lua.LNumber(inst.Sheet.Gold))
	if inst.Position != nil {
		tbl.RawSetString("region", lua.LNumber(inst.Position.Region))
		tbl.RawSetString("x", lua.LNumber(inst.Position.X))
		tbl.RawSetString("y", lua.LNumber(inst.Position.Y))
	}
	return tbl
}

func stateTable(L *lua.LState, st *instance.ItemState) lua.LValue {
	if st == nil {
		return lua.LNil
	}
	tbl := L.NewTable()
	for name, v := range st.Values {
		tbl.RawSetString(name, toLua(v))
	}
	return tbl
}

// writeBack copies scalar table fields into the environment.
func writeBack(L *lua.LState, env Env) {
	if env.Self != nil {
		if tbl, ok := L.GetGlobal("self").(*lua.LTable); ok {
			copyFields(tbl, env.Self.SetAttr)
		}
	}
	if env.Target != nil {
		if tbl, ok := L.GetGlobal("target").(*lua.LTable); ok {
			copyFields(tbl, env.Target.SetAttr)
		}
	}
	if env.State != nil {
		if tbl, ok := L.GetGlobal("state").(*lua.LTable); ok {
			copyFields(tbl, func(name string, v value.Value) { env.State.Values[name] = v })
		}
	}
}

func copyFields(tbl *lua.LTable, set func(string, value.Value)) {
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok || reserved[string(ks)] {
			return
		}
		if fv, ok := fromLua(v); ok {
			set(string(ks), fv)
		}
	})
}

// toLua converts a Value to a Lua scalar. Non-scalar kinds become strings.
func toLua(v value.Value) lua.LValue {
	switch v.Kind() {
	case value.Empty:
		return lua.LNil
	case value.Bool:
		b, _ := v.AsBool()
		return lua.LBool(b)
	case value.Int, value.Float:
		f, _ := v.AsFloat()
		return lua.LNumber(f)
	}
	return lua.LString(v.String())
}

// fromLua converts a Lua scalar. Whole numbers become Int.
func fromLua(v lua.LValue) (value.Value, bool) {
	switch val := v.(type) {
	case lua.LBool:
		return value.NewBool(bool(val)), true
	case lua.LNumber:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return value.NewInt(int64(f)), true
		}
		return value.NewFloat(f), true
	case lua.LString:
		return value.NewString(string(val)), true
	}
	return value.Value{}, false
}
