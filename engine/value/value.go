// Package value implements the dynamically typed values used for node
// parameters, instance attributes and per-node scratch storage.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nathoo/tilequest/types"
)

// Kind identifies the dynamic type held by a Value.
type Kind int

const (
	Empty Kind = iota
	Bool
	Int
	Float
	String
	Position
	Tile
	Vec2
	Vec3
	Vec4
	StringArray
)

var kindNames = []string{"empty", "bool", "int", "float", "string", "position", "tile", "vec2", "vec3", "vec4", "string_array"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func parseKind(s string) Kind {
	for i, name := range kindNames {
		if name == s {
			return Kind(i)
		}
	}
	return Empty
}

// Value is an immutable tagged union. The zero Value is Empty.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    [4]float64
	s    string
	arr  []string
	pos  types.Position
	tile types.Tile
}

func NewBool(b bool) Value { return Value{kind: Bool, b: b} }
func NewInt(i int64) Value { return Value{kind: Int, i: i} }
func NewFloat(f float64) Value { return Value{kind: Float, f: [4]float64{f}} }
func NewString(s string) Value { return Value{kind: String, s: s} }
func NewVec2(x, y float64) Value { return Value{kind: Vec2, f: [4]float64{x, y}} }
func NewVec3(x, y, z float64) Value {
	return Value{kind: Vec3, f: [4]float64{x, y, z}}
}
func NewVec4(x, y, z, w float64) Value {
	return Value{kind: Vec4, f: [4]float64{x, y, z, w}}
}
func NewPosition(p types.Position) Value { return Value{kind: Position, pos: p} }
func NewTile(t types.Tile) Value { return Value{kind: Tile, tile: t} }

// NewStringArray copies items.
func NewStringArray(items []string) Value {
	return Value{kind: StringArray, arr: append([]string(nil), items...)}
}

// Kind returns the dynamic type.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v holds no value.
func (v Value) IsEmpty() bool { return v.kind == Empty }

// AsBool returns the boolean. Ints are true when non-zero.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case Bool:
		return v.b, true
	case Int:
		return v.i != 0, true
	case String:
		b, err := strconv.ParseBool(strings.TrimSpace(v.s))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

// AsInt returns the value as an integer. Floats are truncated, strings parsed.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case Int:
		return v.i, true
	case Float:
		if math.IsNaN(v.f[0]) || math.IsInf(v.f[0], 0) {
			return 0, false
		}
		return int64(v.f[0]), true
	case String:
		s := strings.TrimSpace(v.s)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// AsFloat returns the value as a float. Ints convert, strings are parsed.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case Float:
		return v.f[0], true
	case Int:
		return float64(v.i), true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsString returns the string payload. Numbers and bools are formatted.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case String:
		return v.s, true
	case Int:
		return strconv.FormatInt(v.i, 10), true
	case Float:
		return strconv.FormatFloat(v.f[0], 'g', -1, 64), true
	case Bool:
		return strconv.FormatBool(v.b), true
	}
	return "", false
}

// AsPosition returns the position payload.
func (v Value) AsPosition() (types.Position, bool) {
	if v.kind != Position {
		return types.Position{}, false
	}
	return v.pos, true
}

// AsTile returns the tile payload.
func (v Value) AsTile() (types.Tile, bool) {
	if v.kind != Tile {
		return types.Tile{}, false
	}
	return v.tile, true
}

// AsVec returns the components of a Vec2/3/4.
func (v Value) AsVec() ([]float64, bool) {
	switch v.kind {
	case Vec2:
		return v.f[:2], true
	case Vec3:
		return v.f[:3], true
	case Vec4:
		return v.f[:], true
	}
	return nil, false
}

// AsStringArray returns a copy of the string array payload.
func (v Value) AsStringArray() ([]string, bool) {
	if v.kind != StringArray {
		return nil, false
	}
	return append([]string(nil), v.arr...), true
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Empty:
		return true
	case Bool:
		return v.b == o.b
	case Int:
		return v.i == o.i
	case Float, Vec2, Vec3, Vec4:
		return v.f == o.f
	case String:
		return v.s == o.s
	case Position:
		return v.pos == o.pos
	case Tile:
		return v.tile == o.tile
	case StringArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if v.arr[i] != o.arr[i] {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case Empty:
		return "<empty>"
	case Position:
		return fmt.Sprintf("(%d, %d, %d)", v.pos.Region, v.pos.X, v.pos.Y)
	case Tile:
		return fmt.Sprintf("tile(%d, %d, %d)", v.tile.Tilemap, v.tile.X, v.tile.Y)
	case Vec2, Vec3, Vec4:
		f, _ := v.AsVec()
		return fmt.Sprint(f)
	case StringArray:
		return "[" + strings.Join(v.arr, ", ") + "]"
	}
	s, _ := v.AsString()
	return s
}

type wire struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes the value as {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case Empty:
		return json.Marshal(wire{Type: "empty"})
	case Bool:
		payload = v.b
	case Int:
		payload = v.i
	case Float:
		payload = v.f[0]
	case String:
		payload = v.s
	case Position:
		payload = v.pos
	case Tile:
		payload = v.tile
	case Vec2, Vec3, Vec4:
		payload, _ = v.AsVec()
	case StringArray:
		payload = v.arr
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire{Type: v.kind.String(), Value: raw})
}

// UnmarshalJSON decodes the tagged form. Unknown types decode to Empty.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Value{}
	kind := parseKind(w.Type)
	if kind == Empty || len(w.Value) == 0 {
		return nil
	}
	switch kind {
	case Bool:
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return err
		}
		*v = NewBool(b)
	case Int:
		var i int64
		if err := json.Unmarshal(w.Value, &i); err != nil {
			return err
		}
		*v = NewInt(i)
	case Float:
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return err
		}
		*v = NewFloat(f)
	case String:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		*v = NewString(s)
	case Position:
		var p types.Position
		if err := json.Unmarshal(w.Value, &p); err != nil {
			return err
		}
		*v = NewPosition(p)
	case Tile:
		var t types.Tile
		if err := json.Unmarshal(w.Value, &t); err != nil {
			return err
		}
		*v = NewTile(t)
	case Vec2, Vec3, Vec4:
		var f []float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return err
		}
		out := Value{kind: kind}
		copy(out.f[:], f)
		*v = out
	case StringArray:
		var arr []string
		if err := json.Unmarshal(w.Value, &arr); err != nil {
			return err
		}
		*v = NewStringArray(arr)
	}
	return nil
}
