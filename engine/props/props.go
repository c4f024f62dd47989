// Package props implements the property sink: a small key/value settings
// document attached to graphs and item definitions.
//
// Sinks are written as HCL attributes, one per line:
//
//	race  = "Human"
//	class = "Warrior"
//	state = true
//	light = 3
package props

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/nathoo/tilequest/engine/value"
)

// Sink holds parsed settings in declaration order.
type Sink struct {
	names  []string
	values map[string]value.Value
}

// New returns an empty sink.
func New() *Sink {
	return &Sink{values: map[string]value.Value{}}
}

// Parse parses sink text. Attributes whose value cannot be represented
// (lists of mixed types, objects, references) are skipped and reported in
// the returned error; the sink still holds every attribute that parsed.
func Parse(text string) (*Sink, error) {
	s := New()
	if strings.TrimSpace(text) == "" {
		return s, nil
	}

	file, diags := hclsyntax.ParseConfig([]byte(text), "settings.hcl", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return s, fmt.Errorf("parsing settings: %s", diags.Error())
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return s, fmt.Errorf("parsing settings: %s", diags.Error())
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	var skipped []string
	for _, attr := range ordered {
		cv, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			skipped = append(skipped, attr.Name)
			continue
		}
		v, ok := fromCty(cv)
		if !ok {
			skipped = append(skipped, attr.Name)
			continue
		}
		s.Set(attr.Name, v)
	}
	if len(skipped) > 0 {
		return s, fmt.Errorf("unsupported settings: %s", strings.Join(skipped, ", "))
	}
	return s, nil
}

// MustParse parses text and ignores errors, keeping what parsed.
func MustParse(text string) *Sink {
	s, _ := Parse(text)
	return s
}

// fromCty converts a cty value to a Value. Whole numbers become Int.
func fromCty(cv cty.Value) (value.Value, bool) {
	if cv.IsNull() || !cv.IsKnown() {
		return value.Value{}, false
	}
	ty := cv.Type()
	switch {
	case ty == cty.String:
		return value.NewString(cv.AsString()), true
	case ty == cty.Bool:
		return value.NewBool(cv.True()), true
	case ty == cty.Number:
		bf := cv.AsBigFloat()
		if bf.IsInt() {
			var i int64
			if err := gocty.FromCtyValue(cv, &i); err == nil {
				return value.NewInt(i), true
			}
		}
		var f float64
		if err := gocty.FromCtyValue(cv, &f); err != nil {
			return value.Value{}, false
		}
		return value.NewFloat(f), true
	case ty.IsListType() || ty.IsTupleType():
		var items []string
		var nums []float64
		it := cv.ElementIterator()
		for it.Next() {
			_, ev := it.Element()
			if ev.IsNull() || !ev.IsKnown() {
				return value.Value{}, false
			}
			switch ev.Type() {
			case cty.String:
				items = append(items, ev.AsString())
			case cty.Number:
				f, _ := ev.AsBigFloat().Float64()
				nums = append(nums, f)
			default:
				return value.Value{}, false
			}
		}
		if len(items) > 0 && len(nums) > 0 {
			return value.Value{}, false
		}
		if len(nums) > 0 {
			switch len(nums) {
			case 2:
				return value.NewVec2(nums[0], nums[1]), true
			case 3:
				return value.NewVec3(nums[0], nums[1], nums[2]), true
			case 4:
				return value.NewVec4(nums[0], nums[1], nums[2], nums[3]), true
			}
			return value.Value{}, false
		}
		return value.NewStringArray(items), true
	}
	return value.Value{}, false
}

// Get returns the named value.
func (s *Sink) Get(name string) (value.Value, bool) {
	if s == nil {
		return value.Value{}, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Set stores a value, keeping first-seen order.
func (s *Sink) Set(name string, v value.Value) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// String returns the named string, or "" when absent or not a string.
func (s *Sink) String(name string) string {
	v, ok := s.Get(name)
	if !ok || v.Kind() != value.String {
		return ""
	}
	str, _ := v.AsString()
	return str
}

// Int returns the named integer.
func (s *Sink) Int(name string) (int64, bool) {
	v, ok := s.Get(name)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// Bool returns the named boolean, false when absent.
func (s *Sink) Bool(name string) bool {
	v, ok := s.Get(name)
	if !ok {
		return false
	}
	b, _ := v.AsBool()
	return b
}

// Names returns attribute names in declaration order.
func (s *Sink) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Len returns the number of attributes.
func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Text renders the sink back into settings text.
func (s *Sink) Text() string {
	var b strings.Builder
	for _, name := range s.Names() {
		v := s.values[name]
		fmt.Fprintf(&b, "%s = %s\n", name, literal(v))
	}
	return b.String()
}

func literal(v value.Value) string {
	switch v.Kind() {
	case value.String:
		s, _ := v.AsString()
		return fmt.Sprintf("%q", s)
	case value.Vec2, value.Vec3, value.Vec4:
		f, _ := v.AsVec()
		parts := make([]string, len(f))
		for i, x := range f {
			parts[i] = fmt.Sprint(x)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.StringArray:
		arr, _ := v.AsStringArray()
		parts := make([]string, len(arr))
		for i, x := range arr {
			parts[i] = fmt.Sprintf("%q", x)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return v.String()
}
