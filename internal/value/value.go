// Package value implements the tagged property value used throughout the
// tile pipeline, replacing the dynamic property maps of the system this
// module's feature pipeline descends from with an explicit, typed variant.
package value

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindStringList
	KindMap
)

// Value is a tagged union over the property types a Feature can carry.
// Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind

	boolVal   bool
	intVal    int64
	floatVal  float64
	stringVal string
	listVal   []string
	mapVal    map[string]Value
}

func Null() Value                   { return Value{Kind: KindNull} }
func Bool(b bool) Value             { return Value{Kind: KindBool, boolVal: b} }
func Int(i int64) Value             { return Value{Kind: KindInt, intVal: i} }
func Float(f float64) Value         { return Value{Kind: KindFloat, floatVal: f} }
func String(s string) Value         { return Value{Kind: KindString, stringVal: s} }
func StringList(ss []string) Value  { return Value{Kind: KindStringList, listVal: ss} }
func Map(m map[string]Value) Value  { return Value{Kind: KindMap, mapVal: m} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.boolVal, true
}

func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.intVal, true
	case KindFloat:
		return int64(v.floatVal), true
	}
	return 0, false
}

func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.floatVal, true
	case KindInt:
		return float64(v.intVal), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.stringVal, true
}

func (v Value) AsStringList() ([]string, bool) {
	if v.Kind != KindStringList {
		return nil, false
	}
	return v.listVal, true
}

func (v Value) AsMap() (map[string]Value, bool) {
	if v.Kind != KindMap {
		return nil, false
	}
	return v.mapVal, true
}

// Interface converts a Value to a plain interface{}, for JSON encoding or
// interop with code that predates the tagged variant.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindFloat:
		return v.floatVal
	case KindString:
		return v.stringVal
	case KindStringList:
		return v.listVal
	case KindMap:
		out := make(map[string]interface{}, len(v.mapVal))
		for k, mv := range v.mapVal {
			out[k] = mv.Interface()
		}
		return out
	}
	return nil
}

// FromInterface wraps a plain Go value (as produced by a database scan or
// JSON decode) into the tagged Value variant.
func FromInterface(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []string:
		return StringList(x)
	case map[string]interface{}:
		m := make(map[string]Value, len(x))
		for k, mv := range x {
			m[k] = FromInterface(mv)
		}
		return Map(m)
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// String renders the Value for logging/debugging.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "<null>"
	case KindBool:
		return strconv.FormatBool(v.boolVal)
	case KindInt:
		return strconv.FormatInt(v.intVal, 10)
	case KindFloat:
		return strconv.FormatFloat(v.floatVal, 'g', -1, 64)
	case KindString:
		return v.stringVal
	case KindStringList:
		return strings.Join(v.listVal, ",")
	case KindMap:
		return fmt.Sprintf("%v", v.Interface())
	}
	return ""
}

// PropertyMap is an ordered-enough property bag: map plus explicit key
// order, matching the predictable property ordering the encoders rely on.
type PropertyMap struct {
	Keys   []string
	Values map[string]Value
}

func NewPropertyMap() *PropertyMap {
	return &PropertyMap{Values: make(map[string]Value)}
}

func (p *PropertyMap) Set(key string, v Value) {
	if _, exists := p.Values[key]; !exists {
		p.Keys = append(p.Keys, key)
	}
	p.Values[key] = v
}

func (p *PropertyMap) Get(key string) (Value, bool) {
	v, ok := p.Values[key]
	return v, ok
}

func (p *PropertyMap) Delete(key string) {
	if _, exists := p.Values[key]; !exists {
		return
	}
	delete(p.Values, key)
	for i, k := range p.Keys {
		if k == key {
			p.Keys = append(p.Keys[:i], p.Keys[i+1:]...)
			break
		}
	}
}

func (p *PropertyMap) Clone() *PropertyMap {
	clone := &PropertyMap{
		Keys:   append([]string(nil), p.Keys...),
		Values: make(map[string]Value, len(p.Values)),
	}
	for k, v := range p.Values {
		clone.Values[k] = v
	}
	return clone
}

// feetInchesPattern and numberPattern mirror the parsing rules used to
// coerce OSM-style height/width tags ("3.5", "12'6\"", "4 m") to meters.
var (
	feetInchesPattern = regexp.MustCompile(`^([+-]?[0-9.]+)'(?: *([+-]?[0-9.]+)")?`)
	numberPattern     = regexp.MustCompile(`([+-]?[0-9.]+)`)
)

// ToFloat normalizes punctuation (comma/semicolon as decimal separator) and
// parses a numeric string, returning ok=false if no float could be parsed.
func ToFloat(s string) (float64, bool) {
	normalized := strings.ReplaceAll(strings.ReplaceAll(s, ";", "."), ",", ".")
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// feetToMeters is the inches-to-meters conversion factor used by the
// original transform pipeline. Kept at this exact value rather than the more
// common 0.0254 per the Open Question decision recorded in SPEC_FULL.md.
const feetToMeters = 0.02544

// ToFloatMeters parses a height/length string that may be a bare number, a
// number with an explicit " m" suffix, or feet/inches notation (12'6"),
// returning the value in meters.
func ToFloatMeters(s string) (float64, bool) {
	if f, ok := ToFloat(s); ok {
		return f, true
	}

	trimmed := strings.TrimSpace(s)

	if strings.HasSuffix(trimmed, " m") {
		if f, ok := ToFloat(strings.TrimSuffix(trimmed, " m")); ok {
			return f, true
		}
	}

	if m := feetInchesPattern.FindStringSubmatch(trimmed); m != nil {
		var totalInches float64
		parsed := false
		if feet, ok := ToFloat(m[1]); ok {
			totalInches += feet * 12.0
			parsed = true
		}
		if m[2] != "" {
			if inches, ok := ToFloat(m[2]); ok {
				totalInches += inches
				parsed = true
			}
		}
		if parsed {
			return totalInches * feetToMeters, true
		}
	}

	if m := numberPattern.FindString(trimmed); m != "" {
		if f, ok := ToFloat(m); ok {
			return f, true
		}
	}

	return 0, false
}

// Coalesce returns the first non-empty property value among the given keys.
func Coalesce(props *PropertyMap, keys ...string) (Value, bool) {
	for _, k := range keys {
		if v, ok := props.Get(k); ok && !v.IsNull() {
			if s, isStr := v.AsString(); isStr && s == "" {
				continue
			}
			return v, true
		}
	}
	return Null(), false
}
