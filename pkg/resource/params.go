package resource

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/spf13/cast"
)

// Scalar is a type of value allowed in Params.
type Scalar interface {
	~string | ~bool |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Entry is a single key/value of Params, see Param and ParamList.
type Entry struct {
	key   string
	value any // normalized scalar or []any
}

// Param creates an Entry with a scalar value.
func Param[V Scalar](key string, value V) Entry {
	return Entry{key: key, value: normalize(value)}
}

// ParamList creates an Entry with a sequence of values.
func ParamList[V Scalar](key string, values ...V) Entry {
	list := make([]any, 0, len(values))
	for _, v := range values {
		list = append(list, normalize(v))
	}
	return Entry{key: key, value: list}
}

func (e Entry) Key() string {
	return e.key
}

func (e Entry) Value() any {
	return e.value
}

// Params is an insertion-ordered bag of identifiers or query parameters.
// The value is immutable, the With method returns a modified copy.
type Params struct {
	values *orderedmap.OrderedMap
}

// NewParams creates Params from entries. If a key is repeated, the last value wins and the first position is kept.
func NewParams(entries ...Entry) Params {
	return Params{}.With(entries...)
}

// ParamsFromMap creates Params from a generic map, for example from a decoded configuration file.
// Keys are sorted, because the map has no order.
// Values that are not scalars or sequences of scalars are converted to string.
func ParamsFromMap(m map[string]any) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{key: k, value: normalizeAny(m[k])})
	}
	return NewParams(entries...)
}

// With returns a copy of the Params with the entries set.
func (p Params) With(entries ...Entry) Params {
	out := Params{values: orderedmap.New()}
	for _, k := range p.Keys() {
		v, _ := p.values.Get(k)
		out.values.Set(k, v)
	}
	for _, e := range entries {
		out.values.Set(e.key, e.value)
	}
	return out
}

// Get returns the value of the key.
// The value is a string, bool, int64, uint64, float32, float64, nil, or []any of these.
func (p Params) Get(key string) (any, bool) {
	if p.values == nil {
		return nil, false
	}
	return p.values.Get(key)
}

func (p Params) Has(key string) bool {
	_, found := p.Get(key)
	return found
}

// Keys in insertion order.
func (p Params) Keys() []string {
	if p.values == nil {
		return nil
	}
	return p.values.Keys()
}

func (p Params) Len() int {
	return len(p.Keys())
}

// Entries returns all key/value pairs in insertion order.
func (p Params) Entries() []Entry {
	keys := p.Keys()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v, _ := p.values.Get(k)
		out = append(out, Entry{key: k, value: v})
	}
	return out
}

// normalize converts named types to the underlying primitive type.
func normalize(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32:
		return float32(rv.Float())
	case reflect.Float64:
		return rv.Float()
	case reflect.Invalid:
		return nil
	default:
		return v
	}
}

func normalizeAny(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		list := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := normalize(rv.Index(i).Interface())
			if !isScalar(item) {
				item = cast.ToString(item)
			}
			list = append(list, item)
		}
		return list
	}
	if out := normalize(v); isScalar(out) {
		return out
	}
	return cast.ToString(v)
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, int64, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// formatScalar converts a normalized scalar to the string.
func formatScalar(v any) string {
	switch v := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return cast.ToString(v)
	}
}
