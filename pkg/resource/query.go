package resource

import (
	"math"
	"strings"
)

// QueryOptions modify EncodeQueryWith.
type QueryOptions struct {
	// IncludeZero keeps 0 and false values, which are skipped by default.
	// Empty strings, nil values and empty sequences are always skipped.
	IncludeZero bool
}

// EncodeQuery encodes params to the query string, with the leading "?", or to "" if there is nothing to encode.
//
// Keys are encoded in the insertion order. Falsy values are skipped, it means "", 0, false, nil and empty sequences.
// So a legitimate 0 or false value is silently dropped, use EncodeQueryWith and QueryOptions.IncludeZero to keep it.
// A sequence is encoded as repeated "key=value" pairs.
func EncodeQuery(params Params) string {
	return EncodeQueryWith(params, QueryOptions{})
}

func EncodeQueryWith(params Params, opts QueryOptions) string {
	var out strings.Builder
	add := func(key string, value any) {
		if out.Len() == 0 {
			out.WriteByte('?')
		} else {
			out.WriteByte('&')
		}
		out.WriteString(escapeComponent(key))
		out.WriteByte('=')
		out.WriteString(escapeComponent(formatScalar(value)))
	}

	for _, e := range params.Entries() {
		if isFalsy(e.value, opts.IncludeZero) {
			continue
		}
		if list, ok := e.value.([]any); ok {
			for _, item := range list {
				add(e.key, item)
			}
			continue
		}
		add(e.key, e.value)
	}
	return out.String()
}

func isFalsy(v any, includeZero bool) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case bool:
		return !v && !includeZero
	case int64:
		return v == 0 && !includeZero
	case uint64:
		return v == 0 && !includeZero
	case float32:
		return (v == 0 || math.IsNaN(float64(v))) && !includeZero
	case float64:
		return (v == 0 || math.IsNaN(v)) && !includeZero
	default:
		return false
	}
}

// escapeComponent escapes all characters except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func escapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			out.WriteByte(c)
			continue
		}
		out.WriteByte('%')
		out.WriteByte(hex[c>>4])
		out.WriteByte(hex[c&0x0F])
	}
	return out.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
