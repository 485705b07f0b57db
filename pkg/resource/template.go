package resource

import (
	"strings"

	"github.com/umisama/go-regexpcache"
)

// placeholderPattern matches ":name" at the start of the template or after "/".
const placeholderPattern = `(^|/):([A-Za-z0-9_]+)`

// Template is a URL template with named path parameters, for example "v3/posts/:id".
type Template string

// Placeholders returns names of all placeholders in the order of appearance.
func (t Template) Placeholders() []string {
	matches := regexpcache.MustCompile(placeholderPattern).FindAllStringSubmatch(string(t), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[2])
	}
	return out
}

// Resolve replaces placeholders by values from ids.
//
// A placeholder with a value is replaced in place, the value is not escaped.
// A sequence value is joined with ",".
// A placeholder without a value is removed together with the preceding "/".
func (t Template) Resolve(ids Params) string {
	str := string(t)
	matches := regexpcache.MustCompile(placeholderPattern).FindAllStringSubmatchIndex(str, -1)
	if len(matches) == 0 {
		return str
	}

	var out strings.Builder
	last := 0
	for _, m := range matches {
		// m[0]:m[1] whole match, m[2]:m[3] separator, m[4]:m[5] name
		out.WriteString(str[last:m[0]])
		last = m[1]
		if value, found := ids.Get(str[m[4]:m[5]]); found {
			out.WriteString(str[m[2]:m[3]])
			out.WriteString(pathValue(value))
		}
	}
	out.WriteString(str[last:])
	return out.String()
}

func (t Template) String() string {
	return string(t)
}

func pathValue(v any) string {
	if list, ok := v.([]any); ok {
		items := make([]string, 0, len(list))
		for _, item := range list {
			items = append(items, formatScalar(item))
		}
		return strings.Join(items, ",")
	}
	return formatScalar(v)
}
