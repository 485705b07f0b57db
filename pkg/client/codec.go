package client

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/umisama/go-regexpcache"
)

const (
	ContentTypeApplicationJSON       = "application/json"
	ContentTypeApplicationJSONRegexp = `^application/([a-zA-Z0-9\.\-]+\+)?json$`
)

// json codec of request and response bodies, compatible with encoding/json.
var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// IsJSONContentType returns true for "application/json" and "application/*+json", parameters such as charset are ignored.
func IsJSONContentType(contentType string) bool {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	return regexpcache.MustCompile(ContentTypeApplicationJSONRegexp).MatchString(contentType)
}
