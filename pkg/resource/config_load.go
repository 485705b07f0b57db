package resource

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Keys of the configuration map, they are matched case-insensitive.
const (
	ConfigKeyHeaders           = "headers"
	ConfigKeyAuth              = "auth"
	ConfigKeyTokenKey          = "tokenKey"
	ConfigKeyAuthHeader        = "authHeader"
	ConfigKeyParams            = "params"
	ConfigKeyURLSuffix         = "urlSuffix"
	ConfigKeyIncludeZeroParams = "includeZeroParams"
)

// OverrideFromMap creates the Override from a generic map, for example from a decoded configuration file.
//
// Unknown keys are ignored and values are coerced to the expected types, so a malformed configuration is never an error.
// Params can be a map, keys are then sorted, or a list of {key, value} maps, the order is then kept.
func OverrideFromMap(m map[string]any) Override {
	var opts []CallOption
	for k, v := range m {
		switch strings.ToLower(k) {
		case strings.ToLower(ConfigKeyHeaders):
			headers := make(http.Header)
			for name, value := range cast.ToStringMap(v) {
				for _, item := range toStringList(value) {
					headers.Add(name, item)
				}
			}
			opts = append(opts, WithHeaders(headers))
		case strings.ToLower(ConfigKeyAuth):
			opts = append(opts, WithAuth(cast.ToBool(v)))
		case strings.ToLower(ConfigKeyTokenKey):
			opts = append(opts, WithTokenKey(cast.ToString(v)))
		case strings.ToLower(ConfigKeyAuthHeader):
			opts = append(opts, WithAuthHeader(cast.ToString(v)))
		case strings.ToLower(ConfigKeyParams):
			opts = append(opts, WithParams(paramsFromValue(v)))
		case strings.ToLower(ConfigKeyURLSuffix):
			opts = append(opts, WithURLSuffix(cast.ToString(v)))
		case strings.ToLower(ConfigKeyIncludeZeroParams):
			opts = append(opts, WithZeroParams(cast.ToBool(v)))
		}
	}
	return NewOverride(opts...)
}

// ConfigFromMap returns the base Config with values from the map, see OverrideFromMap.
func ConfigFromMap(base Config, m map[string]any) Config {
	return Merge(base, OverrideFromMap(m))
}

// LoadConfig reads the Config under the key from the viper registry, based on the BaseConfig.
// The empty key reads the whole registry.
//
// Viper converts map keys to lower case, use the list form of params to keep the case of the parameter names:
//
//	params:
//	  - key: pageNo
//	    value: 1
func LoadConfig(v *viper.Viper, key string) Config {
	var m map[string]any
	if key == "" {
		m = v.AllSettings()
	} else {
		m = cast.ToStringMap(v.Get(key))
	}
	return ConfigFromMap(BaseConfig(), m)
}

// ReadConfigFile reads the Config under the key from a configuration file, for example "resource.yaml".
func ReadConfigFile(path, key string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf(`cannot read config file "%s": %w`, path, err)
	}
	return LoadConfig(v, key), nil
}

func paramsFromValue(v any) Params {
	list, ok := v.([]any)
	if !ok {
		return ParamsFromMap(cast.ToStringMap(v))
	}

	entries := make([]Entry, 0, len(list))
	for _, item := range list {
		pair := cast.ToStringMap(item)
		var key string
		var value any
		for k, v := range pair {
			switch strings.ToLower(k) {
			case "key":
				key = cast.ToString(v)
			case "value":
				value = v
			}
		}
		if key != "" {
			entries = append(entries, Entry{key: key, value: normalizeAny(value)})
		}
	}
	return NewParams(entries...)
}

func toStringList(v any) []string {
	if list, ok := v.([]any); ok {
		return cast.ToStringSlice(list)
	}
	return []string{cast.ToString(v)}
}
