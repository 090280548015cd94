package logger

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

// FilterConfig lists the field and header names whose values must not reach the logs.
type FilterConfig struct {
	// SensitiveFields are matched case-insensitively as substrings of the key.
	SensitiveFields []string
	MaskValue       string
}

// DefaultFilterConfig covers credentials and session headers.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "secret",
			"token", "api_key", "apikey", "api-key",
			"authorization", "cookie", "credential",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks values whose key looks sensitive.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a filter; a nil config means DefaultFilterConfig.
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString masks value when key is sensitive. URLs keep their shape with the
// password replaced.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if value == "" {
		return value
	}
	if f.isSensitive(key) {
		if masked, ok := f.maskURLPassword(value); ok {
			return masked
		}
		return f.config.MaskValue
	}
	if masked, ok := f.maskURLPassword(value); ok {
		return masked
	}
	return value
}

// FilterValue masks value when key is sensitive, and masks sensitive entries of header
// and string maps.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	if f.isSensitive(key) {
		return f.config.MaskValue
	}
	switch v := value.(type) {
	case string:
		return f.FilterString(key, v)
	case http.Header:
		out := make(map[string][]string, len(v))
		for k, vals := range v {
			if f.isSensitive(k) {
				out[k] = []string{f.config.MaskValue}
				continue
			}
			out[k] = vals
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, val := range v {
			out[k] = f.FilterString(k, val)
		}
		return out
	case map[string]any:
		return f.FilterFields(v)
	default:
		return value
	}
}

// FilterFields applies FilterValue to every entry of fields.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = f.FilterValue(k, v)
	}
	return out
}

// FilterJSON masks the values of sensitive keys at any depth of a JSON document. Input that
// is not valid JSON is returned unchanged.
func (f *SensitiveDataFilter) FilterJSON(body []byte) []byte {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return body
	}
	var paths []string
	f.sensitivePaths(gjson.ParseBytes(body), "", &paths)
	if len(paths) == 0 {
		return body
	}

	out := append([]byte(nil), body...)
	for _, path := range paths {
		if masked, err := sjson.SetBytes(out, path, f.config.MaskValue); err == nil {
			out = masked
		}
	}
	return out
}

func (f *SensitiveDataFilter) sensitivePaths(node gjson.Result, prefix string, paths *[]string) {
	if !node.IsObject() && !node.IsArray() {
		return
	}
	index := 0
	node.ForEach(func(key, value gjson.Result) bool {
		var path string
		if node.IsArray() {
			path = joinPath(prefix, strconv.Itoa(index))
			index++
		} else {
			path = joinPath(prefix, gjson.Escape(key.String()))
			if f.isSensitive(key.String()) {
				*paths = append(*paths, path)
				return true
			}
		}
		f.sensitivePaths(value, path, paths)
		return true
	})
}

func joinPath(prefix, component string) string {
	if prefix == "" {
		return component
	}
	return prefix + "." + component
}

func (f *SensitiveDataFilter) isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range f.config.SensitiveFields {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func (f *SensitiveDataFilter) maskURLPassword(value string) (string, bool) {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return "", false
	}
	if _, has := u.User.Password(); !has {
		return "", false
	}
	u.User = url.UserPassword(u.User.Username(), f.config.MaskValue)
	return u.String(), true
}
