package tripletex

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// CleanQuery drops nil values, empty strings and empty lists out of a query and collapses the 'fields' list into the
// comma-joined form Tripletex expects
func CleanQuery(query map[string]any) map[string]any {
	out := make(map[string]any, len(query))
	for key, value := range query {
		if value == nil {
			continue
		}
		if list, ok := stringList(value); ok {
			if key == "fields" {
				joined := joinFields(list)
				if joined != "" {
					out[key] = joined
				}
				continue
			}
			if len(list) == 0 {
				continue
			}
			out[key] = list
			continue
		}
		if str, ok := value.(string); ok && str == "" {
			continue
		}
		if ref := reflect.ValueOf(value); ref.Kind() == reflect.Pointer {
			if ref.IsNil() {
				continue
			}
			value = ref.Elem().Interface()
		}
		out[key] = value
	}
	return out
}

// EncodeQuery cleans and encodes a query; remaining lists are comma-joined
func EncodeQuery(query map[string]any) string {
	cleaned := CleanQuery(query)
	if len(cleaned) == 0 {
		return ""
	}
	values := url.Values{}
	for key, value := range cleaned {
		if list, ok := value.([]string); ok {
			values.Set(key, strings.Join(list, ","))
			continue
		}
		values.Set(key, fmt.Sprint(value))
	}
	return values.Encode()
}

func joinFields(fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, ",")
}

func stringList(value any) ([]string, bool) {
	switch list := value.(type) {
	case []string:
		return list, true
	case []int:
		out := make([]string, 0, len(list))
		for _, v := range list {
			out = append(out, fmt.Sprint(v))
		}
		return out, true
	case []int64:
		out := make([]string, 0, len(list))
		for _, v := range list {
			out = append(out, fmt.Sprint(v))
		}
		return out, true
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if v == nil {
				continue
			}
			out = append(out, fmt.Sprint(v))
		}
		return out, true
	}
	return nil, false
}
