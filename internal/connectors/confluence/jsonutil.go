package confluence

import "fmt"

func asMap(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return m, nil
}

func asString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
