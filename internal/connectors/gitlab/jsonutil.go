package gitlab

import "fmt"

// asMap/asSlice/asString/asFloat/asBool unwrap the `any` tree FetchJSON
// returns (no GitLab SDK is grounded in the example pack, so responses are
// walked as generic JSON, the way the teacher's framework package treats
// untyped REST payloads).
func asMap(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("gitlab: expected JSON object, got %T", v)
	}
	return m, nil
}

func asSlice(v any) ([]any, error) {
	s, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("gitlab: expected JSON array, got %T", v)
	}
	return s, nil
}

func asString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func asBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func asFloat(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}
