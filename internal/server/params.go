package server

import "fmt"

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		// Planners sometimes send numbers where strings are expected.
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func intParam(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}

func floatParam(params map[string]interface{}, key string, defaultVal float64) float64 {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return defaultVal
}

func boolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// pointParam reads a required coordinate pair.
func pointParam(params map[string]interface{}, xKey, yKey string) (int, int, error) {
	if _, ok := params[xKey]; !ok {
		return 0, 0, fmt.Errorf("%s is required", xKey)
	}
	if _, ok := params[yKey]; !ok {
		return 0, 0, fmt.Errorf("%s is required", yKey)
	}
	return intParam(params, xKey, 0), intParam(params, yKey, 0), nil
}
