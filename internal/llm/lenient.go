package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SanitizeOptionalFields removes or normalizes optional fields that don't meet our stricter schema,
// so the overall document can still validate. We only touch OPTIONALS.
func SanitizeOptionalFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string

	// priority: if present but not one of the enum, drop it
	if v, ok := m["priority"]; ok {
		s, isStr := v.(string)
		s = strings.ToLower(strings.TrimSpace(s))
		if !isStr || (s != "high" && s != "medium" && s != "low") {
			delete(m, "priority")
			dropped = append(dropped, "priority")
		} else {
			m["priority"] = s
		}
	}

	// confidence: clamp numeric strings, drop anything non-numeric
	if v, ok := m["confidence"]; ok {
		switch t := v.(type) {
		case float64:
			if t < 0 {
				m["confidence"] = 0.0
			} else if t > 1 {
				m["confidence"] = 1.0
			}
		case nil:
			delete(m, "confidence")
			dropped = append(dropped, "confidence")
		default:
			delete(m, "confidence")
			dropped = append(dropped, "confidence")
		}
	}

	// unknown keys: the schema forbids additionalProperties, so strip them
	for k := range m {
		switch k {
		case "summary", "category", "priority", "confidence":
		default:
			delete(m, k)
			dropped = append(dropped, k)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("re-marshal sanitized doc: %w", err)
	}
	return out, dropped, nil
}
