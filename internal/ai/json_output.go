package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// decodeModelJSON decodes model output into out. It tolerates markdown fences, prose
// around the object and the usual syntax slips (trailing commas, single quotes, missing
// brackets) by falling back to jsonrepair.
func decodeModelJSON(raw string, out any) error {
	text := stripCodeFence(raw)
	if text == "" {
		return fmt.Errorf("empty model output")
	}
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}

	if obj, ok := outermostObject(text); ok {
		text = obj
		if err := json.Unmarshal([]byte(text), out); err == nil {
			return nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return fmt.Errorf("model output is not valid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("repaired model output does not match the expected shape: %w", err)
	}
	return nil
}

func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// outermostObject returns the text from the first '{' to the last '}'.
func outermostObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
