package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parsePageJSON parses the JSON response from an LLM into a PageCandidate.
// Models wrap JSON in markdown fences or chatter around it, so everything
// outside the outermost object is discarded before unmarshaling.
func parsePageJSON(text string, pageNo int) (*PageCandidate, error) {
	text = strings.TrimSpace(text)

	// Remove opening markdown code blocks
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var candidate PageCandidate
	if err := json.Unmarshal([]byte(text), &candidate); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	// Models sometimes omit or misnumber page_no; the renderer knows the
	// true ordinal, so it wins when the model returned nothing.
	if candidate.PageNo == nil {
		candidate.PageNo = pageNo
	}

	candidate.PageType = strings.TrimSpace(candidate.PageType)

	return &candidate, nil
}
