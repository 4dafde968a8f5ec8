package taskapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ResultDocument is the nested result document kie.ai ships as a JSON string
// inside the status payload.
type ResultDocument struct {
	ResultURLs   []string        `json:"resultUrls"`
	ResultObject json.RawMessage `json:"resultObject,omitempty"`
}

// URLs returns the non-empty result references in provider order.
func (d ResultDocument) URLs() []string {
	out := make([]string, 0, len(d.ResultURLs))
	for _, u := range d.ResultURLs {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// DecodeResultDocument accepts the field either as a JSON-encoded string (the
// documented form) or as an embedded object, and decodes it exactly once.
func DecodeResultDocument(raw json.RawMessage) (ResultDocument, error) {
	var doc ResultDocument
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return doc, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return doc, fmt.Errorf("%w: %v", ErrResultDecode, err)
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return doc, nil
		}
		raw = json.RawMessage(inner)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrResultDecode, err)
	}
	return doc, nil
}
