package taskapi

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the classified category of a provider error.
type Kind string

const (
	KindAuth          Kind = "auth"
	KindCredits       Kind = "credits"
	KindRateLimit     Kind = "rate-limit"
	KindInvalidInput  Kind = "invalid-input"
	KindContentSafety Kind = "content-safety"
	KindServer        Kind = "server"
	KindNotFound      Kind = "not-found"
	KindUnknown       Kind = "unknown"
)

// CodeEntry documents a known provider code.
type CodeEntry struct {
	Kind Kind
	Text string
}

// Classification is the human-readable diagnosis of a provider code.
type Classification struct {
	Kind       Kind
	Code       string
	RawMessage string
	Message    string
}

func (c Classification) String() string {
	return c.Message
}

var defaultCodes = map[int]CodeEntry{
	401: {Kind: KindAuth, Text: "Authentication failed: check the provider API key"},
	402: {Kind: KindCredits, Text: "Insufficient credits: top up the provider account"},
	404: {Kind: KindNotFound, Text: "Model unavailable: the requested model was not found"},
	422: {Kind: KindInvalidInput, Text: "Invalid parameters: the provider rejected the request"},
	429: {Kind: KindRateLimit, Text: "Rate limited: too many requests, wait before retrying"},
	500: {Kind: KindServer, Text: "Provider server error: try again later"},
}

// Classify maps a provider code using the shared code table.
func Classify(code, message string) Classification {
	return classify(nil, code, message)
}

func classify(extra map[int]CodeEntry, code, message string) Classification {
	code = strings.TrimSpace(code)
	message = strings.TrimSpace(message)
	out := Classification{Kind: KindUnknown, Code: code, RawMessage: message}

	entry, ok := lookupCode(extra, code)
	if !ok {
		if message == "" {
			out.Message = fmt.Sprintf("API error (%s)", code)
		} else {
			out.Message = fmt.Sprintf("API error (%s): %s", code, message)
		}
		return out
	}
	out.Kind = entry.Kind
	out.Message = entry.Text
	if message != "" && !strings.EqualFold(message, entry.Text) {
		out.Message = fmt.Sprintf("%s (%s)", entry.Text, message)
	}
	return out
}

func lookupCode(extra map[int]CodeEntry, code string) (CodeEntry, bool) {
	n, err := strconv.Atoi(code)
	if err != nil {
		return CodeEntry{}, false
	}
	if entry, ok := extra[n]; ok {
		return entry, true
	}
	entry, ok := defaultCodes[n]
	return entry, ok
}
