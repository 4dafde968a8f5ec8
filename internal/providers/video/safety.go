package video

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/vidmase/bananina/internal/providers/taskapi"
)

var safetyKeywords = []string{
	"safety filter",
	"nsfw",
	"content policy",
	"moderation",
}

// SafetyHints is appended to moderation failures so users can self-correct.
const SafetyHints = "The request was blocked by the provider's content safety filter. " +
	"Suggestions: rephrase the prompt in neutral terms; " +
	"avoid naming real people, celebrities or brands; " +
	"remove violent, explicit or otherwise sensitive wording."

var folder = cases.Fold()

// RewriteSafetyFailure recognises moderation failures and augments the
// provider message with remediation hints. The original message is kept.
func RewriteSafetyFailure(message string) (string, taskapi.Kind, bool) {
	if !IsSafetyFailure(message) {
		return message, "", false
	}
	message = strings.TrimRight(strings.TrimSpace(message), ".")
	return message + ". " + SafetyHints, taskapi.KindContentSafety, true
}

// IsSafetyFailure reports whether message names a moderation rejection.
func IsSafetyFailure(message string) bool {
	folded := folder.String(message)
	for _, kw := range safetyKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
