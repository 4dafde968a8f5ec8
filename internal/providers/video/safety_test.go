package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidmase/bananina/internal/providers/taskapi"
)

func TestRewriteSafetyFailure(t *testing.T) {
	for _, msg := range []string{
		"Rejected by Safety Filter",
		"NSFW content detected.",
		"violates our content policy",
		"Blocked by MODERATION",
	} {
		got, kind, ok := RewriteSafetyFailure(msg)
		assert.True(t, ok, msg)
		assert.Equal(t, taskapi.KindContentSafety, kind, msg)
		assert.Contains(t, got, "rephrase the prompt", msg)
		assert.Contains(t, got, "celebrities", msg)
	}
}

func TestRewriteSafetyFailureKeepsOriginal(t *testing.T) {
	got, _, ok := RewriteSafetyFailure("Rejected by safety filter.")
	assert.True(t, ok)
	assert.Contains(t, got, "Rejected by safety filter. ")
}

func TestRewriteSafetyFailureIgnoresOtherMessages(t *testing.T) {
	got, kind, ok := RewriteSafetyFailure("internal error")
	assert.False(t, ok)
	assert.Equal(t, taskapi.Kind(""), kind)
	assert.Equal(t, "internal error", got)
}
