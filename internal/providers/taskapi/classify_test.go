package taskapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKnownCodes(t *testing.T) {
	cases := map[string]Kind{
		"401": KindAuth,
		"402": KindCredits,
		"404": KindNotFound,
		"422": KindInvalidInput,
		"429": KindRateLimit,
		"500": KindServer,
	}
	for code, want := range cases {
		got := Classify(code, "")
		assert.Equal(t, want, got.Kind, "code %s", code)
		assert.Equal(t, code, got.Code)
		assert.NotContains(t, got.Message, "API error", "code %s", code)
	}
}

func TestClassifyAppendsRawMessage(t *testing.T) {
	got := Classify("402", "balance is 0")
	assert.Equal(t, KindCredits, got.Kind)
	assert.Equal(t, "Insufficient credits: top up the provider account (balance is 0)", got.Message)
	assert.Equal(t, got.Message, got.String())
}

func TestClassifyUnknownCodeKeepsCodeAndMessage(t *testing.T) {
	got := Classify("418", "I'm a teapot")
	assert.Equal(t, KindUnknown, got.Kind)
	assert.Equal(t, "API error (418): I'm a teapot", got.Message)

	got = Classify("E_WEIRD", "")
	assert.Equal(t, KindUnknown, got.Kind)
	assert.Equal(t, "API error (E_WEIRD)", got.Message)
}

func TestKieProfileExtraCodes(t *testing.T) {
	p := KieJobsProfile("kie-image", "https://api.kie.ai")

	got := p.Classify("455", "")
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Contains(t, got.Message, "Model disabled")

	got = p.Classify("505", "feature off")
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Contains(t, got.Message, "feature off")

	// shared table still applies
	assert.Equal(t, KindAuth, p.Classify("401", "").Kind)
	// extras do not leak into the shared table
	assert.Equal(t, KindUnknown, Classify("455", "").Kind)
}
