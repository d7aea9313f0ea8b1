package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Outcome    string  `json:"outcome"`
	Confidence float64 `json:"confidence"`
}

func (v *verdict) Normalize() {
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
}

func TestDecode_DirectJSON(t *testing.T) {
	out, tag := Decode[verdict](`{"outcome":"approve","confidence":0.9}`)
	require.Equal(t, TagParsed, tag)
	assert.Equal(t, "approve", out.Outcome)
	assert.Equal(t, 0.9, out.Confidence)
}

func TestDecode_FencedJSON(t *testing.T) {
	raw := "Here is my answer:\n```json\n{\"outcome\":\"block\",\"confidence\":0.8}\n```\nLet me know."
	out, tag := Decode[verdict](raw)
	require.Equal(t, TagParsed, tag)
	assert.Equal(t, "block", out.Outcome)
}

func TestDecode_FenceWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"outcome\":\"challenge\",\"confidence\":0.6}\n```"
	out, tag := Decode[verdict](raw)
	require.Equal(t, TagParsed, tag)
	assert.Equal(t, "challenge", out.Outcome)
}

func TestDecode_EmbeddedObjectInProse(t *testing.T) {
	raw := `Based on the evidence I conclude {"outcome":"escalate","confidence":0.4} as discussed above.`
	out, tag := Decode[verdict](raw)
	require.Equal(t, TagParsed, tag)
	assert.Equal(t, "escalate", out.Outcome)
}

func TestDecode_EmbeddedObjectWithBracesInStrings(t *testing.T) {
	raw := `prefix {"outcome":"appr{ove}","confidence":0.5} suffix`
	out, tag := Decode[verdict](raw)
	require.Equal(t, TagParsed, tag)
	assert.Equal(t, "appr{ove}", out.Outcome)
}

func TestDecode_UnparseableYieldsZeroValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "prose only", raw: "I cannot answer that."},
		{name: "unbalanced braces", raw: `{"outcome": "approve"`},
		{name: "fenced garbage", raw: "```json\nnot json\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, tag := Decode[verdict](tt.raw)
			assert.Equal(t, TagDegraded, tag)
			assert.Equal(t, verdict{}, out)
		})
	}
}

func TestDecode_NormalizeClampsAfterParse(t *testing.T) {
	out, tag := Decode[verdict](`{"outcome":"approve","confidence":3.5}`)
	require.Equal(t, TagParsed, tag)
	assert.Equal(t, 1.0, out.Confidence)

	out, tag = Decode[verdict](`{"outcome":"approve","confidence":-2}`)
	require.Equal(t, TagParsed, tag)
	assert.Equal(t, 0.0, out.Confidence)
}

func TestDecode_Idempotent(t *testing.T) {
	raw := `{"outcome":"block","confidence":0.7}`
	first, tag1 := Decode[verdict](raw)
	second, tag2 := Decode[verdict](raw)
	assert.Equal(t, tag1, tag2)
	assert.Equal(t, first, second)
}
