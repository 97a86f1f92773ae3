package eval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassthroughPipeline(t *testing.T) {
	out, err := Passthrough().Run("1+1")
	require.NoError(t, err)
	assert.Equal(t, "1+1", out)
}

func TestPipelineStageOrder(t *testing.T) {
	p := Pipeline{
		Preprocess:  func(s string) (string, error) { return s + "a", nil },
		Translate:   func(s string) (string, error) { return s + "b", nil },
		Postprocess: func(s string) (string, error) { return s + "c", nil },
	}
	out, err := p.Run("x")
	require.NoError(t, err)
	assert.Equal(t, "xabc", out)
}

func TestPipelineFailure(t *testing.T) {
	boom := errors.New("unexpected token\n  at line 3\n  while parsing")
	p := Passthrough()
	p.Translate = func(string) (string, error) { return "", boom }

	_, err := p.Run("x")
	var te *TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "translate", te.Stage)

	// The user-facing message truncates at the first explanatory-cause
	// boundary.
	assert.Equal(t, "translation failed (translate): unexpected token", te.UserMessage())
}

func TestHasTopLevelAwait(t *testing.T) {
	assert.True(t, HasTopLevelAwait("await f()"))
	assert.True(t, HasTopLevelAwait("const x = await fetch(u)"))
	assert.False(t, HasTopLevelAwait("awaiting()"))
	assert.False(t, HasTopLevelAwait("1+1"))
	// Substring marker, not a parse: a marker inside a string still counts.
	assert.True(t, HasTopLevelAwait(`"await"`))
}
