package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsrepl/internal/eval"
	"jsrepl/internal/inspect"
)

// scriptedCaller answers the enable handshake and records evaluate
// expressions so tests can see what evalSource actually submitted.
type scriptedCaller struct {
	expressions []string
}

func (s *scriptedCaller) Call(_ context.Context, method string, params, result any) error {
	raw, _ := json.Marshal(params)
	switch method {
	case "Runtime.enable":
		return nil
	case "Runtime.evaluate":
		var p struct {
			Expression string `json:"expression"`
		}
		_ = json.Unmarshal(raw, &p)
		if p.Expression == "globalThis" {
			return json.Unmarshal([]byte(`{"result":{"type":"object","className":"global","objectId":"g"}}`), result)
		}
		s.expressions = append(s.expressions, p.Expression)
		return json.Unmarshal([]byte(`{"result":{"type":"number","value":2,"description":"2"}}`), result)
	case "Runtime.callFunctionOn":
		return json.Unmarshal([]byte(`{"result":{"type":"string","value":"2"}}`), result)
	}
	return nil
}

func newTestEngine(t *testing.T, caller *scriptedCaller) *eval.Engine {
	t.Helper()
	engine := eval.New(caller, eval.NewSession(inspect.Options{}), nil)
	require.NoError(t, engine.Enable(context.Background()))
	return engine
}

func TestEvalSourcePlainExpression(t *testing.T) {
	caller := &scriptedCaller{}
	engine := newTestEngine(t, caller)

	out, err := evalSource(context.Background(), engine, eval.Passthrough(), "1+1")
	require.NoError(t, err)
	assert.Equal(t, "2", out.Text)
	require.Len(t, caller.expressions, 1)
	assert.Equal(t, "1+1", caller.expressions[0], "no wrap without an await marker")
}

func TestEvalSourceWrapsTopLevelAwait(t *testing.T) {
	caller := &scriptedCaller{}
	engine := newTestEngine(t, caller)

	_, err := evalSource(context.Background(), engine, eval.Passthrough(), "await f()")
	require.NoError(t, err)
	require.Len(t, caller.expressions, 1)
	assert.Contains(t, caller.expressions[0], "(async () => {")
	assert.Contains(t, caller.expressions[0], "return ( await f() );")
}

func TestEvalSourceTranslationFailure(t *testing.T) {
	caller := &scriptedCaller{}
	engine := newTestEngine(t, caller)

	pipe := eval.Passthrough()
	pipe.Translate = func(string) (string, error) {
		return "", assert.AnError
	}
	_, err := evalSource(context.Background(), engine, pipe, "x")
	var te *eval.TranslationError
	assert.ErrorAs(t, err, &te)
	assert.Empty(t, caller.expressions, "nothing is submitted when translation fails")
}
