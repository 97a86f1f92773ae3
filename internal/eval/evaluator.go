// Package eval orchestrates one remote evaluation end-to-end: submit the
// fragment, classify the reply, conditionally await a deferred result, work
// around the bigint rendering defect, and produce the final text through a
// secondary remote render call.
package eval

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"jsrepl/internal/inspect"
	"jsrepl/internal/inspector"
)

// Caller issues one correlated request and decodes its reply.
// *inspector.Client satisfies it; tests script it.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// Outcome is what an evaluation hands back to the line-input loop.
type Outcome struct {
	Text               string
	Errored            bool
	SuppressErrorPrint bool

	// Advisory is a non-fatal note for the user (best-effort top-level
	// await); printed out-of-band, never part of Text.
	Advisory string
}

// TopLevelAwaitAdvisory is surfaced when a top-level-awaited expression
// resolves to undefined. That is ambiguous — a correct result or a lost
// resolution — and we preserve the ambiguity rather than guess.
const TopLevelAwaitAdvisory = "top-level await support is best-effort; this expression resolved to undefined, which may mean the resolution was lost"

const (
	methodEnable         = "Runtime.enable"
	methodEvaluate       = "Runtime.evaluate"
	methodAwaitPromise   = "Runtime.awaitPromise"
	methodCallFunctionOn = "Runtime.callFunctionOn"
)

type evaluateParams struct {
	Expression      string `json:"expression"`
	GeneratePreview bool   `json:"generatePreview"`
}

type awaitPromiseParams struct {
	PromiseObjectID string `json:"promiseObjectId"`
	GeneratePreview bool   `json:"generatePreview"`
}

type callArgument struct {
	ObjectID string          `json:"objectId,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
}

type callFunctionParams struct {
	ObjectID            string         `json:"objectId"`
	FunctionDeclaration string         `json:"functionDeclaration"`
	Arguments           []callArgument `json:"arguments"`
	ReturnByValue       bool           `json:"returnByValue"`
}

// evalReply is the shared reply shape of evaluate, awaitPromise and
// callFunctionOn.
type evalReply struct {
	Result    inspector.RemoteValue `json:"result"`
	WasThrown bool                  `json:"wasThrown"`
}

// Engine is the evaluation state machine. Phases within one Evaluate are
// strictly sequential; the REPL driver serializes Evaluate calls, though the
// underlying client supports overlap.
type Engine struct {
	rpc     Caller
	session *Session
	log     *zap.Logger

	// Handle to the remote globalThis, retained at Enable time and used as
	// the receiver for render calls so primitives (null included) never need
	// a handle of their own.
	globalID string
}

// New builds an Engine over an RPC caller.
func New(rpc Caller, session *Session, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{rpc: rpc, session: session, log: log}
}

// Session returns the engine's session state.
func (e *Engine) Session() *Session { return e.session }

// Enable prepares the remote runtime: the one-time enable call, then
// retaining a handle to globalThis for later render calls.
func (e *Engine) Enable(ctx context.Context) error {
	if err := e.rpc.Call(ctx, methodEnable, struct{}{}, nil); err != nil {
		return err
	}
	var reply evalReply
	err := e.rpc.Call(ctx, methodEvaluate, evaluateParams{Expression: "globalThis"}, &reply)
	if err != nil {
		return err
	}
	if reply.WasThrown || reply.Result.ObjectID == "" {
		return inspector.Inconsistent("globalThis evaluation returned no handle")
	}
	e.globalID = reply.Result.ObjectID
	return nil
}

// Evaluate runs the fragment remotely and renders the resulting value to
// text. topLevelAwait marks fragments already wrapped by WrapTopLevelAwait,
// whose promise result must be resolved before rendering.
func (e *Engine) Evaluate(ctx context.Context, code string, topLevelAwait bool) (Outcome, error) {
	var out Outcome

	// Submit.
	var submitted evalReply
	if err := e.rpc.Call(ctx, methodEvaluate, evaluateParams{Expression: code, GeneratePreview: true}, &submitted); err != nil {
		return out, err
	}
	value := submitted.Result
	value.WasThrown = submitted.WasThrown
	// Errored reflects the original evaluate, never the later phases.
	out.Errored = submitted.WasThrown

	// Classify.
	if value.Is(inspector.TypeObject) && !value.IsSubtype(inspector.SubtypeNull) {
		if value.IsSubtype(inspector.SubtypeIterator) {
			return out, inspector.Inconsistent("evaluation produced an iterator-shaped value, which the protocol cannot emit")
		}
		if value.ObjectID == "" {
			return out, inspector.Inconsistent("object result carried no handle")
		}
		if value.IsPromise() && value.Preview == nil {
			return out, inspector.Inconsistent("promise result carried no preview")
		}

		// Conditional await.
		if topLevelAwait && value.IsPromise() {
			var awaited evalReply
			err := e.rpc.Call(ctx, methodAwaitPromise, awaitPromiseParams{PromiseObjectID: value.ObjectID}, &awaited)
			if err != nil {
				return out, err
			}
			next := awaited.Result
			next.WasThrown = awaited.WasThrown
			value = next
			if value.Is(inspector.TypeUndefined) {
				out.Advisory = TopLevelAwaitAdvisory
				e.log.Warn("top-level await resolved to undefined")
			}
		}

		// Rejection detection: heuristic scan of the preview for a named
		// status property. Only one preview shape carries it; when the
		// preview is absent (awaited replacements are fetched without one)
		// the scan simply finds nothing.
		if value.Preview != nil {
			for _, p := range value.Preview.Properties {
				if p.Name == "status" && p.Value == "rejected" {
					value.WasRejectedPromise = true
					break
				}
			}
		}
	}
	out.SuppressErrorPrint = value.WasRejectedPromise

	// Bigint workaround: the call-function argument encoding cannot carry
	// bigints, so the secondary render call is skipped entirely.
	if value.Is(inspector.TypeBigint) {
		text, err := e.renderBigint(&value)
		if err != nil {
			return out, err
		}
		out.Text = text
		e.session.RecordResult(out.Text)
		return out, nil
	}

	// Render.
	text, err := e.renderRemote(ctx, &value)
	if err != nil {
		return out, err
	}
	out.Text = text
	if value.WasThrown && !value.IsSubtype(inspector.SubtypeError) {
		out.Text = "Uncaught " + out.Text
	}
	e.session.RecordResult(out.Text)
	return out, nil
}

// renderBigint parses the value's description into an arbitrary-precision
// integer, stores it under the session's local binding, and renders it with
// the local inspection chain.
func (e *Engine) renderBigint(value *inspector.RemoteValue) (string, error) {
	if value.Description == "" {
		return "", inspector.Inconsistent("bigint result carried no description")
	}
	digits := strings.TrimSuffix(value.Description, "n")
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return "", inspector.Inconsistent("bigint description %q did not parse", value.Description)
	}
	e.session.StoreBigint(n, value.WasThrown)
	text := inspect.Render(n, e.session.Options())
	if value.WasThrown {
		text = "Uncaught " + text
	}
	return text, nil
}

// renderRemote issues the secondary render call: the embedded render
// function stores the value into the remote `_`/`_error` globals and
// returns its textual form. A failed call or a non-string result is a
// protocol-consistency failure.
func (e *Engine) renderRemote(ctx context.Context, value *inspector.RemoteValue) (string, error) {
	if e.globalID == "" {
		return "", errors.New("eval: engine not enabled")
	}
	opts := e.session.Options()

	arg := callArgument{}
	if value.ObjectID != "" {
		arg.ObjectID = value.ObjectID
	} else if len(value.Value) > 0 {
		arg.Value = value.Value
	}
	// An argument with neither field is the remote undefined, which is what
	// an undefined result should arrive as.

	// Proxies are transparent inside the remote context, so the render
	// function cannot detect one itself; the annotation decision is made
	// here from the classified subtype.
	annotateProxy := opts.ShowProxies && value.IsSubtype(inspector.SubtypeProxy)

	params := callFunctionParams{
		ObjectID:            e.globalID,
		FunctionDeclaration: renderFunctionSource,
		Arguments: []callArgument{
			arg,
			rawArg(value.WasThrown),
			rawArg(opts.Colors),
			rawArg(annotateProxy),
			rawArg(opts.Depth),
			rawArg(opts.Sorted),
		},
		ReturnByValue: true,
	}

	var reply evalReply
	if err := e.rpc.Call(ctx, methodCallFunctionOn, params, &reply); err != nil {
		return "", inspector.Inconsistent("render call failed: %v", err)
	}
	if reply.WasThrown {
		return "", inspector.Inconsistent("render function threw: %s", reply.Result.Description)
	}
	if !reply.Result.Is(inspector.TypeString) {
		return "", inspector.Inconsistent("render call returned %s, want string", reply.Result.Type)
	}
	var text string
	if err := json.Unmarshal(reply.Result.Value, &text); err != nil {
		return "", inspector.Inconsistent("render call result did not decode: %v", err)
	}
	return text, nil
}

func rawArg(v any) callArgument {
	b, err := json.Marshal(v)
	if err != nil {
		// Only scalars come through here.
		b = []byte("null")
	}
	return callArgument{Value: b}
}
