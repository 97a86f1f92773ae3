package eval

import (
	"fmt"
	"regexp"
	"strings"
)

// Stage is one pure step of the source-to-executable-form pipeline.
type Stage func(src string) (string, error)

// Pipeline is the opaque translation collaborator: three sequential pure
// stages, any of which may fail. The engine only needs the final executable
// text plus the await marker to decide whether to apply WrapTopLevelAwait.
type Pipeline struct {
	Preprocess  Stage
	Translate   Stage
	Postprocess Stage
}

// Passthrough returns a pipeline whose stages hand the source through
// unchanged. Plain JavaScript input needs no translation.
func Passthrough() Pipeline {
	identity := func(src string) (string, error) { return src, nil }
	return Pipeline{Preprocess: identity, Translate: identity, Postprocess: identity}
}

// Run feeds src through the three stages in order.
func (p Pipeline) Run(src string) (string, error) {
	stages := []struct {
		name string
		fn   Stage
	}{
		{"preprocess", p.Preprocess},
		{"translate", p.Translate},
		{"postprocess", p.Postprocess},
	}
	out := src
	for _, s := range stages {
		if s.fn == nil {
			continue
		}
		next, err := s.fn(out)
		if err != nil {
			return "", &TranslationError{Stage: s.name, Err: err}
		}
		out = next
	}
	return out, nil
}

// TranslationError means the fragment could not be turned into executable
// form. It is reported to the user, truncated at the first explanatory-cause
// boundary, and never crashes the session.
type TranslationError struct {
	Stage string
	Err   error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed (%s): %v", e.Stage, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// UserMessage is the truncated form shown to the user: the first line only.
func (e *TranslationError) UserMessage() string {
	msg := e.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

var awaitMarker = regexp.MustCompile(`\bawait\b`)

// HasTopLevelAwait reports whether the translated fragment contains the
// deferred-operation marker. It is a substring check, not a parse: a marker
// inside a string literal triggers the wrap too, which is harmless.
func HasTopLevelAwait(src string) bool {
	return awaitMarker.MatchString(src)
}
