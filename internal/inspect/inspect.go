// Package inspect renders local values to human-readable text through a
// strictly degrading chain of strategies. Render never panics: whatever the
// input, the worst case is an empty string.
package inspect

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DefaultDepth bounds recursion in the structured inspector when Options.Depth
// is unset.
const DefaultDepth = 4

// Options control the structured inspector. The secondary strategy honors a
// reduced set: unlimited depth when unset, and Sorted coerced to a plain
// boolean.
type Options struct {
	Colors bool
	Depth  int
	Sorted bool

	// ShowProxies asks for proxy-subtype remote values to be annotated as
	// such. Local values are never proxies; the evaluator consumes it when
	// issuing the remote render call.
	ShowProxies bool
}

// WarnOutput receives the loud warning emitted when all structured
// inspection fails. Tests redirect it.
var WarnOutput io.Writer = os.Stderr

var (
	numberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	stringStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

func paint(s string, style lipgloss.Style, opts Options) string {
	if !opts.Colors {
		return s
	}
	return style.Render(s)
}

// Render renders v, degrading through strategies until one succeeds:
// structured inspector, whole-value formatting, string coercion, empty
// string.
func Render(v any, opts Options) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	if s, ok := structured(v, opts); ok {
		return s
	}
	if s, ok := whole(v, opts); ok {
		return s
	}
	fmt.Fprintln(WarnOutput, "jsrepl: structured inspection failed for this value; falling back to string coercion")
	if s, ok := coerce(v); ok {
		return s
	}
	return ""
}

// structured is the primary strategy: type-aware formatting with depth,
// sorting, and color options.
func structured(v any, opts Options) (out string, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = "", false
		}
	}()
	depth := opts.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	return format(reflect.ValueOf(v), v, opts, depth), true
}

func format(rv reflect.Value, v any, opts Options, depth int) string {
	switch x := v.(type) {
	case nil:
		return paint("null", keywordStyle, opts)
	case *big.Int:
		if x == nil {
			return paint("null", keywordStyle, opts)
		}
		return paint(x.String()+"n", numberStyle, opts)
	case bool:
		return paint(strconv.FormatBool(x), keywordStyle, opts)
	case string:
		return paint(strconv.Quote(x), stringStyle, opts)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}

	if !rv.IsValid() {
		return paint("null", keywordStyle, opts)
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return paint(strconv.FormatInt(rv.Int(), 10), numberStyle, opts)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return paint(strconv.FormatUint(rv.Uint(), 10), numberStyle, opts)
	case reflect.Float32, reflect.Float64:
		return paint(strconv.FormatFloat(rv.Float(), 'g', -1, 64), numberStyle, opts)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return paint("null", keywordStyle, opts)
		}
		return format(rv.Elem(), rv.Elem().Interface(), opts, depth)
	case reflect.Slice, reflect.Array:
		return formatSlice(rv, opts, depth)
	case reflect.Map:
		return formatMap(rv, opts, depth)
	case reflect.Struct:
		return formatStruct(rv, opts, depth)
	default:
		return fmt.Sprint(v)
	}
}

func formatSlice(rv reflect.Value, opts Options, depth int) string {
	if depth <= 0 {
		return "[...]"
	}
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		e := rv.Index(i)
		parts[i] = format(e, e.Interface(), opts, depth-1)
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}

func formatMap(rv reflect.Value, opts Options, depth int) string {
	if depth <= 0 {
		return "{...}"
	}
	keys := rv.MapKeys()
	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		e := rv.MapIndex(k)
		entries = append(entries, fmt.Sprintf("%v: %s", k.Interface(), format(e, e.Interface(), opts, depth-1)))
	}
	if opts.Sorted {
		sort.Strings(entries)
	}
	if len(entries) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(entries, ", ") + " }"
}

func formatStruct(rv reflect.Value, opts Options, depth int) string {
	if depth <= 0 {
		return "{...}"
	}
	t := rv.Type()
	entries := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := rv.Field(i)
		entries = append(entries, f.Name+": "+format(fv, fv.Interface(), opts, depth-1))
	}
	if opts.Sorted {
		sort.Strings(entries)
	}
	if len(entries) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(entries, ", ") + " }"
}

// whole is the secondary strategy: whole-value formatting with a reduced
// option set. Its output is not guaranteed to match the primary inspector.
func whole(v any, opts Options) (out string, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = "", false
		}
	}()
	_ = opts.Sorted // only a boolean toggle at this level; %+v key order is fixed anyway
	return fmt.Sprintf("%+v", v), true
}

// coerce is the last strategy before the floor: plain string concatenation.
func coerce(v any) (out string, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = "", false
		}
	}()
	s := fmt.Sprint(v)
	return s, true
}
