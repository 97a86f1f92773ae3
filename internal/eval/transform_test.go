package eval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapSingleLine(t *testing.T) {
	out := WrapTopLevelAwait("await f()")
	assert.Equal(t, "(async () => { return ( await f() );\n})()", out)
}

func TestWrapDropsTrailingBlankLine(t *testing.T) {
	out := WrapTopLevelAwait("await f()\n")
	assert.Equal(t, "(async () => { return ( await f() );\n})()", out)
}

func TestWrapMultiLine(t *testing.T) {
	out := WrapTopLevelAwait("const a = await f();\na + 1")
	lines := strings.Split(out, "\n")
	assert.Equal(t, "let a;", lines[0], "const hoists as a mutable binding")
	assert.Equal(t, "(async () => { a = await f();", lines[1])
	assert.Equal(t, "return ( a + 1 );", lines[2])
	assert.Equal(t, "})()", lines[3])
}

func TestWrapHoistsDeclarations(t *testing.T) {
	out := WrapTopLevelAwait("var x = await f();\nlet y = 2;\nx + y")
	assert.Contains(t, out, "var x;\n")
	assert.Contains(t, out, "let y;\n")
	// Keywords are stripped inside the closure so initialization assigns
	// through the hoisted bindings.
	assert.Contains(t, out, "{ x = await f();")
	assert.Contains(t, out, "\ny = 2;")
	assert.NotContains(t, out, "var x = await")
	assert.NotContains(t, out, "let y = 2")
}

func TestWrapEscapedIdentifier(t *testing.T) {
	out := WrapTopLevelAwait(`let abc = await f()`)
	assert.Contains(t, out, `let abc;`)
	assert.Contains(t, out, `return ( abc = await f() );`)
}

func TestWrapBracedEscapeIdentifier(t *testing.T) {
	out := WrapTopLevelAwait(`const \u{61}bc = await f()`)
	assert.Contains(t, out, `let \u{61}bc;`, "const hoists as a mutable binding")
	assert.Contains(t, out, `return ( \u{61}bc = await f() );`)
}

func TestWrapUnicodeIdentifier(t *testing.T) {
	out := WrapTopLevelAwait("const préfixé = await f()")
	assert.Contains(t, out, "let préfixé;\n")
}

// Re-running the hoist pass over already-hoisted text must not change which
// bindings are declared.
func TestHoistIdempotentInEffect(t *testing.T) {
	once := hoistDeclarations("(async () => { var x = await f();\nreturn ( x );\n})()")
	twice := hoistDeclarations(once)

	declared := func(src string) []string {
		var names []string
		for _, m := range declPattern.FindAllStringSubmatch(src, -1) {
			names = append(names, m[2])
		}
		return names
	}
	assert.ElementsMatch(t, declared(once), declared(twice))
	assert.Contains(t, twice, "var x;")
}

func TestWrapDeclarationOnLastLine(t *testing.T) {
	// A declaration as the final expression must survive the return wrap:
	// the stripped keyword turns it into an assignment expression.
	out := WrapTopLevelAwait("var x = await f()")
	assert.Contains(t, out, "var x;\n")
	assert.Contains(t, out, "return ( x = await f() );")
}
