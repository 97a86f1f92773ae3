package eval

import (
	"regexp"
	"strings"
)

// JavaScript identifiers may contain unicode escape sequences; the scan has
// to match them the way the engine's own grammar would.
const identStart = `(?:\\u\{[0-9a-fA-F]+\}|\\u[0-9a-fA-F]{4}|[$_\p{L}\p{Nl}])`
const identPart = `(?:\\u\{[0-9a-fA-F]+\}|\\u[0-9a-fA-F]{4}|[$_\p{L}\p{Nl}\p{Mn}\p{Mc}\p{Nd}\p{Pc}\x{200C}\x{200D}])`

var declPattern = regexp.MustCompile(`\b(var|let|const)\s+(` + identStart + identPart + `*)`)

// WrapTopLevelAwait rewrites a fragment that uses await at the top level so
// it becomes legal input for the remote engine: the whole fragment is
// wrapped in an immediately-invoked async closure whose last expression is
// returned, and every declaration inside is hoisted back out so bindings
// stay visible to later lines typed at the same prompt.
func WrapTopLevelAwait(src string) string {
	lines := strings.Split(src, "\n")
	if n := len(lines); n > 1 && strings.TrimSpace(lines[n-1]) == "" {
		lines = lines[:n-1]
	}
	last := len(lines) - 1
	lines[last] = "return ( " + lines[last] + " );"
	lines[0] = "(async () => { " + lines[0]
	lines = append(lines, "})()")
	return hoistDeclarations(strings.Join(lines, "\n"))
}

// hoistDeclarations pulls `var|let|const <ident>` declarations out of the
// wrapped body: a re-declaration is emitted ahead of the closure and the
// keyword is stripped inside it, so initialization still runs in the closure
// but assigns through the hoisted binding. const hoists as let: the closure
// body still writes through the wrapped scope.
func hoistDeclarations(src string) string {
	var hoisted strings.Builder
	seen := make(map[string]bool)
	body := declPattern.ReplaceAllStringFunc(src, func(m string) string {
		sub := declPattern.FindStringSubmatch(m)
		keyword, name := sub[1], sub[2]
		if !seen[name] {
			seen[name] = true
			if keyword == "const" {
				keyword = "let"
			}
			hoisted.WriteString(keyword + " " + name + ";\n")
		}
		return name
	})
	return hoisted.String() + body
}
