package eval

// renderFunctionSource is the function shipped to the remote context for the
// secondary render call. It receives the evaluated value plus the display
// options, stores the value into the remote globals, and renders it through
// the degrading inspection chain. It must return a string under every input;
// the absolute floor is "".
//
// Kept as one self-contained function expression: callFunctionOn compiles it
// in the remote context, so it can reference nothing from this process.
const renderFunctionSource = `function (v, isError, colors, annotateProxy, depth, sorted) {
	if (isError) { globalThis._error = v; } else { globalThis._ = v; }

	var C = colors
		? { num: "[33m", str: "[32m", kw: "[35m", err: "[31m", dim: "[2m", off: "[0m" }
		: { num: "", str: "", kw: "", err: "", dim: "", off: "" };

	if (v !== null && typeof v === "object" && v.name === "ResolveError") {
		var specifier = v.specifier !== undefined ? v.specifier : "<unknown>";
		var referrer = v.referrer !== undefined ? v.referrer : "<repl>";
		return C.err + "error" + C.off + ": Cannot find module '" + specifier + "' from '" + referrer + "'";
	}

	function formatError(e) {
		var head = (e.name || "Error") + (e.message ? ": " + e.message : "");
		var out = C.err + head + C.off;
		if (typeof e.stack === "string") {
			var rest = e.stack.split("\n").slice(1).join("\n");
			if (rest) { out += "\n" + C.dim + rest + C.off; }
		}
		return out;
	}
	if (v instanceof Error) { return formatError(v); }

	function inspect(x, d, seen) {
		if (x === null) { return C.kw + "null" + C.off; }
		switch (typeof x) {
		case "undefined": return C.kw + "undefined" + C.off;
		case "boolean": return C.kw + String(x) + C.off;
		case "number": return C.num + String(x) + C.off;
		case "bigint": return C.num + String(x) + "n" + C.off;
		case "string": return C.str + JSON.stringify(x) + C.off;
		case "symbol": return x.toString();
		case "function": {
			var kind = x.prototype && x.prototype.constructor === x && /^class[\s{]/.test(String(x)) ? "class" : "function";
			return C.kw + "[" + kind + " " + (x.name || "(anonymous)") + "]" + C.off;
		}
		}
		if (seen.has(x)) { return C.dim + "[circular]" + C.off; }
		if (d <= 0) { return Array.isArray(x) ? "[...]" : "{...}"; }
		seen.add(x);
		try {
			if (Array.isArray(x)) {
				var items = x.map(function (e) { return inspect(e, d - 1, seen); });
				return items.length ? "[ " + items.join(", ") + " ]" : "[]";
			}
			if (x instanceof Date) { return x.toISOString(); }
			if (x instanceof RegExp) { return String(x); }
			if (x instanceof Map) {
				var pairs = [];
				x.forEach(function (val, key) { pairs.push(inspect(key, d - 1, seen) + " => " + inspect(val, d - 1, seen)); });
				if (sorted) { pairs.sort(); }
				return "Map(" + x.size + ") {" + (pairs.length ? " " + pairs.join(", ") + " " : "") + "}";
			}
			if (x instanceof Set) {
				var members = [];
				x.forEach(function (val) { members.push(inspect(val, d - 1, seen)); });
				if (sorted) { members.sort(); }
				return "Set(" + x.size + ") {" + (members.length ? " " + members.join(", ") + " " : "") + "}";
			}
			var keys = Object.keys(x);
			if (sorted) { keys.sort(); }
			var ctor = x.constructor && x.constructor.name && x.constructor.name !== "Object" ? x.constructor.name + " " : "";
			var body = keys.map(function (k) { return k + ": " + inspect(x[k], d - 1, seen); });
			return ctor + (body.length ? "{ " + body.join(", ") + " }" : "{}");
		} finally {
			seen.delete(x);
		}
	}

	// Primary structured inspector. Proxies are transparent here, so the
	// caller decides the annotation from the value's classified subtype.
	try {
		var text = inspect(v, depth > 0 ? depth : 4, new Set());
		return annotateProxy ? "Proxy " + text : text;
	} catch (_) {}

	// Secondary: whole-value, reduced options (unlimited depth, sorted as a
	// plain boolean). Output is not guaranteed to match the primary form.
	try {
		return JSON.stringify(v, !!sorted && v !== null && typeof v === "object" ? Object.keys(v).sort() : undefined, 2) ?? String(v);
	} catch (_) {}

	// String coercion, loudly.
	try {
		console.warn("jsrepl: all structured inspection failed for this value");
		var s = "" + v;
		return typeof s === "string" ? s : "";
	} catch (_) {}

	return "";
}`
