package netlinkyaml

import "strings"

// lineKind is the yaml_format_type classification of one logical line
// of YAML text (spec section 4.F encoder step 3).
type lineKind uint8

const (
	lineMapping lineKind = iota
	lineSequence
	lineFlow
	lineContinuation
	lineBlank
)

// classifyLine strips rest's leading indentation and classifies it,
// returning the indent width, the classification, and the key/value
// split (value empty when the line only opens a nested block).
func classifyLine(line string) (indent int, kind lineKind, key, value string) {
	trimmed := strings.TrimLeft(line, " ")
	indent = len(line) - len(trimmed)
	if trimmed == "" {
		return indent, lineBlank, "", ""
	}

	if strings.HasPrefix(trimmed, "- ") || trimmed == "-" {
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		if k, v, ok := splitKV(rest); ok {
			return indent, lineSequence, k, v
		}
		return indent, lineSequence, "", rest
	}

	if strings.ContainsAny(trimmed, "{[") {
		if k, v, ok := splitKV(trimmed); ok {
			return indent, lineFlow, k, v
		}
		return indent, lineFlow, "", trimmed
	}

	if k, v, ok := splitKV(trimmed); ok {
		return indent, lineMapping, k, v
	}

	return indent, lineContinuation, "", trimmed
}

// splitKV splits "key: value" or bare "key:" at the first unquoted
// ": " (or trailing ":"). ok is false when no such marker is present.
func splitKV(s string) (key, value string, ok bool) {
	if idx := strings.Index(s, ": "); idx >= 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+2:]), true
	}
	if strings.HasSuffix(s, ":") {
		return strings.TrimSpace(strings.TrimSuffix(s, ":")), "", true
	}
	return "", "", false
}

// isDocumentMarker reports whether the trimmed line is a YAML
// document boundary marker, ignored by the encoder (spec section 4.F
// encoder step 2: "ignoring --- and ... document markers").
func isDocumentMarker(trimmed string) bool {
	return trimmed == "---" || trimmed == "..."
}
