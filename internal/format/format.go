// Package format renders webhook reply bodies as chat display text. The
// endpoint may answer with plain text, a JSON string, or an arbitrarily
// nested JSON document; everything is normalized into one readable block.
package format

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// resultAliases are checked in order on a top-level JSON object; the first
// present field is treated as the reply value.
var resultAliases = []string{"result", "data", "output", "response"}

// FromBody renders a raw response body. A body that does not parse as JSON
// is returned verbatim; this is degraded success, not an error.
func FromBody(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return trimmed
	}
	return FromValue(value)
}

// FromValue renders a parsed JSON value. Input is a decoded JSON document
// and therefore acyclic, so the recursion terminates.
func FromValue(value any) string {
	if obj, ok := value.(map[string]any); ok {
		for _, alias := range resultAliases {
			if inner, ok := obj[alias]; ok {
				value = inner
				break
			}
		}
	}

	if s, ok := value.(string); ok {
		return s
	}

	var b strings.Builder
	renderValue(&b, value, 0)
	return strings.TrimRight(b.String(), "\n")
}

func renderValue(b *strings.Builder, value any, depth int) {
	switch v := value.(type) {
	case map[string]any:
		renderObject(b, v, depth)
	case []any:
		renderArray(b, v, depth)
	default:
		b.WriteString(indent(depth))
		b.WriteString(scalar(v))
		b.WriteString("\n")
	}
}

func renderObject(b *strings.Builder, obj map[string]any, depth int) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		label := titleCase(k)
		switch v := obj[k].(type) {
		case map[string]any:
			b.WriteString(indent(depth))
			b.WriteString("**" + label + "**:\n")
			renderObject(b, v, depth+1)
		case []any:
			b.WriteString(indent(depth))
			b.WriteString("**" + label + "**:\n")
			renderArray(b, v, depth+1)
		default:
			b.WriteString(indent(depth))
			b.WriteString(label + ": " + scalar(v) + "\n")
		}
	}
}

func renderArray(b *strings.Builder, arr []any, depth int) {
	for i, item := range arr {
		num := strconv.Itoa(i+1) + ". "
		switch v := item.(type) {
		case map[string]any:
			b.WriteString(indent(depth))
			b.WriteString(num + "\n")
			renderObject(b, v, depth+1)
		case []any:
			b.WriteString(indent(depth))
			b.WriteString(num + "\n")
			renderArray(b, v, depth+1)
		default:
			b.WriteString(indent(depth))
			b.WriteString(num + scalar(v) + "\n")
		}
	}
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return "-"
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		raw, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// titleCase turns snake_case, kebab-case, or camelCase keys into a readable
// label: "side_effects" and "sideEffects" both become "Side Effects".
func titleCase(key string) string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for i, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case r >= 'A' && r <= 'Z' && i > 0:
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
