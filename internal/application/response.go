package application

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// jsonBlockPattern matches JSON inside markdown code blocks: ```json { ... } ```
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// jsonObjectPattern matches any JSON object (greedy fallback).
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	// fencePattern matches a whole response wrapped in one code fence.
	fencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_+.-]*[ \\t]*\\n(.*?)\\n?```$")
)

// ExtractJSON pulls a JSON object out of a model response that may wrap it in
// prose or a markdown code block. It returns "" when no object is present.
// Trailing commas are only stripped from objects that do not already parse.
func ExtractJSON(content string) string {
	var raw string
	if m := jsonBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = jsonObjectPattern.FindString(content)
	}
	if raw == "" || json.Valid([]byte(raw)) {
		return raw
	}
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}

// StripCodeFence removes a single markdown fence surrounding the whole
// response. Content without an enclosing fence is returned unchanged.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if m := fencePattern.FindStringSubmatch(trimmed); len(m) > 1 {
		return m[1] + "\n"
	}
	return content
}
