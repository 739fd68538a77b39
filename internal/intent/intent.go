// Package intent recovers structured JSON payloads from free-form LLM
// output. Model replies are unreliable rather than malicious: the payload may
// arrive bare, wrapped in a markdown code fence, or buried in prose. Each
// recovery stage is pure and tried in order; the first stage that yields
// valid JSON wins.
package intent

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?\\s*```")

type stage func(string) (string, bool)

var stages = []stage{
	wholeText,
	fencedText,
	braceSpan,
}

// Extract recovers the first JSON value found in raw. The boolean is false
// when no stage produced valid JSON; callers treat that as "no usable intent
// this round" and skip.
func Extract(raw string) (json.RawMessage, bool) {
	for _, stage := range stages {
		candidate, ok := stage(raw)
		if !ok {
			continue
		}
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), true
		}
	}
	return nil, false
}

// Unmarshal extracts JSON from raw and decodes it into v.
func Unmarshal(raw string, v any) bool {
	payload, ok := Extract(raw)
	if !ok {
		return false
	}
	return json.Unmarshal(payload, v) == nil
}

// wholeText accepts the reply as-is.
func wholeText(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// fencedText pulls the interior of the first markdown code fence.
func fencedText(raw string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// braceSpan takes the widest {...} span, first opening brace to last closing
// brace, so nested objects stay intact.
func braceSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
