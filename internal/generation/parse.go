package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/davidahmann/lexgen/pkg/types"
)

// Outcome tags how a model response was turned into an artifact.
type Outcome string

const (
	OutcomeParsed       Outcome = "parsed"
	OutcomeFallback     Outcome = "fallback"
	OutcomeParseFailure Outcome = "parse_failure"
)

// ParseResult is the tagged result of Parse. Artifact is set for
// OutcomeParsed and OutcomeFallback; Reason explains fallback and failure.
type ParseResult struct {
	Outcome  Outcome
	Artifact types.Artifact
	Reason   string
}

var requiredKeys = []string{"solidity_code", "deploy_script", "tests", "metadata"}

// Parse turns raw model text into an artifact. Text that does not decode as
// JSON yields the fallback artifact; decoded JSON missing required structure
// yields OutcomeParseFailure.
func Parse(raw string) ParseResult {
	candidate := extractCandidate(strings.TrimSpace(raw))

	decoded, err := decodeJSON(candidate)
	if err != nil {
		return ParseResult{
			Outcome:  OutcomeFallback,
			Artifact: FallbackArtifact(),
			Reason:   err.Error(),
		}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return failure("response is not a JSON object")
	}
	for _, key := range requiredKeys {
		if _, ok := obj[key]; !ok {
			return failure("missing required field: " + key)
		}
	}

	metadata, ok := obj["metadata"].(map[string]any)
	if !ok {
		return failure("metadata must be an object")
	}

	texts := make(map[string]string, 3)
	for _, key := range requiredKeys[:3] {
		text, ok := obj[key].(string)
		if !ok {
			return failure(fmt.Sprintf("field %s must be a string", key))
		}
		texts[key] = text
	}

	return ParseResult{
		Outcome: OutcomeParsed,
		Artifact: types.Artifact{
			SolidityCode: texts["solidity_code"],
			DeployScript: texts["deploy_script"],
			Tests:        texts["tests"],
			Metadata:     types.Metadata(metadata),
		},
	}
}

func failure(reason string) ParseResult {
	return ParseResult{Outcome: OutcomeParseFailure, Reason: reason}
}

const (
	fence     = "```"
	jsonFence = "```json"
)

// extractCandidate strips markdown fences. A json-tagged fence wins and runs
// to the next fence (or end of text when unterminated); otherwise the text
// between the first and last fence is used.
func extractCandidate(text string) string {
	if i := strings.Index(text, jsonFence); i >= 0 {
		rest := text[i+len(jsonFence):]
		if end := strings.Index(rest, fence); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}

	if first := strings.Index(text, fence); first >= 0 {
		start := first + len(fence)
		last := strings.LastIndex(text, fence)
		if last < start {
			return ""
		}
		return strings.TrimSpace(text[start:last])
	}

	return text
}

func decodeJSON(candidate string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode response json: trailing data after value")
	}
	return decoded, nil
}
