package store

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/davidahmann/lexgen/pkg/types"
)

// EncodeMetadata serializes metadata for storage. Keys are sorted and values
// are kept as decoded, nulls included, so a stored record reads back the way
// the memory store holds it.
func EncodeMetadata(m types.Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(m)); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeMetadata parses stored metadata. Absent or unreadable data decodes
// to an empty object.
func DecodeMetadata(raw string) types.Metadata {
	if strings.TrimSpace(raw) == "" {
		return types.Metadata{}
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return types.Metadata{}
	}
	return types.Metadata(m)
}
