package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"registrar/internal/lookup"
)

// decodeLookupPage accepts either a bare array or a paginated envelope
// {"results": [...], "next": "<url>"}.
func decodeLookupPage(body []byte) ([]map[string]json.RawMessage, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, "", fmt.Errorf("decode lookup rows: %w", err)
		}
		return rows, "", nil
	}

	var envelope struct {
		Results []map[string]json.RawMessage `json:"results"`
		Next    *string                      `json:"next"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, "", fmt.Errorf("decode lookup page: %w", err)
	}
	next := ""
	if envelope.Next != nil {
		next = *envelope.Next
	}
	return envelope.Results, next, nil
}

// decodeEntity reads id, a label field and the parent reference. Rows without
// a numeric id are skipped.
func decodeEntity(row map[string]json.RawMessage, parentKey string) (lookup.Entity, bool) {
	id, ok := decodeInt(row["id"])
	if !ok {
		return lookup.Entity{}, false
	}
	entity := lookup.Entity{ID: id}
	for _, key := range labelKeys {
		var label string
		if raw, present := row[key]; present && json.Unmarshal(raw, &label) == nil && label != "" {
			entity.Label = label
			break
		}
	}

	for _, key := range []string{"parent_id", parentKey} {
		if key == "" {
			continue
		}
		if parent, ok := decodeInt(row[key]); ok {
			entity.ParentID = &parent
			break
		}
	}
	return entity, true
}

// decodeInt accepts a JSON number, a numeric string, or an object with an id
// (nested serializers send {"id": 3, ...}).
func decodeInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		v, err := n.Int64()
		return v, err == nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return v, err == nil
	}
	var nested struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested.ID) > 0 {
		return decodeInt(nested.ID)
	}
	return 0, false
}
