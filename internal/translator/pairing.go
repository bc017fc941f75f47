package translator

import (
	"fmt"
)

// SanitizeToolPairing repairs tool_use/tool_result pairing across an
// Anthropic-shaped message history so every tool_use block has a matching
// tool_result in the following message and vice versa. messages is a slice
// of maps with "role" and "content" ([]interface{} of block maps) keys,
// mutated and returned in place.
//
// Rules: tool_use blocks with an empty or missing id get a stable
// synthetic one, propagated to the matching tool_result; tool_result
// blocks with no matching tool_use in the prior assistant turn are
// dropped, with their text folded into the nearest user text block;
// tool_use blocks with no matching tool_result in the following turn are
// dropped.
func SanitizeToolPairing(messages []interface{}) []interface{} {
	idCounter := 0
	nextID := func() string {
		idCounter++
		return fmt.Sprintf("toolu_synth_%d", idCounter)
	}

	// Pass 1: assign stable ids to tool_use blocks lacking one.
	knownUseIDs := map[string]bool{}
	for _, raw := range messages {
		msg, ok := raw.(map[string]interface{})
		if !ok || msg["role"] != "assistant" {
			continue
		}
		blocks, _ := msg["content"].([]interface{})
		for _, b := range blocks {
			block, ok := b.(map[string]interface{})
			if !ok || block["type"] != "tool_use" {
				continue
			}
			id, _ := block["id"].(string)
			if id == "" {
				id = nextID()
				block["id"] = id
			}
			knownUseIDs[id] = true
		}
	}

	// Pass 2: drop tool_result blocks with no matching tool_use, folding
	// their text into the adjacent user text instead.
	for _, raw := range messages {
		msg, ok := raw.(map[string]interface{})
		if !ok || msg["role"] != "user" {
			continue
		}
		blocks, _ := msg["content"].([]interface{})
		if blocks == nil {
			continue
		}
		var kept []interface{}
		for _, b := range blocks {
			block, ok := b.(map[string]interface{})
			if !ok || block["type"] != "tool_result" {
				kept = append(kept, b)
				continue
			}
			id, _ := block["tool_use_id"].(string)
			if knownUseIDs[id] {
				kept = append(kept, b)
				continue
			}
			if text := extractToolResultText(block); text != "" {
				kept = append(kept, map[string]interface{}{
					"type": "text",
					"text": text,
				})
			}
		}
		msg["content"] = kept
	}

	// Pass 3: drop tool_use blocks with no following tool_result.
	resultIDs := map[string]bool{}
	for _, raw := range messages {
		msg, ok := raw.(map[string]interface{})
		if !ok || msg["role"] != "user" {
			continue
		}
		blocks, _ := msg["content"].([]interface{})
		for _, b := range blocks {
			block, ok := b.(map[string]interface{})
			if !ok || block["type"] != "tool_result" {
				continue
			}
			if id, _ := block["tool_use_id"].(string); id != "" {
				resultIDs[id] = true
			}
		}
	}
	for _, raw := range messages {
		msg, ok := raw.(map[string]interface{})
		if !ok || msg["role"] != "assistant" {
			continue
		}
		blocks, _ := msg["content"].([]interface{})
		if blocks == nil {
			continue
		}
		var kept []interface{}
		for _, b := range blocks {
			block, ok := b.(map[string]interface{})
			if ok && block["type"] == "tool_use" {
				id, _ := block["id"].(string)
				if !resultIDs[id] {
					continue
				}
			}
			kept = append(kept, b)
		}
		msg["content"] = kept
	}

	return messages
}

func extractToolResultText(block map[string]interface{}) string {
	switch content := block["content"].(type) {
	case string:
		return content
	case []interface{}:
		for _, item := range content {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok && t != "" {
				return t
			}
		}
	}
	return ""
}

// PlaceholderToolDefinitions synthesizes minimal tool definitions for tool
// names referenced by tool_use blocks in history but absent from the
// current request's tool list, so providers that validate tool_use against
// a declared schema don't reject replayed history.
func PlaceholderToolDefinitions(messages []interface{}, declared []interface{}) []interface{} {
	known := map[string]bool{}
	for _, raw := range declared {
		if t, ok := raw.(map[string]interface{}); ok {
			if name, _ := t["name"].(string); name != "" {
				known[name] = true
			}
		}
	}

	seen := map[string]bool{}
	var extra []interface{}
	for _, raw := range messages {
		msg, ok := raw.(map[string]interface{})
		if !ok || msg["role"] != "assistant" {
			continue
		}
		blocks, _ := msg["content"].([]interface{})
		for _, b := range blocks {
			block, ok := b.(map[string]interface{})
			if !ok || block["type"] != "tool_use" {
				continue
			}
			name, _ := block["name"].(string)
			if name == "" || known[name] || seen[name] {
				continue
			}
			seen[name] = true
			extra = append(extra, map[string]interface{}{
				"name":        name,
				"description": "placeholder tool definition synthesized for replayed history",
				"input_schema": map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{},
				},
			})
		}
	}
	return append(declared, extra...)
}
