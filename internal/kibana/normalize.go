package kibana

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AgentRow is the flattened view of one agent record.
type AgentRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Field spellings vary between service versions; each lookup walks its
// candidates in order and keeps the first usable value. The orders are
// load-bearing, do not reorder them.
var (
	agentIDKeys   = []string{"id", "agent_id", "uuid"}
	agentNameKeys = []string{"name", "title", "display_name"}
	agentDescKeys = []string{"description", "summary"}

	assistantTextKeys = []string{"response", "output", "text", "message", "answer"}
)

func firstField(m map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if s == "" {
				continue
			}
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// FormatAgentRow extracts id, name and description from a raw agent record.
// Missing fields degrade to defaults; it never fails.
func FormatAgentRow(agent any) AgentRow {
	m, ok := agent.(map[string]any)
	if !ok {
		return AgentRow{Name: "(unnamed)"}
	}

	row := AgentRow{
		ID:          firstField(m, agentIDKeys),
		Name:        firstField(m, agentNameKeys),
		Description: firstField(m, agentDescKeys),
	}
	if row.Name == "" {
		row.Name = "(unnamed)"
	}
	return row
}

// ExtractAssistantText pulls a best-effort assistant reply out of a converse
// payload: first the known top-level keys, then the most recent entry of a
// messages list, and as a last resort the full JSON serialization so nothing
// is silently dropped.
func ExtractAssistantText(resp any) string {
	if m, ok := resp.(map[string]any); ok {
		for _, key := range assistantTextKeys {
			if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
		if msgs, ok := m["messages"].([]any); ok {
			for i := len(msgs) - 1; i >= 0; i-- {
				entry, ok := msgs[i].(map[string]any)
				if !ok {
					continue
				}
				if content, ok := entry["content"].(string); ok && strings.TrimSpace(content) != "" {
					return content
				}
			}
		}
	}

	dump, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf("%v", resp)
	}
	return string(dump)
}

// AssistantMessage returns the nested response.message string if the payload
// has one.
func AssistantMessage(resp any) (string, bool) {
	m, ok := resp.(map[string]any)
	if !ok {
		return "", false
	}
	nested, ok := m["response"].(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := nested["message"].(string)
	return msg, ok
}

// ConversationID returns the payload's top-level conversation id, or "".
func ConversationID(resp any) string {
	m, ok := resp.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["conversation_id"].(string)
	return id
}
