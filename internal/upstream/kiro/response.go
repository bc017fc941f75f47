package kiro

import "github.com/tidwall/gjson"

// AssistantEvent is the decoded content of one assistantResponseEvent or
// toolUseEvent frame. The exact CodeWhisperer payload schema isn't in the
// example pack; field names below follow the conventional Kiro/Q
// "assistantResponseEvent{content}" / "toolUseEvent{name,toolUseId,input}"
// shape used by community CodeWhisperer clients.
type AssistantEvent struct {
	Content    string
	ToolName   string
	ToolUseID  string
	ToolInput  string
	Stop       bool
}

// ParseAssistantEvent extracts the fields relevant to translation from one
// decoded Frame's JSON payload, dispatching on the frame's :event-type
// header.
func ParseAssistantEvent(f Frame) AssistantEvent {
	payload := f.Payload
	switch f.EventType() {
	case "toolUseEvent":
		return AssistantEvent{
			ToolName:  gjson.GetBytes(payload, "name").String(),
			ToolUseID: gjson.GetBytes(payload, "toolUseId").String(),
			ToolInput: gjson.GetBytes(payload, "input").Raw,
			Stop:      gjson.GetBytes(payload, "stop").Bool(),
		}
	case "messageMetadataEvent":
		return AssistantEvent{Stop: true}
	default: // assistantResponseEvent and anything else carrying plain text
		return AssistantEvent{Content: gjson.GetBytes(payload, "content").String()}
	}
}
