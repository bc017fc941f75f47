package translator

// StopReason is the canonical finish-reason vocabulary every wire format
// is mapped through, so that a round trip (e.g. Anthropic -> OpenAI ->
// Anthropic) reproduces the original value (spec.md §4.6).
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopStopSequence StopReason = "stop_sequence"
	StopToolUse      StopReason = "tool_use"
)

func StopReasonFromOpenAI(reason string) StopReason {
	switch reason {
	case "length":
		return StopMaxTokens
	case "tool_calls":
		return StopToolUse
	case "stop":
		return StopEndTurn
	default:
		return StopEndTurn
	}
}

func (s StopReason) ToOpenAI() string {
	switch s {
	case StopMaxTokens:
		return "length"
	case StopToolUse:
		return "tool_calls"
	default:
		return "stop"
	}
}

func StopReasonFromGemini(reason string) StopReason {
	switch reason {
	case "MAX_TOKENS":
		return StopMaxTokens
	case "STOP":
		return StopEndTurn
	default:
		return StopEndTurn
	}
}

func (s StopReason) ToGemini() string {
	switch s {
	case StopMaxTokens:
		return "MAX_TOKENS"
	default:
		return "STOP"
	}
}

func StopReasonFromAnthropic(reason string) StopReason {
	switch reason {
	case "end_turn":
		return StopEndTurn
	case "max_tokens":
		return StopMaxTokens
	case "stop_sequence":
		return StopStopSequence
	case "tool_use":
		return StopToolUse
	default:
		return StopEndTurn
	}
}

func (s StopReason) ToAnthropic() string {
	return string(s)
}
