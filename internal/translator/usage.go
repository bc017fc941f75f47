package translator

import "github.com/tidwall/gjson"

// Usage is the canonical token-accounting shape every wire format's usage
// block is folded into. A field a source format lacks stays zero; a field
// a target format lacks is folded into its closest equivalent (spec.md
// §4.6's "usage folding" rule) rather than dropped.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CachedReadTokens int64
	CacheWriteTokens int64
	ReasoningTokens  int64
}

func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// UsageFromOpenAI reads an OpenAI Chat Completions "usage" object.
func UsageFromOpenAI(usage gjson.Result) Usage {
	return Usage{
		InputTokens:      usage.Get("prompt_tokens").Int(),
		OutputTokens:     usage.Get("completion_tokens").Int(),
		CachedReadTokens: usage.Get("prompt_tokens_details.cached_tokens").Int(),
		ReasoningTokens:  usage.Get("completion_tokens_details.reasoning_tokens").Int(),
	}
}

// ToOpenAI renders OpenAI's usage object. Cache-write tokens have no OpenAI
// field, so they're folded into prompt_tokens (they were already billed as
// input).
func (u Usage) ToOpenAI() map[string]interface{} {
	prompt := u.InputTokens + u.CacheWriteTokens
	return map[string]interface{}{
		"prompt_tokens":     prompt,
		"completion_tokens": u.OutputTokens,
		"total_tokens":      prompt + u.OutputTokens,
		"prompt_tokens_details": map[string]interface{}{
			"cached_tokens": u.CachedReadTokens,
		},
		"completion_tokens_details": map[string]interface{}{
			"reasoning_tokens": u.ReasoningTokens,
		},
	}
}

// UsageFromGemini reads a Gemini "usageMetadata" object.
func UsageFromGemini(usage gjson.Result) Usage {
	prompt := usage.Get("promptTokenCount").Int()
	thoughts := usage.Get("thoughtsTokenCount").Int()
	return Usage{
		InputTokens:     prompt,
		OutputTokens:    usage.Get("candidatesTokenCount").Int(),
		ReasoningTokens: thoughts,
	}
}

// ToGemini renders Gemini's usageMetadata object. Cached-read tokens fold
// into promptTokenCount since Gemini has no separate cache-read field in
// the non-caching API surface this gateway targets.
func (u Usage) ToGemini() map[string]interface{} {
	prompt := u.InputTokens + u.CachedReadTokens
	return map[string]interface{}{
		"promptTokenCount":     prompt,
		"candidatesTokenCount": u.OutputTokens,
		"thoughtsTokenCount":   u.ReasoningTokens,
		"totalTokenCount":      prompt + u.OutputTokens + u.ReasoningTokens,
	}
}

// UsageFromAnthropic reads an Anthropic "usage" object.
func UsageFromAnthropic(usage gjson.Result) Usage {
	return Usage{
		InputTokens:      usage.Get("input_tokens").Int(),
		OutputTokens:     usage.Get("output_tokens").Int(),
		CachedReadTokens: usage.Get("cache_read_input_tokens").Int(),
		CacheWriteTokens: usage.Get("cache_creation_input_tokens").Int(),
	}
}

// ToAnthropic renders Anthropic's usage object. Reasoning tokens have no
// distinct Anthropic field (extended thinking is billed as output), so
// they're folded into output_tokens.
func (u Usage) ToAnthropic() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":                u.InputTokens,
		"output_tokens":               u.OutputTokens + u.ReasoningTokens,
		"cache_read_input_tokens":     u.CachedReadTokens,
		"cache_creation_input_tokens": u.CacheWriteTokens,
	}
}
