package errors

// ErrorFormat represents the target error format.
type ErrorFormat string

const (
	FormatOpenAI    ErrorFormat = "openai"
	FormatGemini    ErrorFormat = "gemini"
	FormatAnthropic ErrorFormat = "anthropic"
)

// RecoveryTag classifies an upstream failure for the selector/cooldown engine.
// It is attached to an APIError so C5 can decide retry vs freeze vs pass-through
// without re-parsing HTTP status codes at every call site.
type RecoveryTag string

const (
	RecoveryNone        RecoveryTag = ""
	RecoveryTransient    RecoveryTag = "transient"    // 408/5xx/network: try next candidate, no cooldown write
	RecoveryRateLimit    RecoveryTag = "rate_limit"    // 429: cooldown, maybe freeze
	RecoveryFreeze       RecoveryTag = "freeze"        // 402/403: persistent freeze
	RecoveryUnauthorized RecoveryTag = "unauthorized"  // 401: refresh once, then freeze
	RecoveryFatal        RecoveryTag = "fatal"         // 4xx local validation, surfaced immediately
)

// APIError represents a standardized error across upstream providers.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
	Type       string
	Details    map[string]interface{}
	Recovery   RecoveryTag
	RetryAfter int // seconds; set when the upstream or selector computed an explicit value
}

// OpenAIError mirrors OpenAI's error envelope.
type OpenAIError struct {
	Error struct {
		Message string                 `json:"message"`
		Type    string                 `json:"type"`
		Code    string                 `json:"code,omitempty"`
		Param   string                 `json:"param,omitempty"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// GeminiError mirrors Gemini Code Assist's error structure.
type GeminiError struct {
	Error struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Status  string                 `json:"status"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// AnthropicError mirrors the Anthropic Messages error envelope.
type AnthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
