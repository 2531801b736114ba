package engine

import (
	"conicore/internal/domain"
)

// RequestShape selects the wire format the executor uses for a provider.
type RequestShape string

const (
	ShapeChatCompletions   RequestShape = "chat_completions"
	ShapeAnthropicMessages RequestShape = "anthropic_messages"
	ShapeGeminiGenerate    RequestShape = "gemini_generate"
	ShapePaddleREST        RequestShape = "paddle_rest"
)

// FreeTierSentinel is the placeholder credential for providers that accept
// unauthenticated free-tier calls.
const FreeTierSentinel = "FREE_TIER"

// ProviderDescriptor is the static, immutable description of one provider.
// Descriptors are built once at startup and never mutated.
type ProviderDescriptor struct {
	ID    string
	Name  string
	Kind  domain.TaskKind
	Shape RequestShape

	// Endpoint is the base URL for URL-addressed engines (hunyuan, paddle)
	// or the full API URL for hosted ones. AppendChatPath adds the
	// /v1/chat/completions suffix for vLLM-style servers.
	Endpoint       string
	AppendChatPath bool
	Model          string

	// APIKey is the credential resolved from the environment at startup.
	// FreeTier providers stay selectable without one.
	APIKey   string
	FreeTier bool

	Tags      []string
	Languages []string // "*" entry means all languages
	Accuracy  float64

	TimeoutSecs int
	MaxTokens   int
	Temperature float64

	// HealthPath, when set, is probed by the readiness check.
	HealthPath string
}

// SupportsLanguage reports whether the provider covers the given language code.
// A "*" entry is a wildcard; an empty language always matches.
func (d ProviderDescriptor) SupportsLanguage(lang string) bool {
	if lang == "" {
		return true
	}
	for _, l := range d.Languages {
		if l == "*" || l == lang {
			return true
		}
	}
	return false
}

// HasTag reports whether the provider carries the given capability tag.
func (d ProviderDescriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Task describes one request routed through the fallback engine.
// Tasks are transient; a fresh one is built per incoming request.
type Task struct {
	Kind         domain.TaskKind
	DocumentType string
	Language     string
	Intent       string

	// ForceProvider bypasses selection heuristics. An explicit operator
	// choice is not second-guessed: no fallback chain in force mode.
	ForceProvider string

	Prompt       string
	SystemPrompt string
	ImageBase64  string // raw base64, without a data-URL prefix
	Messages     []domain.ChatMessage

	MaxTokens   int
	Temperature float64

	// APIKey is a caller-supplied credential. It outranks the environment.
	APIKey string
	// EndpointOverrides maps provider ID to a caller-supplied base URL
	// (users can bring their own OCR server).
	EndpointOverrides map[string]string

	// PaddlePipeline selects the PaddleOCR pipeline ("ocr" or "structure").
	PaddlePipeline string
}

// endpointFor returns the effective base URL for a provider, honoring
// caller overrides.
func (t Task) endpointFor(d ProviderDescriptor) string {
	if url, ok := t.EndpointOverrides[d.ID]; ok && url != "" {
		return url
	}
	return d.Endpoint
}

// credentialFor resolves the effective credential for a provider:
// request-supplied, then environment (resolved at startup), then the
// free-tier sentinel. The final false means unconfigured.
func (t Task) credentialFor(d ProviderDescriptor) (string, bool) {
	if t.APIKey != "" {
		return t.APIKey, true
	}
	if d.APIKey != "" {
		return d.APIKey, true
	}
	if d.FreeTier {
		return FreeTierSentinel, true
	}
	return "", false
}

// InvokeResult is the normalized outcome of one successful provider call.
type InvokeResult struct {
	ProviderID string
	Model      string
	Text       string
	// Accuracy is the provider's declared prior, replaced by a measured
	// average when the engine reports per-line confidence (PaddleOCR).
	Accuracy float64
	Language string
}
