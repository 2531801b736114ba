package engine

import (
	"conicore/internal/config"
	"conicore/internal/domain"
)

// Registry holds the immutable provider table, built once at startup.
// It replaces the per-handler provider tables the frontend glue used to
// redeclare with inconsistent ordering.
type Registry struct {
	providers []ProviderDescriptor
	byID      map[string]int
}

// NewRegistry builds the provider table from configuration. Registration
// order matters: it is the deterministic final tie-break during selection.
func NewRegistry(cfg *config.Config) *Registry {
	attemptTimeout := cfg.Engine.AttemptTimeoutSecs
	if attemptTimeout <= 0 {
		attemptTimeout = 8
	}

	descriptors := []ProviderDescriptor{
		{
			ID:             "hunyuan",
			Name:           "HunyuanOCR",
			Kind:           domain.TaskOCR,
			Shape:          ShapeChatCompletions,
			Endpoint:       cfg.OCR.HunyuanURL,
			AppendChatPath: true,
			Model:          cfg.OCR.HunyuanModel,
			Tags:           []string{domain.DocInvoice, domain.DocReceipt, domain.DocCard, domain.DocTable, "formula"},
			Languages:      []string{"en", "zh", "zh-CN", "zh-TW"},
			Accuracy:       0.92,
			TimeoutSecs:    attemptTimeout,
			MaxTokens:      2000,
			Temperature:    0.1,
			HealthPath:     "/health",
		},
		{
			ID:          "paddle",
			Name:        "PaddleOCR",
			Kind:        domain.TaskOCR,
			Shape:       ShapePaddleREST,
			Endpoint:    cfg.OCR.PaddleURL,
			Tags:        []string{domain.DocMultilingual, domain.DocPriceList, domain.DocGeneral, domain.DocStructure},
			Languages:   []string{"*"},
			Accuracy:    0.80,
			TimeoutSecs: attemptTimeout,
			HealthPath:  "/health",
		},
		{
			ID:          "llama",
			Name:        "LlamaVision",
			Kind:        domain.TaskOCR,
			Shape:       ShapeChatCompletions,
			Endpoint:    "https://api.together.xyz/v1/chat/completions",
			Model:       cfg.OCR.LlamaModel,
			APIKey:      togetherKey(cfg.OCR.TogetherKey),
			Tags:        []string{"fallback"},
			Languages:   []string{"en"},
			Accuracy:    0.65,
			TimeoutSecs: attemptTimeout,
			MaxTokens:   1500,
			Temperature: 0.1,
		},
		{
			ID:          "together",
			Name:        "TogetherAI",
			Kind:        domain.TaskGeneration,
			Shape:       ShapeChatCompletions,
			Endpoint:    "https://api.together.xyz/v1/chat/completions",
			Model:       cfg.AI.ChatModel,
			APIKey:      togetherKey(cfg.AI.TogetherKey),
			FreeTier:    true,
			Tags:        []string{domain.IntentChat, domain.IntentFollowup},
			Languages:   []string{"*"},
			Accuracy:    0.80,
			TimeoutSecs: attemptTimeout,
			MaxTokens:   500,
			Temperature: 0.7,
		},
		{
			ID:          "gemini",
			Name:        "Gemini",
			Kind:        domain.TaskGeneration,
			Shape:       ShapeGeminiGenerate,
			Endpoint:    "https://generativelanguage.googleapis.com/v1beta/models",
			Model:       cfg.AI.GeminiModel,
			APIKey:      cfg.AI.GeminiKey,
			Tags:        []string{domain.IntentChat, domain.IntentFollowup, domain.IntentInsights, domain.IntentRecommendations},
			Languages:   []string{"*"},
			Accuracy:    0.85,
			TimeoutSecs: attemptTimeout,
			MaxTokens:   800,
			Temperature: 0.7,
		},
		{
			ID:          "claude",
			Name:        "Claude",
			Kind:        domain.TaskGeneration,
			Shape:       ShapeAnthropicMessages,
			Endpoint:    "https://api.anthropic.com/v1/messages",
			Model:       cfg.AI.ClaudeModel,
			APIKey:      cfg.AI.AnthropicKey,
			Tags:        []string{domain.IntentChat, domain.IntentFollowup, domain.IntentInsights, domain.IntentRecommendations},
			Languages:   []string{"*"},
			Accuracy:    0.90,
			TimeoutSecs: attemptTimeout,
			MaxTokens:   1024,
			Temperature: 0.7,
		},
	}

	return newRegistry(descriptors)
}

// NewRegistryFrom builds a registry from explicit descriptors (for tests).
func NewRegistryFrom(descriptors []ProviderDescriptor) *Registry {
	return newRegistry(descriptors)
}

func newRegistry(descriptors []ProviderDescriptor) *Registry {
	byID := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		byID[d.ID] = i
	}
	return &Registry{providers: descriptors, byID: byID}
}

// togetherKey filters out the legacy sentinel so that a literal FREE_TIER
// env value does not masquerade as a real credential.
func togetherKey(key string) string {
	if key == FreeTierSentinel {
		return ""
	}
	return key
}

// Get returns the descriptor for an ID.
func (r *Registry) Get(id string) (ProviderDescriptor, bool) {
	i, ok := r.byID[id]
	if !ok {
		return ProviderDescriptor{}, false
	}
	return r.providers[i], true
}

// ListProviders returns the providers configured for a task kind, in
// registration order. Providers with no resolvable credential and no
// endpoint are excluded; unknown kinds yield an empty list.
func (r *Registry) ListProviders(kind domain.TaskKind) []ProviderDescriptor {
	return r.listFor(kind, Task{})
}

// listFor is ListProviders with per-request overrides applied: a caller
// supplied key or endpoint can make an otherwise unconfigured provider
// usable for this one request.
func (r *Registry) listFor(kind domain.TaskKind, task Task) []ProviderDescriptor {
	var out []ProviderDescriptor
	for _, d := range r.providers {
		if d.Kind != kind {
			continue
		}
		if !configuredFor(d, task) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// configuredFor reports whether a provider can actually be called.
// URL-addressed engines need an endpoint; hosted ones need a credential
// (or a free-tier sentinel).
func configuredFor(d ProviderDescriptor, task Task) bool {
	if task.endpointFor(d) == "" {
		return false
	}
	if d.Shape == ShapePaddleREST {
		// Paddle servers are unauthenticated; the endpoint is the credential.
		return true
	}
	_, ok := task.credentialFor(d)
	if !ok && d.AppendChatPath {
		// Self-hosted vLLM endpoints (hunyuan) need no API key either.
		return true
	}
	return ok
}
