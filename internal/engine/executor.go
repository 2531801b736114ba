package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Executor performs a single provider attempt over HTTP. It builds the
// request per the provider's wire shape, applies the per-attempt timeout,
// and converts every failure mode into a typed *AttemptError. It never
// panics across its boundary.
type Executor struct {
	client *http.Client
}

// NewExecutor creates an executor with a shared HTTP client. Per-attempt
// deadlines come from the request context, not the client.
func NewExecutor() *Executor {
	return &Executor{
		client: &http.Client{},
	}
}

// Invoke calls one provider for one task. A 2xx response with an empty
// completion is a failure ("empty response"), not a success.
func (e *Executor) Invoke(ctx context.Context, d ProviderDescriptor, task Task) (*InvokeResult, error) {
	timeout := time.Duration(d.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url, headers, body, err := e.buildRequest(d, task)
	if err != nil {
		return nil, attemptErr(d.ID, "request build failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, attemptErr(d.ID, "request build failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, attemptErr(d.ID, "timeout", ctx.Err())
		}
		return nil, attemptErr(d.ID, "network error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		rl := NewRateLimitError(d.ID, fmt.Errorf("http 429"), retryAfter)
		return nil, attemptErr(d.ID, "rate limited", rl)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, attemptErr(d.ID, fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	result, err := e.extractResponse(d, resp, task)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, attemptErr(d.ID, "empty response", nil)
	}
	return result, nil
}

func (e *Executor) buildRequest(d ProviderDescriptor, task Task) (string, map[string]string, []byte, error) {
	endpoint := task.endpointFor(d)
	if endpoint == "" {
		return "", nil, nil, fmt.Errorf("no endpoint for %s", d.ID)
	}
	key, _ := task.credentialFor(d)

	switch d.Shape {
	case ShapeChatCompletions:
		return e.buildChatCompletions(d, task, endpoint, key)
	case ShapeAnthropicMessages:
		return e.buildAnthropicMessages(d, task, endpoint, key)
	case ShapeGeminiGenerate:
		return e.buildGeminiGenerate(d, task, endpoint, key)
	case ShapePaddleREST:
		return e.buildPaddleREST(d, task, endpoint)
	default:
		return "", nil, nil, fmt.Errorf("unknown request shape %q", d.Shape)
	}
}

// chatMessage is the OpenAI-compatible message. Content is a plain string
// for text-only turns and a block list when an image is attached.
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

func (e *Executor) buildChatCompletions(d ProviderDescriptor, task Task, endpoint, key string) (string, map[string]string, []byte, error) {
	url := endpoint
	if d.AppendChatPath {
		url = strings.TrimRight(endpoint, "/") + "/v1/chat/completions"
	}

	var messages []chatMessage
	if task.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: task.SystemPrompt})
	}
	switch {
	case len(task.Messages) > 0:
		for _, m := range task.Messages {
			messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
		}
	case task.ImageBase64 != "":
		messages = append(messages, chatMessage{
			Role: "user",
			Content: []map[string]interface{}{
				{"type": "image_url", "image_url": map[string]string{
					"url": "data:image/jpeg;base64," + task.ImageBase64,
				}},
				{"type": "text", "text": task.Prompt},
			},
		})
	default:
		messages = append(messages, chatMessage{Role: "user", Content: task.Prompt})
	}

	body, err := json.Marshal(chatCompletionsRequest{
		Model:       d.Model,
		Messages:    messages,
		MaxTokens:   maxTokensFor(d, task),
		Temperature: temperatureFor(d, task),
	})
	if err != nil {
		return "", nil, nil, err
	}

	headers := map[string]string{}
	if key != "" {
		headers["Authorization"] = "Bearer " + key
	}
	return url, headers, body, nil
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

func (e *Executor) buildAnthropicMessages(d ProviderDescriptor, task Task, endpoint, key string) (string, map[string]string, []byte, error) {
	var messages []chatMessage
	if len(task.Messages) > 0 {
		for _, m := range task.Messages {
			messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
		}
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: task.Prompt})
	}

	maxTokens := maxTokensFor(d, task)
	if maxTokens == 0 {
		maxTokens = 1024
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     d.Model,
		MaxTokens: maxTokens,
		System:    task.SystemPrompt,
		Messages:  messages,
	})
	if err != nil {
		return "", nil, nil, err
	}

	headers := map[string]string{
		"x-api-key":         key,
		"anthropic-version": "2023-06-01",
	}
	return endpoint, headers, body, nil
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

func (e *Executor) buildGeminiGenerate(d ProviderDescriptor, task Task, endpoint, key string) (string, map[string]string, []byte, error) {
	url := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(endpoint, "/"), d.Model)

	prompt := task.Prompt
	if task.SystemPrompt != "" {
		prompt = task.SystemPrompt + "\n\n" + prompt
	}
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     temperatureFor(d, task),
			MaxOutputTokens: maxTokensFor(d, task),
		},
	})
	if err != nil {
		return "", nil, nil, err
	}

	headers := map[string]string{"x-goog-api-key": key}
	return url, headers, body, nil
}

type paddleRequest struct {
	File     string `json:"file"`
	FileType int    `json:"fileType"`
}

func (e *Executor) buildPaddleREST(d ProviderDescriptor, task Task, endpoint string) (string, map[string]string, []byte, error) {
	pipeline := task.PaddlePipeline
	if pipeline == "" {
		pipeline = "ocr"
	}
	url := strings.TrimRight(endpoint, "/") + "/" + pipeline

	// fileType 1 means image; PDFs are out of scope here.
	body, err := json.Marshal(paddleRequest{File: task.ImageBase64, FileType: 1})
	if err != nil {
		return "", nil, nil, err
	}
	return url, nil, body, nil
}

func (e *Executor) extractResponse(d ProviderDescriptor, resp *http.Response, task Task) (*InvokeResult, error) {
	switch d.Shape {
	case ShapeChatCompletions:
		return e.extractChatCompletions(d, resp, task)
	case ShapeAnthropicMessages:
		return e.extractAnthropicMessages(d, resp, task)
	case ShapeGeminiGenerate:
		return e.extractGeminiGenerate(d, resp, task)
	case ShapePaddleREST:
		return e.extractPaddleREST(d, resp, task)
	default:
		return nil, attemptErr(d.ID, "unknown request shape", nil)
	}
}

func (e *Executor) extractChatCompletions(d ProviderDescriptor, resp *http.Response, task Task) (*InvokeResult, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, attemptErr(d.ID, "malformed response", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, attemptErr(d.ID, "empty response", nil)
	}
	return e.result(d, task, parsed.Choices[0].Message.Content, d.Accuracy), nil
}

func (e *Executor) extractAnthropicMessages(d ProviderDescriptor, resp *http.Response, task Task) (*InvokeResult, error) {
	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, attemptErr(d.ID, "malformed response", err)
	}
	if len(parsed.Content) == 0 {
		return nil, attemptErr(d.ID, "empty response", nil)
	}
	return e.result(d, task, parsed.Content[0].Text, d.Accuracy), nil
}

func (e *Executor) extractGeminiGenerate(d ProviderDescriptor, resp *http.Response, task Task) (*InvokeResult, error) {
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, attemptErr(d.ID, "malformed response", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, attemptErr(d.ID, "empty response", nil)
	}
	return e.result(d, task, parsed.Candidates[0].Content.Parts[0].Text, d.Accuracy), nil
}

func (e *Executor) extractPaddleREST(d ProviderDescriptor, resp *http.Response, task Task) (*InvokeResult, error) {
	var parsed struct {
		Result struct {
			OCRResults []struct {
				Text       string  `json:"text"`
				Confidence float64 `json:"confidence"`
			} `json:"ocrResults"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, attemptErr(d.ID, "malformed response", err)
	}

	lines := make([]string, 0, len(parsed.Result.OCRResults))
	var sum float64
	for _, r := range parsed.Result.OCRResults {
		lines = append(lines, r.Text)
		sum += r.Confidence
	}
	// Measured per-line confidence replaces the declared prior when present.
	accuracy := d.Accuracy
	if len(parsed.Result.OCRResults) > 0 {
		if avg := sum / float64(len(parsed.Result.OCRResults)); avg > 0 {
			accuracy = avg
		}
	}
	return e.result(d, task, strings.Join(lines, "\n"), accuracy), nil
}

func (e *Executor) result(d ProviderDescriptor, task Task, text string, accuracy float64) *InvokeResult {
	return &InvokeResult{
		ProviderID: d.ID,
		Model:      d.Model,
		Text:       text,
		Accuracy:   accuracy,
		Language:   task.Language,
	}
}

func maxTokensFor(d ProviderDescriptor, task Task) int {
	if task.MaxTokens > 0 {
		return task.MaxTokens
	}
	return d.MaxTokens
}

func temperatureFor(d ProviderDescriptor, task Task) float64 {
	if task.Temperature > 0 {
		return task.Temperature
	}
	return d.Temperature
}
