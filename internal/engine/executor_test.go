package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conicore/internal/domain"
)

func TestInvokeChatCompletions(t *testing.T) {
	var captured struct {
		auth string
		path string
		body map[string]interface{}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		captured.path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"INVOICE-123"}}]}`))
	}))
	defer srv.Close()

	d := ProviderDescriptor{
		ID: "hunyuan", Kind: domain.TaskOCR, Shape: ShapeChatCompletions,
		Endpoint: srv.URL, AppendChatPath: true, Model: "hy-ocr",
		Accuracy: 0.92, MaxTokens: 2000, Temperature: 0.1,
	}
	task := Task{Kind: domain.TaskOCR, Prompt: "extract text", ImageBase64: "aGVsbG8=", SystemPrompt: "You read documents."}

	result, err := NewExecutor().Invoke(context.Background(), d, task)
	require.NoError(t, err)
	assert.Equal(t, "INVOICE-123", result.Text)
	assert.Equal(t, "hunyuan", result.ProviderID)
	assert.Equal(t, 0.92, result.Accuracy)

	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Empty(t, captured.auth, "self-hosted vLLM needs no Authorization header")
	assert.Equal(t, "hy-ocr", captured.body["model"])

	messages := captured.body["messages"].([]interface{})
	require.Len(t, messages, 2)
	system := messages[0].(map[string]interface{})
	assert.Equal(t, "system", system["role"])
	user := messages[1].(map[string]interface{})
	blocks := user["content"].([]interface{})
	require.Len(t, blocks, 2)
	imageBlock := blocks[0].(map[string]interface{})
	assert.Equal(t, "image_url", imageBlock["type"])
	imageURL := imageBlock["image_url"].(map[string]interface{})
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", imageURL["url"])
}

func TestInvokeChatCompletionsBearerKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "together", Shape: ShapeChatCompletions, Endpoint: srv.URL, APIKey: "sk-test"}
	_, err := NewExecutor().Invoke(context.Background(), d, Task{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", auth)
}

func TestInvokeAnthropicMessages(t *testing.T) {
	var headers http.Header
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"reply text"}]}`))
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "claude", Shape: ShapeAnthropicMessages, Endpoint: srv.URL, Model: "claude-3", APIKey: "sk-ant"}
	result, err := NewExecutor().Invoke(context.Background(), d, Task{Prompt: "hello", SystemPrompt: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "reply text", result.Text)

	assert.Equal(t, "sk-ant", headers.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", headers.Get("anthropic-version"))
	assert.Equal(t, "be brief", body["system"])
	assert.Equal(t, float64(1024), body["max_tokens"], "max_tokens defaults when unset")
}

func TestInvokeGeminiGenerate(t *testing.T) {
	var path, key string
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"gemini says"}]}}]}`))
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "gemini", Shape: ShapeGeminiGenerate, Endpoint: srv.URL, Model: "gemini-pro", APIKey: "g-key"}
	result, err := NewExecutor().Invoke(context.Background(), d, Task{Prompt: "question", SystemPrompt: "context"})
	require.NoError(t, err)
	assert.Equal(t, "gemini says", result.Text)
	assert.Equal(t, "/gemini-pro:generateContent", path)
	assert.Equal(t, "g-key", key)

	contents := body["contents"].([]interface{})
	parts := contents[0].(map[string]interface{})["parts"].([]interface{})
	assert.Equal(t, "context\n\nquestion", parts[0].(map[string]interface{})["text"])
}

func TestInvokePaddleRESTAveragesConfidence(t *testing.T) {
	var path string
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(`{"result":{"ocrResults":[
			{"text":"line one","confidence":0.9},
			{"text":"line two","confidence":0.7}
		]}}`))
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "paddle", Shape: ShapePaddleREST, Endpoint: srv.URL, Accuracy: 0.80}
	result, err := NewExecutor().Invoke(context.Background(), d, Task{ImageBase64: "aW1n"})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", result.Text)
	assert.InDelta(t, 0.8, result.Accuracy, 1e-9, "measured average replaces the declared prior")
	assert.Equal(t, "/ocr", path)
	assert.Equal(t, "aW1n", body["file"])
	assert.Equal(t, float64(1), body["fileType"])
}

func TestInvokePaddleRESTPipelineOverride(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"result":{"ocrResults":[{"text":"cell","confidence":0.95}]}}`))
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "paddle", Shape: ShapePaddleREST, Endpoint: srv.URL}
	_, err := NewExecutor().Invoke(context.Background(), d, Task{ImageBase64: "x", PaddlePipeline: "structure"})
	require.NoError(t, err)
	assert.Equal(t, "/structure", path)
}

func TestInvokeRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "together", Shape: ShapeChatCompletions, Endpoint: srv.URL, APIKey: "k"}
	_, err := NewExecutor().Invoke(context.Background(), d, Task{Prompt: "hi"})
	require.Error(t, err)

	var ae *AttemptError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "rate limited", ae.Reason)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 17, int(rl.RetryAfter.Seconds()))
}

func TestInvokeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "p", Shape: ShapeChatCompletions, Endpoint: srv.URL, APIKey: "k"}
	_, err := NewExecutor().Invoke(context.Background(), d, Task{Prompt: "hi"})
	var ae *AttemptError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "http 502", ae.Reason)
}

func TestInvokeEmptyCompletionIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"   "}}]}`))
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "p", Shape: ShapeChatCompletions, Endpoint: srv.URL, APIKey: "k"}
	_, err := NewExecutor().Invoke(context.Background(), d, Task{Prompt: "hi"})
	var ae *AttemptError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "empty response", ae.Reason)
}

func TestInvokeMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	d := ProviderDescriptor{ID: "p", Shape: ShapeChatCompletions, Endpoint: srv.URL, APIKey: "k"}
	_, err := NewExecutor().Invoke(context.Background(), d, Task{Prompt: "hi"})
	var ae *AttemptError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "malformed response", ae.Reason)
}

func TestInvokeNetworkError(t *testing.T) {
	// Nothing listens here.
	d := ProviderDescriptor{ID: "p", Shape: ShapeChatCompletions, Endpoint: "http://127.0.0.1:1", APIKey: "k"}
	_, err := NewExecutor().Invoke(context.Background(), d, Task{Prompt: "hi"})
	var ae *AttemptError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "network error", ae.Reason)
}

func TestInvokeEndpointOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"ocrResults":[{"text":"hit","confidence":0.9}]}}`))
	}))
	defer srv.Close()

	// Descriptor has no endpoint; the caller brings their own server.
	d := ProviderDescriptor{ID: "paddle", Shape: ShapePaddleREST}
	task := Task{ImageBase64: "x", EndpointOverrides: map[string]string{"paddle": srv.URL}}
	result, err := NewExecutor().Invoke(context.Background(), d, task)
	require.NoError(t, err)
	assert.Equal(t, "hit", result.Text)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30, ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, ParseRetryAfterHeader(""))
	assert.Equal(t, 0, ParseRetryAfterHeader("Wed, 21 Oct 2026 07:28:00 GMT"))
}
