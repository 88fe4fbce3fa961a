package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlink/llm"
)

func TestProvidersRegistered(t *testing.T) {
	for _, name := range []string{"ollama", "openai", "anthropic"} {
		assert.NotNil(t, llm.GetProvider(name), name)
	}
}

func TestOllamaBuildURL(t *testing.T) {
	p := &OllamaProvider{}
	assert.Equal(t, "http://localhost:11434/v1/chat/completions", p.BuildURL(""))
	assert.Equal(t, "http://vllm:8000/v1/chat/completions", p.BuildURL("http://vllm:8000/v1/"))
	assert.Equal(t, "http://x/v1/chat/completions", p.BuildURL("http://x/v1/chat/completions"))
}

func TestOpenAIBuildURL(t *testing.T) {
	p := &OpenAIProvider{}
	t.Setenv("OPENAI_BASE_URL", "")
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", p.BuildURL(""))

	t.Setenv("OPENAI_BASE_URL", "https://openrouter.ai/api/v1")
	assert.Equal(t, "https://openrouter.ai/api/v1/chat/completions", p.BuildURL(""))
	// Explicit endpoint URL wins over the environment.
	assert.Equal(t, "http://local/v1/chat/completions", p.BuildURL("http://local/v1"))
}

func TestAnthropicBuildURL(t *testing.T) {
	p := &AnthropicProvider{}
	assert.Equal(t, "https://api.anthropic.com/v1/messages", p.BuildURL(""))
	assert.Equal(t, "https://proxy/v1/messages", p.BuildURL("https://proxy/"))
}

func TestOllamaBuildRequestBody(t *testing.T) {
	p := &OllamaProvider{}
	temp := 0.1
	body, err := p.BuildRequestBody("qwen2.5:14b", []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, &temp, 0)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "qwen2.5:14b", parsed["model"])
	assert.Equal(t, 0.1, parsed["temperature"])
	assert.NotContains(t, parsed, "max_tokens", "unset max_tokens is omitted")
	msgs := parsed["messages"].([]any)
	require.Len(t, msgs, 2)
}

func TestOllamaBuildRequestBody_NilTemperature(t *testing.T) {
	p := &OllamaProvider{}
	body, err := p.BuildRequestBody("m", []llm.Message{{Role: "user", Content: "x"}}, nil, 256)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.NotContains(t, parsed, "temperature")
	assert.Equal(t, float64(256), parsed["max_tokens"])
}

func TestOllamaParseResponse(t *testing.T) {
	p := &OllamaProvider{}
	resp, err := p.ParseResponse([]byte(`{
		"model": "qwen2.5:14b",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "remaining useful life"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 100, "completion_tokens": 5, "total_tokens": 105}
	}`), "qwen2.5:14b")
	require.NoError(t, err)

	assert.Equal(t, "remaining useful life", resp.Content)
	assert.Equal(t, "qwen2.5:14b", resp.Model)
	assert.Equal(t, 105, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)

	_, err = p.ParseResponse([]byte(`{"choices": []}`), "m")
	assert.Error(t, err, "no choices")

	_, err = p.ParseResponse([]byte(`not json`), "m")
	assert.Error(t, err)
}

func TestAnthropicBuildRequestBody(t *testing.T) {
	p := &AnthropicProvider{}
	body, err := p.BuildRequestBody("claude-3-5-haiku", []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, nil, 0)
	require.NoError(t, err)

	var parsed struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    string `json:"system"`
		Messages  []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "be brief", parsed.System, "system message is lifted out of the message list")
	assert.Equal(t, 4096, parsed.MaxTokens, "default max_tokens applies")
	require.Len(t, parsed.Messages, 1)
	assert.Equal(t, "user", parsed.Messages[0].Role)
}

func TestAnthropicParseResponse(t *testing.T) {
	p := &AnthropicProvider{}
	resp, err := p.ParseResponse([]byte(`{
		"model": "claude-3-5-haiku",
		"content": [{"type": "text", "text": "remaining "}, {"type": "text", "text": "useful life"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 80, "output_tokens": 6}
	}`), "claude-3-5-haiku")
	require.NoError(t, err)

	assert.Equal(t, "remaining useful life", resp.Content)
	assert.Equal(t, 86, resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.FinishReason)
}

func TestAnthropicHeaders(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	req, err := http.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil)
	require.NoError(t, err)

	(&AnthropicProvider{}).SetHeaders(req)
	assert.Equal(t, "test-key", req.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, req.Header.Get("anthropic-version"))
}
