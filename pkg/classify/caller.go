package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
	providerOllama    = "ollama"

	// maxOutputTokens keeps the output budget tight; the required JSON
	// fits well under this.
	maxOutputTokens = 256

	callTimeout = 30 * time.Second
)

// ErrMissingAPIKey aborts classification before any network call when no
// credential can be resolved for the configured provider.
var ErrMissingAPIKey = errors.New("classify: no API key found for provider")

// CallResult is one model reply plus its token accounting.
type CallResult struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// CallFunc submits one system+user message pair to a model at temperature 0
// and returns the raw reply text with usage counts.
type CallFunc func(ctx context.Context, system, user string) (*CallResult, error)

// CallerConfig selects and configures the LLM backend.
type CallerConfig struct {
	Provider string // "openai", "anthropic", or "ollama"
	Model    string
	APIKey   string // explicit key wins over the environment
	BaseURL  string
}

// NewCaller builds a CallFunc for the configured provider. API keys resolve
// from the explicit config first, then OPENAI_API_KEY / ANTHROPIC_API_KEY.
// A missing key is a hard error (ollama excepted, it is unauthenticated).
func NewCaller(cfg CallerConfig) (CallFunc, string, error) {
	provider := strings.ToLower(cfg.Provider)
	model := cfg.Model

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = apiKeyFromEnv(provider)
	}
	if apiKey == "" && provider != providerOllama {
		return nil, "", fmt.Errorf("%w %q", ErrMissingAPIKey, provider)
	}

	switch provider {
	case providerOpenAI, "":
		if model == "" {
			model = "gpt-4o-mini"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return newOpenAICaller(apiKey, model, baseURL), model, nil

	case providerAnthropic:
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com"
		}
		return newAnthropicCaller(apiKey, model, baseURL), model, nil

	case providerOllama:
		if model == "" {
			model = "llama3.2"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return newOllamaCaller(model, baseURL), model, nil

	default:
		return nil, "", fmt.Errorf("unsupported provider: %s", provider)
	}
}

func apiKeyFromEnv(provider string) string {
	switch provider {
	case providerAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case providerOpenAI, "":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// --- OpenAI caller ---

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []openAIMessage   `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat *openAIRespFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRespFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func newOpenAICaller(apiKey, model, baseURL string) CallFunc {
	return func(ctx context.Context, system, user string) (*CallResult, error) {
		reqBody := openAIRequest{
			Model: model,
			Messages: []openAIMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Temperature:    0,
			MaxTokens:      maxOutputTokens,
			ResponseFormat: &openAIRespFormat{Type: "json_object"},
		}

		body, err := postJSON(ctx, baseURL+"/v1/chat/completions", reqBody, map[string]string{
			"Authorization": "Bearer " + apiKey,
		})
		if err != nil {
			return nil, fmt.Errorf("openai request: %w", err)
		}

		var result openAIResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("unmarshal openai response: %w", err)
		}
		if result.Error != nil {
			return nil, fmt.Errorf("openai error: %s", result.Error.Message)
		}
		if len(result.Choices) == 0 {
			return nil, errors.New("openai returned no choices")
		}

		return &CallResult{
			Text:         result.Choices[0].Message.Content,
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
		}, nil
	}
}

// --- Anthropic caller ---

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func newAnthropicCaller(apiKey, model, baseURL string) CallFunc {
	return func(ctx context.Context, system, user string) (*CallResult, error) {
		reqBody := anthropicRequest{
			Model:       model,
			MaxTokens:   maxOutputTokens,
			Temperature: 0,
			System:      system,
			Messages: []anthropicMessage{
				{Role: "user", Content: user},
			},
		}

		body, err := postJSON(ctx, baseURL+"/v1/messages", reqBody, map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": "2023-06-01",
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic request: %w", err)
		}

		var result anthropicResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("unmarshal anthropic response: %w", err)
		}
		if result.Error != nil {
			return nil, fmt.Errorf("anthropic error: %s", result.Error.Message)
		}
		if len(result.Content) == 0 {
			return nil, errors.New("anthropic returned no content")
		}

		return &CallResult{
			Text:         result.Content[0].Text,
			InputTokens:  result.Usage.InputTokens,
			OutputTokens: result.Usage.OutputTokens,
		}, nil
	}
}

// --- Ollama caller ---

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int64  `json:"prompt_eval_count"`
	EvalCount       int64  `json:"eval_count"`
	Error           string `json:"error"`
}

func newOllamaCaller(model, baseURL string) CallFunc {
	return func(ctx context.Context, system, user string) (*CallResult, error) {
		reqBody := ollamaChatRequest{
			Model: model,
			Messages: []ollamaChatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Stream:  false,
			Format:  "json",
			Options: map[string]any{"temperature": 0},
		}

		body, err := postJSON(ctx, strings.TrimRight(baseURL, "/")+"/api/chat", reqBody, nil)
		if err != nil {
			return nil, fmt.Errorf("ollama request: %w", err)
		}

		var result ollamaChatResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("unmarshal ollama response: %w", err)
		}
		if result.Error != "" {
			return nil, fmt.Errorf("ollama error: %s", result.Error)
		}

		return &CallResult{
			Text:         result.Message.Content,
			InputTokens:  result.PromptEvalCount,
			OutputTokens: result.EvalCount,
		}, nil
	}
}

func postJSON(ctx context.Context, url string, payload any, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
