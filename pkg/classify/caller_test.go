package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewCaller", func() {
	BeforeEach(func() {
		origOpenAI := os.Getenv("OPENAI_API_KEY")
		origAnthropic := os.Getenv("ANTHROPIC_API_KEY")
		DeferCleanup(func() {
			_ = os.Setenv("OPENAI_API_KEY", origOpenAI)
			_ = os.Setenv("ANTHROPIC_API_KEY", origAnthropic)
		})
		_ = os.Setenv("OPENAI_API_KEY", "")
		_ = os.Setenv("ANTHROPIC_API_KEY", "")
	})

	It("fails before any network call when no key is configured", func() {
		_, _, err := NewCaller(CallerConfig{Provider: "openai"})
		Expect(errors.Is(err, ErrMissingAPIKey)).To(BeTrue())

		_, _, err = NewCaller(CallerConfig{Provider: "anthropic"})
		Expect(errors.Is(err, ErrMissingAPIKey)).To(BeTrue())
	})

	It("does not require a key for ollama", func() {
		call, model, err := NewCaller(CallerConfig{Provider: "ollama"})
		Expect(err).NotTo(HaveOccurred())
		Expect(call).NotTo(BeNil())
		Expect(model).To(Equal("llama3.2"))
	})

	It("fills in the default model per provider", func() {
		_, model, err := NewCaller(CallerConfig{Provider: "openai", APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(model).To(Equal("gpt-4o-mini"))

		_, model, err = NewCaller(CallerConfig{Provider: "anthropic", APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(model).To(Equal("claude-haiku-4-5-20251001"))
	})

	It("prefers the explicit key over the environment", func() {
		_ = os.Setenv("OPENAI_API_KEY", "")
		_, _, err := NewCaller(CallerConfig{Provider: "openai", APIKey: "explicit"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects unknown providers", func() {
		_, _, err := NewCaller(CallerConfig{Provider: "mistral", APIKey: "k"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("openai caller", func() {
	It("sends system and user messages at temperature 0 and parses usage", func() {
		var got openAIRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())

			_, _ = w.Write([]byte(`{
				"choices": [{"message": {"content": "{\"main_topic\": \"Health\"}"}}],
				"usage": {"prompt_tokens": 420, "completion_tokens": 17}
			}`))
		}))
		defer srv.Close()

		call, _, err := NewCaller(CallerConfig{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL})
		Expect(err).NotTo(HaveOccurred())

		result, err := call(context.Background(), "system text", "user text")
		Expect(err).NotTo(HaveOccurred())

		Expect(got.Temperature).To(BeZero())
		Expect(got.Messages).To(HaveLen(2))
		Expect(got.Messages[0].Role).To(Equal("system"))
		Expect(got.Messages[1].Content).To(Equal("user text"))
		Expect(got.ResponseFormat.Type).To(Equal("json_object"))

		Expect(result.Text).To(ContainSubstring("Health"))
		Expect(result.InputTokens).To(Equal(int64(420)))
		Expect(result.OutputTokens).To(Equal(int64(17)))
	})

	It("surfaces API errors", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
		}))
		defer srv.Close()

		call, _, err := NewCaller(CallerConfig{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = call(context.Background(), "s", "u")
		Expect(err).To(MatchError(ContainSubstring("model overloaded")))
	})
})

var _ = Describe("anthropic caller", func() {
	It("sends the system prompt in the system field with versioned headers", func() {
		var got anthropicRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/v1/messages"))
			Expect(r.Header.Get("x-api-key")).To(Equal("test-key"))
			Expect(r.Header.Get("anthropic-version")).To(Equal("2023-06-01"))
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())

			_, _ = w.Write([]byte(`{
				"content": [{"type": "text", "text": "{\"main_topic\": \"Health\"}"}],
				"usage": {"input_tokens": 300, "output_tokens": 20}
			}`))
		}))
		defer srv.Close()

		call, _, err := NewCaller(CallerConfig{Provider: "anthropic", APIKey: "test-key", BaseURL: srv.URL})
		Expect(err).NotTo(HaveOccurred())

		result, err := call(context.Background(), "system text", "user text")
		Expect(err).NotTo(HaveOccurred())

		Expect(got.System).To(Equal("system text"))
		Expect(got.Messages).To(HaveLen(1))
		Expect(got.Temperature).To(BeZero())

		Expect(result.InputTokens).To(Equal(int64(300)))
		Expect(result.OutputTokens).To(Equal(int64(20)))
	})
})

var _ = Describe("ollama caller", func() {
	It("requests JSON format and parses eval counts", func() {
		var got ollamaChatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/chat"))
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())

			_, _ = w.Write([]byte(`{
				"message": {"content": "{\"main_topic\": \"Health\"}"},
				"prompt_eval_count": 250,
				"eval_count": 30
			}`))
		}))
		defer srv.Close()

		call, _, err := NewCaller(CallerConfig{Provider: "ollama", BaseURL: srv.URL})
		Expect(err).NotTo(HaveOccurred())

		result, err := call(context.Background(), "s", "u")
		Expect(err).NotTo(HaveOccurred())

		Expect(got.Format).To(Equal("json"))
		Expect(got.Stream).To(BeFalse())
		Expect(result.InputTokens).To(Equal(int64(250)))
		Expect(result.OutputTokens).To(Equal(int64(30)))
	})
})
