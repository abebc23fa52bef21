package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

const (
	// DefaultBatchSize is the number of topics classified in parallel.
	DefaultBatchSize = 50

	// DefaultRPM is the requests-per-minute ceiling.
	DefaultRPM = 5000

	parseRetries      = 3
	parseRetryBackoff = time.Second
)

// ErrSchemaViolation marks a reply whose main_topic falls outside the
// controlled vocabulary. Terminal for the topic; nothing is written.
var ErrSchemaViolation = errors.New("classify: main_topic outside controlled vocabulary")

// Outcome is the per-topic result: either a classification or an error,
// never both.
type Outcome struct {
	TopicText      string
	Classification *plenary.TopicClassification
	Err            error
}

// Classifier assigns controlled-vocabulary labels to distinct trimmed topic
// strings with batched, rate-limited concurrent model requests.
type Classifier struct {
	call      CallFunc
	model     string
	pricing   PricingTable
	limiter   *rateLimiter
	batchSize int
	backoff   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithBatchSize sets how many topics are classified in parallel.
func WithBatchSize(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithRPM sets the requests-per-minute ceiling.
func WithRPM(rpm int) Option {
	return func(c *Classifier) { c.limiter = newRateLimiter(rpm) }
}

// WithPricing overrides the cost table.
func WithPricing(t PricingTable) Option {
	return func(c *Classifier) { c.pricing = t }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// withBackoff shrinks the retry backoff base. Test hook.
func withBackoff(d time.Duration) Option {
	return func(c *Classifier) { c.backoff = d }
}

// New creates a Classifier over the given model call.
func New(call CallFunc, model string, opts ...Option) *Classifier {
	c := &Classifier{
		call:      call,
		model:     model,
		pricing:   DefaultPricing(),
		limiter:   newRateLimiter(DefaultRPM),
		batchSize: DefaultBatchSize,
		backoff:   parseRetryBackoff,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model identifier recorded as classified_by.
func (c *Classifier) Model() string { return c.model }

// BoundarySleeps reports minute-boundary pauses taken so far. Surfaced in
// the run summary after a classification sweep. Nil-safe so dry runs can
// ask without constructing a classifier.
func (c *Classifier) BoundarySleeps() int {
	if c == nil {
		return 0
	}
	return c.limiter.BoundarySleeps()
}

// ClassifyTopic runs the full per-topic protocol for one distinct topic:
// prompt, call, JSON extraction, up to three retries with exponential
// backoff, and vocabulary validation. Cost accumulates across attempts.
func (c *Classifier) ClassifyTopic(ctx context.Context, topic string) Outcome {
	trimmed := strings.TrimSpace(topic)
	if trimmed == "" {
		return Outcome{TopicText: trimmed, Err: errors.New("classify: empty topic")}
	}

	system := systemPrompt()
	user := userPrompt(trimmed)

	var cost float64
	var lastErr error
	for attempt := 0; attempt <= parseRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.backoff<<(attempt-1)); err != nil {
				return Outcome{TopicText: trimmed, Err: err}
			}
		}
		if err := c.limiter.wait(ctx); err != nil {
			return Outcome{TopicText: trimmed, Err: err}
		}

		result, err := c.call(ctx, system, user)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{TopicText: trimmed, Err: ctx.Err()}
			}
			lastErr = err
			c.logger.Debug("model call failed", "topic", trimmed, "attempt", attempt, "error", err)
			continue
		}
		cost += c.pricing.CostForTokens(c.model, result.InputTokens, result.OutputTokens)

		parsed, err := parseReply(result.Text)
		if err != nil {
			lastErr = err
			c.logger.Debug("unparseable reply", "topic", trimmed, "attempt", attempt, "error", err)
			continue
		}

		if !ValidLabel(parsed.MainTopic) {
			// Vocabulary violations are not retried; the prompt already
			// pins temperature to 0, so the model would repeat itself.
			return Outcome{TopicText: trimmed, Err: fmt.Errorf("%w: %q", ErrSchemaViolation, parsed.MainTopic)}
		}

		classification := &plenary.TopicClassification{
			TopicText:    trimmed,
			MainTopic:    parsed.MainTopic,
			ClassifiedBy: c.model,
			ClassifiedAt: c.now().Unix(),
			Cost:         cost,
		}
		if parsed.SpecificFocus != nil {
			classification.SpecificFocus = strings.TrimSpace(*parsed.SpecificFocus)
		}
		if parsed.Confidence != nil {
			classification.Confidence = clamp01(*parsed.Confidence)
		}
		return Outcome{TopicText: trimmed, Classification: classification}
	}
	return Outcome{TopicText: trimmed, Err: fmt.Errorf("classify %q: retries exhausted: %w", trimmed, lastErr)}
}

// parseReply decodes the model reply, falling back to the first balanced
// {...} block when the reply is not valid JSON outright.
func parseReply(text string) (*response, error) {
	candidate := strings.TrimSpace(text)
	var parsed response
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		block := firstJSONBlock(candidate)
		if block == "" {
			return nil, fmt.Errorf("no JSON object in reply: %w", err)
		}
		if err := json.Unmarshal([]byte(block), &parsed); err != nil {
			return nil, fmt.Errorf("unmarshal reply block: %w", err)
		}
	}
	if parsed.MainTopic == "" {
		return nil, errors.New("reply missing main_topic")
	}
	return &parsed, nil
}

// firstJSONBlock returns the first balanced top-level {...} block in s,
// respecting string literals and escapes.
func firstJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
