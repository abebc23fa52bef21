// Package fetch retrieves plenary verbatim report documents from the
// European Parliament document portal and discovers sitting dates that have
// not been ingested yet.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/openhemicycle/hemicycle/pkg/plenary"
)

const (
	// DefaultDocumentURL is the CRE document location, with the sitting
	// date substituted for %s.
	DefaultDocumentURL = "https://www.europarl.europa.eu/doceo/document/CRE-10-%s_EN.html"

	// DefaultIndexURL lists recent sittings; candidate dates are scraped
	// from the CRE links it contains.
	DefaultIndexURL = "https://www.europarl.europa.eu/plenary/en/debates-video.html"

	// minDocumentBytes is the threshold below which a response body is
	// treated as a miss rather than a sitting document.
	minDocumentBytes = 500

	retryAttempts       = 3
	retryInitialBackoff = 2 * time.Second
)

// creDatePattern extracts sitting dates from CRE document links.
var creDatePattern = regexp.MustCompile(`CRE-\d+-(\d{4}-\d{2}-\d{2})`)

// Error is a fetch failure after retries, or a definitive upstream refusal.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client fetches sitting documents over HTTP with bounded retries.
type Client struct {
	httpClient  *http.Client
	documentURL string
	indexURL    string
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDocumentURL overrides the document URL template (one %s, the date).
func WithDocumentURL(tmpl string) Option {
	return func(c *Client) { c.documentURL = tmpl }
}

// WithIndexURL overrides the discovery index URL.
func WithIndexURL(u string) Option {
	return func(c *Client) { c.indexURL = u }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a fetch client with a 30 second request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		documentURL: DefaultDocumentURL,
		indexURL:    DefaultIndexURL,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SittingDocument fetches the verbatim report for one sitting date.
// Transient failures (5xx, network errors) are retried with exponential
// backoff; 4xx responses and bodies under 500 bytes fail immediately.
func (c *Client) SittingDocument(ctx context.Context, date time.Time) ([]byte, error) {
	url := fmt.Sprintf(c.documentURL, date.Format(plenary.DateLayout))
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(body) < minDocumentBytes {
		return nil, &Error{URL: url, Err: fmt.Errorf("document too short (%d bytes), treating as miss", len(body))}
	}
	return body, nil
}

// DiscoverNext scrapes candidate sitting dates from the upstream index,
// subtracts the known set (keyed YYYY-MM-DD), and returns the most recent
// remaining date. Returns nil when every candidate is already ingested.
// A candidate older than all known sittings is a legal result.
func (c *Client) DiscoverNext(ctx context.Context, known map[string]struct{}) (*time.Time, error) {
	body, err := c.get(ctx, c.indexURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var candidates []string
	for _, match := range creDatePattern.FindAllSubmatch(body, -1) {
		day := string(match[1])
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		if _, ingested := known[day]; ingested {
			continue
		}
		candidates = append(candidates, day)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Strings(candidates)
	latest := candidates[len(candidates)-1]
	parsed, err := time.Parse(plenary.DateLayout, latest)
	if err != nil {
		return nil, fmt.Errorf("parse discovered date %q: %w", latest, err)
	}
	c.logger.Debug("discovered sitting date", "date", latest, "candidates", len(candidates))
	return &parsed, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	delay := retryInitialBackoff
	var lastErr error

	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying fetch", "url", url, "attempt", attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &Error{URL: url, Err: ctx.Err()}
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &Error{URL: url, Err: err}
		}
		req.Header.Set("User-Agent", "hemicycle/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				lastErr = readErr
				continue
			}
			return body, nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		default:
			// 4xx is definitive, retrying will not help.
			return nil, &Error{URL: url, Status: resp.StatusCode}
		}
	}
	return nil, &Error{URL: url, Err: fmt.Errorf("retries exhausted: %w", lastErr)}
}
