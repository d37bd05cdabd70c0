package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize is the maximum allowed response size from a marketplace API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ClientOptions are the outbound request settings shared by all adapters
type ClientOptions struct {
	HTTPClient    *http.Client
	Timeout       time.Duration
	Retry         RetryPolicy
	RatePerSecond float64
	Burst         int
	Logger        *zap.Logger
	Metrics       *telemetry.Metrics
}

// DefaultClientOptions returns a 20s timeout, DefaultRetryPolicy and 5 req/s
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:       20 * time.Second,
		Retry:         DefaultRetryPolicy,
		RatePerSecond: 5,
		Burst:         5,
	}
}

// apiClient performs JSON requests for one platform with rate limiting,
// bounded retries and uniform error mapping.
type apiClient struct {
	platform marketplace.Platform
	http     *http.Client
	limiter  *rate.Limiter
	retry    RetryPolicy
	logger   *zap.Logger
	metrics  *telemetry.Metrics
}

func newAPIClient(platform marketplace.Platform, opts ClientOptions) *apiClient {
	defaults := DefaultClientOptions()
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaults.Timeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = defaults.Retry
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &apiClient{
		platform: platform,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		retry:    opts.Retry,
		logger:   logger.With(zap.String("platform", string(platform))),
		metrics:  opts.Metrics,
	}
}

// apiRequest describes one marketplace call
type apiRequest struct {
	Operation string
	Method    string
	URL       string
	Headers   map[string]string
	Body      any
}

// apiResponse holds a successful (HTTP < 400) response
type apiResponse struct {
	Status int
	Body   []byte
}

// Decode unmarshals the body into v, mapping failures to ErrInvalidResponse
func (r *apiResponse) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("%w: empty body", marketplace.ErrInvalidResponse)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", marketplace.ErrInvalidResponse, err)
	}
	return nil
}

// do sends the request, retrying transient failures under the retry policy
func (c *apiClient) do(ctx context.Context, req apiRequest) (*apiResponse, error) {
	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", c.platform, err)
		}
	}

	ctx, span := telemetry.StartSpan(ctx, "marketplace", req.Operation,
		attribute.String("marketplace.platform", string(c.platform)),
		attribute.String("http.method", req.Method),
	)
	defer span.End()

	start := time.Now()
	var resp *apiResponse
	attempt := 0
	err := Do(ctx, c.retry, func(ctx context.Context) error {
		attempt++
		r, err := c.send(ctx, req, payload)
		if err != nil && IsRetryable(err) {
			c.logger.Warn("Marketplace request failed, will retry if attempts remain",
				zap.String("operation", req.Operation),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		resp = r
		return err
	})
	c.metrics.ObserveAdapterRequest(string(c.platform), req.Operation, time.Since(start))
	span.SetAttributes(attribute.Int("marketplace.attempts", attempt))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (c *apiClient) send(ctx context.Context, req apiRequest, payload []byte) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limiter: %w", c.platform, err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", c.platform, err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", marketplace.ErrPlatformUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", marketplace.ErrPlatformUnavailable, err)
	}

	switch {
	case httpResp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d: %s", marketplace.ErrPlatformUnavailable, httpResp.StatusCode, truncate(respBody, 512))
	case httpResp.StatusCode >= 400:
		return nil, newRejection(c.platform, httpResp.StatusCode, respBody)
	}
	return &apiResponse{Status: httpResp.StatusCode, Body: respBody}, nil
}

// newRejection builds a RejectionError from whatever error shape the body carries
func newRejection(platform marketplace.Platform, status int, body []byte) *marketplace.RejectionError {
	code, message := extractError(body)
	if message == "" {
		message = strings.TrimSpace(string(truncate(body, 1024)))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &marketplace.RejectionError{Platform: platform, Status: status, Code: code, Message: message}
}

// errorEnvelope covers the error bodies of all three platforms:
// {"code","message"}, {"error":true,"errorText"} and
// {"status":"ERROR","errors":[{"code","message"}]}.
type errorEnvelope struct {
	Code      json.RawMessage `json:"code"`
	Message   string          `json:"message"`
	Error     json.RawMessage `json:"error"`
	ErrorText string          `json:"errorText"`
	Status    string          `json:"status"`
	Errors    []struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"errors"`
}

// extractError returns the platform's own error code and text, verbatim
func extractError(body []byte) (code, message string) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", ""
	}
	switch {
	case len(env.Errors) > 0:
		parts := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			parts = append(parts, e.Message)
		}
		return rawString(env.Errors[0].Code), strings.Join(parts, "; ")
	case env.ErrorText != "":
		return rawString(env.Code), env.ErrorText
	case env.Message != "":
		return rawString(env.Code), env.Message
	default:
		if s := rawString(env.Error); s != "" && s != "true" && s != "false" {
			return rawString(env.Code), s
		}
	}
	return "", ""
}

// rawString renders a JSON string or number without quotes
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// hasBodyError reports an application error inside an HTTP 2xx body
func hasBodyError(body []byte) bool {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	if strings.EqualFold(env.Status, "ERROR") || len(env.Errors) > 0 {
		return true
	}
	if v, err := strconv.ParseBool(rawString(env.Error)); err == nil && v {
		return true
	}
	return rawString(env.Code) != "" && env.Message != ""
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// notConfigured wraps ErrNotConfigured with the missing setting names
func notConfigured(platform marketplace.Platform, missing ...string) error {
	return fmt.Errorf("%w: %s requires %s", marketplace.ErrNotConfigured, platform, strings.Join(missing, ", "))
}

// isConflict reports an HTTP 409 rejection
func isConflict(err error) bool {
	var rej *marketplace.RejectionError
	return errors.As(err, &rej) && rej.Status == http.StatusConflict
}

// flexString decodes a JSON string or number into its text form.
// Marketplace ids switch between the two across API versions.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	*s = flexString(rawString(data))
	return nil
}

func (s flexString) String() string {
	return string(s)
}

// lineQuantity reads an order line quantity. Platforms omit it, or send 0,
// for single-unit lines.
func lineQuantity(q *int) int {
	if q == nil || *q == 0 {
		return 1
	}
	return *q
}

// webhookSet remembers callback URLs already registered on a platform
type webhookSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

func (w *webhookSet) has(url string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.urls[url]
	return ok
}

func (w *webhookSet) add(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.urls == nil {
		w.urls = make(map[string]struct{})
	}
	w.urls[url] = struct{}{}
}

// chunk splits items into batches of at most size elements
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) <= size {
		return [][]T{items}
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

// maxPages guards paging loops against a platform that never ends a listing
const maxPages = 500
