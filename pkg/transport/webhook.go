package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"newsrelay/pkg/logger"
)

// WebhookSender posts rendered payloads to a configured sink URL.
// HTTP 429 maps to a RateLimitedError with the Retry-After hint; 5xx
// and network failures are transient; other non-2xx statuses are
// permanent.
type WebhookSender struct {
	URL     string
	Timeout time.Duration
	// DefaultRetryAfter is used when the sink sends 429 without a
	// Retry-After header.
	DefaultRetryAfter time.Duration

	client *fasthttp.Client
}

type webhookEnvelope struct {
	Target  string `json:"target"`
	Payload string `json:"payload"`
}

// NewWebhookSender builds a sender for the given sink URL.
func NewWebhookSender(url string, timeout, defaultRetryAfter time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if defaultRetryAfter <= 0 {
		defaultRetryAfter = 30 * time.Second
	}
	return &WebhookSender{
		URL:               url,
		Timeout:           timeout,
		DefaultRetryAfter: defaultRetryAfter,
		client:            &fasthttp.Client{},
	}
}

func (w *WebhookSender) Send(ctx context.Context, target, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := json.NewEncoder(buf).Encode(webhookEnvelope{Target: target, Payload: payload}); err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(w.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(buf.B)

	timeout := w.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	if err := w.client.DoTimeout(req, resp, timeout); err != nil {
		return &TransientError{Err: err}
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == fasthttp.StatusTooManyRequests:
		retryAfter := w.DefaultRetryAfter
		if v := string(resp.Header.Peek("Retry-After")); v != "" {
			if secs, perr := strconv.Atoi(v); perr == nil && secs >= 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		logger.Warn("sink_rate_limited", "retry_after", retryAfter.String())
		return &RateLimitedError{RetryAfter: retryAfter}
	case status >= 500:
		return &TransientError{Err: fmt.Errorf("sink returned %d", status)}
	default:
		return fmt.Errorf("sink rejected payload with status %d", status)
	}
}
