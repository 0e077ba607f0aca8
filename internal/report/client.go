package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/lucasnoah/scapagent/internal/logging"
	"github.com/lucasnoah/scapagent/internal/metrics"
	"github.com/lucasnoah/scapagent/internal/scan"
)

// StatusError is returned when the collector answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector returned status %d", e.Code)
	}
	return fmt.Sprintf("collector returned status %d: %s", e.Code, e.Body)
}

// Client talks to the collector API.
type Client struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
	log     *zap.Logger
}

// NewClient creates a Client for baseURL. An empty token sends no
// Authorization header.
func NewClient(baseURL, token string, timeout time.Duration, retryMax int, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("report")

	hc := retryablehttp.NewClient()
	hc.RetryMax = retryMax
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 10 * time.Second
	hc.HTTPClient.Timeout = timeout
	hc.Logger = logging.NewLeveled(log)
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    hc,
		log:     log,
	}
}

// Submit posts res to /scans.
func (c *Client) Submit(ctx context.Context, res *scan.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return c.SubmitPayload(ctx, res.ScanID, body)
}

// SubmitPayload posts an already encoded result to /scans.
func (c *Client) SubmitPayload(ctx context.Context, scanID string, body []byte) (err error) {
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ReportsTotal.WithLabelValues(status).Inc()
	}()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scans", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit %s: %w", scanID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	c.log.Info("scan results submitted", zap.String("scan_id", scanID))
	return nil
}

// Health reports whether GET /health answers 200.
func (c *Client) Health(ctx context.Context) bool {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("collector health check failed", zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
