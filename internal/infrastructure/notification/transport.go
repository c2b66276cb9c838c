package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/riskibarqy/game-night/internal/platform/resilience"
	"github.com/riskibarqy/game-night/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBody = 64 << 10

var errTransient = crerr.New("notification transient failure")

// jsonTransport posts JSON documents to one upstream and guards it with a circuit breaker.
type jsonTransport struct {
	name    string
	client  *http.Client
	baseURL string
	token   string
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
}

func newJSONTransport(name, baseURL, token string, timeout time.Duration, breakerCfg resilience.CircuitBreakerConfig, logger *logging.Logger) *jsonTransport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &jsonTransport{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		breaker: resilience.NewCircuitBreaker(breakerCfg),
		logger:  logger,
	}
}

// post sends payload to path and decodes a 2xx body into out when out is non-nil.
func (t *jsonTransport) post(ctx context.Context, path string, payload, out any) error {
	err := t.breaker.Execute(func() error {
		return t.do(ctx, path, payload, out)
	}, isTransient)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		t.logger.WarnContext(ctx, "circuit breaker rejected request", "upstream", t.name, "state", t.breaker.State())
		return fmt.Errorf("%w: %s is temporarily unavailable", usecase.ErrDependencyUnavailable, t.name)
	}
	return err
}

func (t *jsonTransport) do(ctx context.Context, path string, payload, out any) error {
	target, err := joinURL(t.baseURL, path)
	if err != nil {
		return crerr.Wrapf(err, "invalid %s url", t.name)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := jsoniter.NewEncoder(buf).Encode(payload); err != nil {
		return crerr.Wrapf(err, "marshal %s payload", t.name)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("notification.upstream", t.name),
			attribute.String("notification.url", target),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(buf.String()))
	if err != nil {
		return crerr.Wrapf(err, "create %s request", t.name)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w: post %s: %v", usecase.ErrDependencyUnavailable, errTransient, target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: %w: read %s response: %v", usecase.ErrDependencyUnavailable, errTransient, target, err)
	}

	if resp.StatusCode/100 != 2 {
		t.logger.WarnContext(ctx, "upstream rejected request",
			"upstream", t.name,
			"url", target,
			"status_code", resp.StatusCode,
			"body", truncate(strings.TrimSpace(string(raw)), 512),
		)
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: %w: post %s status=%d", usecase.ErrDependencyUnavailable, errTransient, target, resp.StatusCode)
		}
		return fmt.Errorf("%w: post %s status=%d", usecase.ErrDependencyUnavailable, target, resp.StatusCode)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := jsoniter.Unmarshal(raw, out); err != nil {
		return crerr.Wrapf(err, "decode %s response", t.name)
	}
	return nil
}

func joinURL(baseURL, path string) (string, error) {
	if baseURL == "" {
		return "", crerr.New("base url is empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", baseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", baseURL, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", baseURL)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL, nil
	}
	return baseURL + "/" + strings.TrimLeft(path, "/"), nil
}

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
