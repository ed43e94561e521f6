package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"
)

// Default tracer name for remote calls.
const defaultTracerName = "netmagis-ui/remote"

// Client issues requests relative to the application base URL.
type Client struct {
	base    *url.URL
	http    *http.Client
	cookies *Cookies
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	tracerName string
	registerer prometheus.Registerer
}

// WithHTTPClient sets the underlying HTTP client. If it has no cookie jar,
// one is installed so session cookies are still forwarded.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request. Zero (the default) means no timeout:
// a stalled backend leaves the caller waiting until its context ends.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithLogger sets the logger receiving failure reports.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(c *clientConfig) {
		c.tracerName = name
	}
}

// WithRegisterer registers the client metrics with reg.
// Without it the collectors exist but are not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// BaseURL derives the application base URL from a page URL by dropping
// everything after the final "/" (query and fragment included).
func BaseURL(page string) (*url.URL, error) {
	u, err := url.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, page)
	}

	base := *u
	base.RawQuery = ""
	base.ForceQuery = false
	base.Fragment = ""
	base.RawFragment = ""
	base.RawPath = ""
	base.Path = base.Path[:strings.LastIndex(base.Path, "/")+1]
	if base.Path == "" {
		base.Path = "/"
	}
	return &base, nil
}

// New creates a client for the application served at page.
func New(page string, opts ...Option) (*Client, error) {
	base, err := BaseURL(page)
	if err != nil {
		return nil, err
	}

	cfg := clientConfig{
		tracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("remote: cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:    base,
		http:    hc,
		cookies: &Cookies{jar: hc.Jar, base: base},
		timeout: cfg.timeout,
		logger:  logger.With("component", "remote", "base", base.String()),
		tracer:  otel.Tracer(cfg.tracerName),
		metrics: newMetrics(cfg.registerer),
	}, nil
}

// Base returns a copy of the base URL.
func (c *Client) Base() *url.URL {
	u := *c.base
	return &u
}

// Cookies returns the client-side persisted state scoped to the base path.
func (c *Client) Cookies() *Cookies {
	return c.cookies
}

// resolve turns a resource name into an absolute URL under the base.
func (c *Client) resolve(name string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(name, "/"))
	if err != nil {
		return nil, err
	}
	return c.base.ResolveReference(ref), nil
}

// fetch performs the request and returns the body of a successful response.
// The body of a response with status >= 400 is drained but never returned.
func (c *Client) fetch(ctx context.Context, verb, name string, form url.Values) ([]byte, string, error) {
	target, err := c.resolve(name)
	if err != nil {
		return nil, name, &TransportError{Verb: verb, URL: name, Err: err}
	}
	rawURL := target.String()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var payload io.Reader
	if form != nil {
		payload = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, verb, rawURL, payload)
	if err != nil {
		return nil, rawURL, &TransportError{Verb: verb, URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, rawURL, &TransportError{Verb: verb, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, rawURL, &StatusError{Verb: verb, URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rawURL, &TransportError{Verb: verb, URL: rawURL, Err: err}
	}
	return body, rawURL, nil
}

// Do issues verb on the resource name and decodes the JSON response into T.
func Do[T any](ctx context.Context, c *Client, verb, name string) (T, error) {
	var out T

	ctx, span := c.startSpan(ctx, verb, name)
	defer span.End()

	start := time.Now()
	body, rawURL, err := c.fetch(ctx, verb, name, nil)
	if err == nil {
		if uerr := json.Unmarshal(body, &out); uerr != nil {
			err = &DecodeError{URL: rawURL, Err: uerr}
		}
	}
	c.metrics.observe(name, outcome(err), time.Since(start))
	endSpan(span, err)

	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Submit posts form to the resource name. The response body is ignored;
// failures are a *TransportError or a *StatusError.
func (c *Client) Submit(ctx context.Context, name string, form url.Values) error {
	ctx, span := c.startSpan(ctx, http.MethodPost, name)
	defer span.End()

	start := time.Now()
	_, _, err := c.fetch(ctx, http.MethodPost, name, form)
	c.metrics.observe(name, outcome(err), time.Since(start))
	endSpan(span, err)
	return err
}

func (c *Client) startSpan(ctx context.Context, verb, name string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "remote "+verb+" "+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", verb),
			attribute.String("netmagis.resource", name),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	var se *StatusError
	if errors.As(err, &se) {
		span.SetAttributes(attribute.Int("http.status_code", se.StatusCode))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Call is the best-effort form of Do: on success handler receives the
// decoded payload; on failure the error is logged and handler is not called.
func Call[T any](ctx context.Context, c *Client, verb, name string, handler func(T)) {
	v, err := Do[T](ctx, c, verb, name)
	if err != nil {
		c.report(verb, name, err)
		return
	}
	if handler != nil {
		handler(v)
	}
}

// report logs a failed call according to its kind.
func (c *Client) report(verb, name string, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		c.logger.Debug("request abandoned", "verb", verb, "resource", name)
	case errors.Is(err, ErrStatus):
		var se *StatusError
		errors.As(err, &se)
		c.logger.Error("request rejected", "verb", verb, "resource", name, "status", se.StatusCode)
	case errors.Is(err, ErrDecode):
		c.logger.Error("response is not valid JSON", "verb", verb, "resource", name, "error", err)
	default:
		c.logger.Error("fetch failed", "verb", verb, "resource", name, "error", err)
	}
}
