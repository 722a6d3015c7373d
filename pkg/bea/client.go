// Package bea is a typed client for the Bureau of Economic Analysis data API
// (https://apps.bea.gov/api/data).
package bea

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/bea-cli/pkg/bea/codes"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://apps.bea.gov/api/data"
	// DefaultRatePerMinute is BEA's published per-key request limit.
	DefaultRatePerMinute = 100

	defaultTimeout = 60 * time.Second
	maxErrorBody   = 512
	redactedKey    = "REDACTED"
)

// Client calls the BEA API. Every method issues exactly one request; there
// are no retries.
type Client interface {
	DatasetList(ctx context.Context) (*Response[DatasetList], error)
	ParameterList(ctx context.Context, dataset codes.Dataset) (*Response[ParameterList], error)
	ParameterValues(ctx context.Context, dataset codes.Dataset, param codes.ParameterName) (*Response[ParameterValueList], error)
	ParameterValuesFiltered(ctx context.Context, dataset codes.Dataset, target codes.ParameterName, filter Options) (*Response[ParameterValueList], error)
	Data(ctx context.Context, dataset codes.Dataset, opts Options) (*Response[DataResults], error)
	// Raw returns the unparsed response body.
	Raw(ctx context.Context, method codes.Method, opts Options) ([]byte, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit paces requests to perMinute. Zero or less disables pacing.
func WithRateLimit(perMinute int) Option {
	return func(c *httpClient) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithLoadOptions passes options to the response parser.
func WithLoadOptions(opts ...LoadOption) Option {
	return func(c *httpClient) {
		c.loadOpts = append(c.loadOpts, opts...)
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	loadOpts []LoadOption
}

// NewClient creates a BEA API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/DefaultRatePerMinute), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DatasetList(ctx context.Context) (*Response[DatasetList], error) {
	body, err := c.Raw(ctx, codes.MethodGetDataSetList, Options{})
	if err != nil {
		return nil, err
	}
	return ParseDatasetList(body, c.loadOpts...)
}

func (c *httpClient) ParameterList(ctx context.Context, dataset codes.Dataset) (*Response[ParameterList], error) {
	body, err := c.Raw(ctx, codes.MethodGetParameterList, Options{Dataset: dataset})
	if err != nil {
		return nil, err
	}
	return ParseParameterList(body, c.loadOpts...)
}

func (c *httpClient) ParameterValues(ctx context.Context, dataset codes.Dataset, param codes.ParameterName) (*Response[ParameterValueList], error) {
	body, err := c.Raw(ctx, codes.MethodGetParameterValues, Options{Dataset: dataset, ParameterName: param})
	if err != nil {
		return nil, err
	}
	return ParseParameterValues(body, c.loadOpts...)
}

func (c *httpClient) ParameterValuesFiltered(ctx context.Context, dataset codes.Dataset, target codes.ParameterName, filter Options) (*Response[ParameterValueList], error) {
	filter.Dataset = dataset
	filter.TargetParameter = target
	filter.ParameterName = ""
	body, err := c.Raw(ctx, codes.MethodGetParameterValuesFiltered, filter)
	if err != nil {
		return nil, err
	}
	return ParseParameterValues(body, c.loadOpts...)
}

func (c *httpClient) Data(ctx context.Context, dataset codes.Dataset, opts Options) (*Response[DataResults], error) {
	opts.Dataset = dataset
	body, err := c.Raw(ctx, codes.MethodGetData, opts)
	if err != nil {
		return nil, err
	}
	return ParseData(body, c.loadOpts...)
}

func (c *httpClient) Raw(ctx context.Context, method codes.Method, opts Options) ([]byte, error) {
	op := "bea: " + string(method)
	// The key never appears in errors or logs.
	logURL := c.baseURL + "?" + buildQuery(redactedKey, method, opts)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newError(op, &Error{Kind: KindTransport, Key: logURL, Msg: "rate limiter wait", Err: err})
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+buildQuery(c.apiKey, method, opts), nil)
	if err != nil {
		return nil, newError(op, &Error{Kind: KindTransport, Key: logURL, Msg: "create request", Err: err})
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newError(op, &Error{Kind: KindTransport, Key: logURL, Msg: "send request", Err: redactURLError(err)})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(op, &Error{Kind: KindTransport, Key: logURL, Code: strconv.Itoa(resp.StatusCode), Msg: "read response", Err: err})
	}

	zap.L().Debug("bea: response",
		zap.String("method", string(method)),
		zap.String("dataset", string(opts.Dataset)),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newError(op, &Error{Kind: KindRateLimit, Key: logURL, Code: strconv.Itoa(resp.StatusCode),
			Msg: retryAfterMsg(resp.Header.Get("Retry-After"))})
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, newError(op, &Error{Kind: KindHTTPStatus, Key: logURL, Code: strconv.Itoa(resp.StatusCode),
			Msg: truncate(string(body), maxErrorBody)})
	}
	return body, nil
}

// redactURLError strips the request URL, which carries the key, from
// net/http errors.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func retryAfterMsg(v string) string {
	if v == "" {
		return "too many requests"
	}
	return "too many requests, retry after " + v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
