package watsonx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"healthai/internal/metrics"
	"healthai/internal/shared"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// TokenSource supplies the bearer token attached to each request.
type TokenSource interface {
	GetOrFetch(ctx context.Context) (*oauth2.Token, error)
}

// Generator turns a prompt into a Result.
type Generator interface {
	Generate(ctx context.Context, prompt string) *Result
}

type Client struct {
	cfg      Config
	endpoint string
	tokens   TokenSource
	http     *http.Client
	log      *zap.SugaredLogger
}

func NewClient(cfg Config, tokens TokenSource, httpClient *http.Client, log *zap.SugaredLogger) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: shared.DefaultHTTPTimeout}
	}
	return &Client{
		cfg:      cfg,
		endpoint: endpoint,
		tokens:   tokens,
		http:     httpClient,
		log:      log.With("model_id", cfg.ModelID),
	}, nil
}

func (c *Client) ModelID() string {
	return c.cfg.ModelID
}

// Deterministic reports whether the same prompt always yields the same text.
func (c *Client) Deterministic() bool {
	return c.cfg.Decoding.Method == DecodingGreedy
}

// Generate performs a single POST for prompt. It never returns nil and never
// retries; failures are reported through the Result kind.
func (c *Client) Generate(ctx context.Context, prompt string) *Result {
	start := time.Now()
	res := c.generate(ctx, prompt)
	outcome := res.Kind.String()

	metrics.InferenceDuration.WithLabelValues(c.cfg.ModelID, outcome).Observe(time.Since(start).Seconds())
	metrics.InferenceCount.WithLabelValues(c.cfg.ModelID, outcome).Inc()
	if !res.OK() {
		var merr *shared.MetricsError
		code := outcome
		if errors.As(res.Err, &merr) {
			code = merr.Code
		}
		metrics.ErrorCount.WithLabelValues("watsonx", code).Inc()
		c.log.Warnw("Inference did not return text",
			"outcome", outcome,
			"status_code", res.StatusCode,
			"body", shared.Truncate(res.Body, 512),
			"error", res.Err,
			"duration", time.Since(start).String(),
		)
	}
	return res
}

func (c *Client) generate(ctx context.Context, prompt string) *Result {
	token, err := c.tokens.GetOrFetch(ctx)
	if err != nil {
		return &Result{Kind: KindAuthError, Err: err}
	}

	body, err := c.cfg.BuildRequest(prompt)
	if err != nil {
		return &Result{Kind: KindTransportError, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Result{Kind: KindTransportError, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)

	res, err := c.http.Do(req)
	if err != nil {
		return &Result{Kind: KindTransportError, Err: errors.Join(shared.ErrFailedModelReq, err)}
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			c.log.Warnw("Failed to close response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return &Result{Kind: KindTransportError, StatusCode: res.StatusCode, Err: errors.Join(shared.ErrFailedReadingResponse, err)}
	}

	if res.StatusCode != http.StatusOK {
		return &Result{
			Kind:       KindHTTPError,
			StatusCode: res.StatusCode,
			Body:       string(raw),
			Err:        shared.ErrFailedModelReqFromCode,
		}
	}

	text, ok := extractText(raw)
	if !ok {
		return &Result{Kind: KindNoText, StatusCode: res.StatusCode, Body: string(raw), Err: shared.ErrMissingGeneratedText}
	}
	return &Result{Kind: KindText, Text: text, StatusCode: res.StatusCode}
}
