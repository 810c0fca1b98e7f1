// Package iam exchanges an IBM Cloud API key for a bearer token and keeps it
// for the life of the process.
package iam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"healthai/internal/metrics"
	"healthai/internal/shared"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	// ErrMissingAccessToken is returned when the identity service answers 200
	// without an access_token field.
	ErrMissingAccessToken = errors.New("identity response has no access_token")
	// ErrIdentityStatus is returned for any non-200 identity response.
	ErrIdentityStatus = errors.New("identity service returned an error status")
	// ErrIdentityRequest covers transport and decode failures.
	ErrIdentityRequest = errors.New("identity request failed")
)

type Config struct {
	URL    string
	APIKey string
}

// tokenResponse holds the fields we read from the identity service.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenCache fetches a token on first use and returns the same token on every
// later call. Expiry is recorded but never acted on.
type TokenCache struct {
	cfg    Config
	client *http.Client
	log    *zap.SugaredLogger

	mu    sync.Mutex
	token *oauth2.Token
}

func NewTokenCache(cfg Config, client *http.Client, log *zap.SugaredLogger) *TokenCache {
	if cfg.URL == "" {
		cfg.URL = shared.DefaultIAMURL
	}
	if client == nil {
		client = &http.Client{Timeout: shared.DefaultHTTPTimeout}
	}
	return &TokenCache{cfg: cfg, client: client, log: log}
}

// GetOrFetch returns the memoized token, performing the exchange if no token
// has been obtained yet. The lock is held across the exchange so concurrent
// first callers share one request. Failures are not memoized.
func (t *TokenCache) GetOrFetch(ctx context.Context) (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != nil {
		return t.token, nil
	}

	token, err := t.fetch(ctx)
	if err != nil {
		var merr *shared.MetricsError
		code := "unknown"
		if errors.As(err, &merr) {
			code = merr.Code
		}
		metrics.TokenFetches.WithLabelValues("error").Inc()
		metrics.ErrorCount.WithLabelValues("iam", code).Inc()
		t.log.Warnw("Failed to obtain access token", "error", err)
		return nil, err
	}

	metrics.TokenFetches.WithLabelValues("success").Inc()
	t.log.Infow("Obtained access token", "token_type", token.TokenType, "expiry", token.Expiry)
	t.token = token
	return token, nil
}

func (t *TokenCache) fetch(ctx context.Context) (*oauth2.Token, error) {
	data := url.Values{}
	data.Set("grant_type", shared.IAMAPIKeyGrant)
	data.Set("apikey", t.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.Join(ErrIdentityRequest, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrIdentityRequest, shared.ErrFailedTokenReq, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrIdentityRequest, shared.ErrFailedTokenReq, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Join(
			fmt.Errorf("%w: %d - %s", ErrIdentityStatus, resp.StatusCode, strings.TrimSpace(string(body))),
			shared.ErrFailedTokenReqFromCode,
		)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, errors.Join(ErrIdentityRequest, shared.ErrFailedTokenReq, err)
	}
	if tr.AccessToken == "" {
		return nil, errors.Join(ErrMissingAccessToken, shared.ErrMissingTokenField)
	}

	token := &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
	}
	if tr.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return token, nil
}
