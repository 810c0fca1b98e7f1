package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"healthai/internal/buckets"
	"healthai/internal/cache"
	"healthai/internal/database"
	"healthai/internal/iam"
	"healthai/internal/shared"
	"healthai/internal/watsonx"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	prompts []string
	result  *watsonx.Result
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) *watsonx.Result {
	f.prompts = append(f.prompts, prompt)
	return f.result
}

type memStore struct {
	mu   sync.Mutex
	logs []database.InferenceLog
}

func (m *memStore) SaveInferenceLogs(_ context.Context, logs []database.InferenceLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	return nil
}

func newHandler(gen watsonx.Generator, store buckets.LogStore) (*AssistantHandler, *buckets.LogBuffer) {
	log := zap.NewNop().Sugar()
	logs := buckets.NewLogBuffer(store, log)
	return NewAssistantHandler(gen, "granite", cache.NewAnswerCache(nil, 0, log), logs, log), logs
}

func TestAskWrapsInputInSectionTemplate(t *testing.T) {
	gen := &fakeGenerator{result: &watsonx.Result{Kind: watsonx.KindText, Text: "Rest and fluids."}}
	h, _ := newHandler(gen, nil)

	ans, err := h.Ask(context.Background(), AskInput{Section: "predict", Input: "fever, cough"})
	require.NoError(t, err)
	assert.True(t, ans.OK)
	assert.Equal(t, "Rest and fluids.", ans.Text)
	assert.Equal(t, "predict", ans.Section)
	assert.Equal(t, "text", ans.Outcome)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "A patient reports: fever, cough. Suggest possible conditions and actions.", gen.prompts[0])
}

func TestAskModelFailureIsAnAnswer(t *testing.T) {
	gen := &fakeGenerator{result: &watsonx.Result{Kind: watsonx.KindHTTPError, StatusCode: 404, Body: "not found"}}
	h, _ := newHandler(gen, nil)

	ans, err := h.Ask(context.Background(), AskInput{Section: "chat", Input: "hello"})
	require.NoError(t, err)
	assert.False(t, ans.OK)
	assert.Equal(t, "http_error", ans.Outcome)
	assert.Equal(t, 404, ans.StatusCode)
	assert.Contains(t, ans.Text, "404")
	assert.Contains(t, ans.Text, "not found")
}

func TestAskAuthFailureIsAnAnswer(t *testing.T) {
	gen := &fakeGenerator{result: &watsonx.Result{Kind: watsonx.KindAuthError, Err: iam.ErrMissingAccessToken}}
	h, _ := newHandler(gen, nil)

	ans, err := h.Ask(context.Background(), AskInput{Section: "treatment", Input: "asthma"})
	require.NoError(t, err)
	assert.False(t, ans.OK)
	assert.Equal(t, "auth_error", ans.Outcome)
	assert.Contains(t, ans.Text, iam.ErrMissingAccessToken.Error())
}

func TestAskRejectsBadInput(t *testing.T) {
	gen := &fakeGenerator{result: &watsonx.Result{Kind: watsonx.KindText}}
	h, _ := newHandler(gen, nil)

	cases := []struct {
		section, input string
		want           *shared.RequestError
	}{
		{"nope", "x", shared.ErrUnknownSection},
		{"home", "x", shared.ErrNoInputAccepted},
		{"chat", "  ", shared.ErrEmptyInput},
	}
	for _, tc := range cases {
		_, err := h.Ask(context.Background(), AskInput{Section: tc.section, Input: tc.input})
		var rerr *shared.RequestError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, tc.want, rerr)
	}
	assert.Empty(t, gen.prompts)
}

func TestAskRecordsInferenceLog(t *testing.T) {
	gen := &fakeGenerator{result: &watsonx.Result{Kind: watsonx.KindNoText}}
	store := &memStore{}
	h, logs := newHandler(gen, store)

	_, err := h.Ask(context.Background(), AskInput{Section: "chat", Input: "hi", RequestID: "req_1"})
	require.NoError(t, err)
	logs.Flush(context.Background())

	require.Len(t, store.logs, 1)
	got := store.logs[0]
	assert.Equal(t, "req_1", got.RequestID)
	assert.Equal(t, "chat", got.Section)
	assert.Equal(t, "granite", got.ModelID)
	assert.Equal(t, "no_text", got.Outcome)
	assert.Equal(t, len(watsonx.NoTextMessage), got.OutputChars)
	assert.False(t, got.Cached)
}

type sampledGenerator struct {
	fakeGenerator
	greedy bool
}

func (s *sampledGenerator) Deterministic() bool {
	return s.greedy
}

func TestAnswerCacheSkippedForSampledDecoding(t *testing.T) {
	log := zap.NewNop().Sugar()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer func() {
		_ = client.Close()
	}()
	answers := cache.NewAnswerCache(client, time.Minute, log)

	sampled := NewAssistantHandler(&sampledGenerator{greedy: false}, "granite", answers, nil, log)
	assert.False(t, sampled.cache.Enabled())

	greedy := NewAssistantHandler(&sampledGenerator{greedy: true}, "granite", answers, nil, log)
	assert.True(t, greedy.cache.Enabled())

	plain := NewAssistantHandler(&fakeGenerator{}, "granite", answers, nil, log)
	assert.True(t, plain.cache.Enabled())
}
