// Package assistant answers questions asked on one of the sections.
package assistant

import (
	"context"
	"time"

	"healthai/internal/buckets"
	"healthai/internal/cache"
	"healthai/internal/database"
	"healthai/internal/metrics"
	"healthai/internal/sections"
	"healthai/internal/watsonx"

	"go.uber.org/zap"
)

type AssistantHandler struct {
	gen     watsonx.Generator
	modelID string
	cache   *cache.AnswerCache
	logs    *buckets.LogBuffer
	log     *zap.SugaredLogger
}

// deterministic is implemented by generators that can say whether repeated
// prompts give repeated answers.
type deterministic interface {
	Deterministic() bool
}

// NewAssistantHandler wires the handler. Answers are only cached when gen
// uses greedy decoding; sampled answers are never replayed.
func NewAssistantHandler(gen watsonx.Generator, modelID string, answers *cache.AnswerCache, logs *buckets.LogBuffer, log *zap.SugaredLogger) *AssistantHandler {
	if d, ok := gen.(deterministic); ok && !d.Deterministic() && answers.Enabled() {
		log.Info("Answer cache disabled for sampled decoding")
		answers = nil
	}
	return &AssistantHandler{
		gen:     gen,
		modelID: modelID,
		cache:   answers,
		logs:    logs,
		log:     log,
	}
}

type AskInput struct {
	Section   string
	Input     string
	RequestID string
	Log       *zap.SugaredLogger
}

// Answer is what the user sees. OK is false whenever Text is an error or
// warning message rather than model output.
type Answer struct {
	Section    string `json:"section"`
	Outcome    string `json:"outcome"`
	OK         bool   `json:"ok"`
	Text       string `json:"text"`
	Cached     bool   `json:"cached"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Ask returns an error only for bad input (a *shared.RequestError). Model and
// identity failures come back as an Answer with OK false.
func (h *AssistantHandler) Ask(ctx context.Context, in AskInput) (*Answer, error) {
	log := in.Log
	if log == nil {
		log = h.log
	}

	section, err := sections.Lookup(in.Section)
	if err != nil {
		return nil, err
	}
	prompt, err := section.Prompt(in.Input)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	answer := &Answer{Section: string(section.ID)}

	if text, ok := h.cache.Get(ctx, h.modelID, prompt); ok {
		answer.Outcome = watsonx.KindText.String()
		answer.OK = true
		answer.Text = text
		answer.Cached = true
	} else {
		res := h.gen.Generate(ctx, prompt)
		answer.Outcome = res.Kind.String()
		answer.OK = res.OK()
		answer.Text = res.Display()
		answer.StatusCode = res.StatusCode
		if res.OK() {
			h.cache.Set(ctx, h.modelID, prompt, res.Text)
		} else {
			log.Warnw("Question not answered", "section", section.ID, "outcome", answer.Outcome, "error", res.Err)
		}
	}

	metrics.SectionRequests.WithLabelValues(answer.Section, answer.Outcome).Inc()
	h.logs.Add(database.InferenceLog{
		RequestID:   in.RequestID,
		Section:     answer.Section,
		ModelID:     h.modelID,
		Outcome:     answer.Outcome,
		StatusCode:  answer.StatusCode,
		PromptChars: len(prompt),
		OutputChars: len(answer.Text),
		TotalTime:   time.Since(start),
		Cached:      answer.Cached,
		CreatedAt:   start,
	})
	return answer, nil
}
