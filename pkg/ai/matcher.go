package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"hireflow/pkg/domain"
)

const matchSystemPrompt = `You are an expert technical recruiter. Compare a candidate resume against a job description.

Respond with ONLY a JSON object, no prose, no markdown fences:
{"match_score": number, "strengths": [string], "weaknesses": [string], "reasoning": string}

Rules:
- match_score is an integer from 0 to 100.
- strengths and weaknesses each hold 2 to 4 short bullet phrases.
- reasoning is 2 to 3 sentences summarizing the fit.`

// FailedMatchReasoning is the reasoning recorded when scoring cannot
// produce a usable result.
const FailedMatchReasoning = "Analysis failed"

// Matcher scores a resume against a job description. It never fails:
// on any provider or parse error it returns a zero-score result with
// FailedMatchReasoning so callers can persist and display it as-is.
type Matcher struct {
	gen    TextGenerator
	logger *slog.Logger
}

// NewMatcher builds a Matcher. gen may be nil when no AI provider is
// configured; every call then yields the failed-match sentinel.
func NewMatcher(gen TextGenerator, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{gen: gen, logger: logger}
}

func failedMatch() domain.MatchResult {
	return domain.MatchResult{
		Score:      0,
		Strengths:  []string{},
		Weaknesses: []string{},
		Reasoning:  FailedMatchReasoning,
	}
}

// MatchResume scores resumeText against jobDescription.
func (m *Matcher) MatchResume(ctx context.Context, resumeText, jobDescription string) domain.MatchResult {
	if m.gen == nil {
		return failedMatch()
	}
	userPrompt := fmt.Sprintf("Job description:\n\n%s\n\nCandidate resume:\n\n%s", jobDescription, resumeText)
	raw, err := m.gen.GenerateText(ctx, matchSystemPrompt, userPrompt)
	if err != nil {
		m.logger.Warn("resume match failed", "error", err)
		return failedMatch()
	}
	result, err := parseMatchResult(raw)
	if err != nil {
		m.logger.Warn("resume match unparseable", "error", err)
		return failedMatch()
	}
	return result
}

type matchPayload struct {
	MatchScore float64  `json:"match_score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Reasoning  string   `json:"reasoning"`
}

func parseMatchResult(raw string) (domain.MatchResult, error) {
	var payload matchPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return domain.MatchResult{}, fmt.Errorf("decode match result: %w", err)
	}
	score := int(math.Round(payload.MatchScore))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	strengths := payload.Strengths
	if strengths == nil {
		strengths = []string{}
	}
	weaknesses := payload.Weaknesses
	if weaknesses == nil {
		weaknesses = []string{}
	}
	return domain.MatchResult{
		Score:      score,
		Strengths:  strengths,
		Weaknesses: weaknesses,
		Reasoning:  strings.TrimSpace(payload.Reasoning),
	}, nil
}
