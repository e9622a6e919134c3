package ai

import (
	"context"
	"errors"
	"testing"
)

func TestMatchResumeParsesResult(t *testing.T) {
	gen := &stubGenerator{text: "```json\n" +
		`{"match_score":82,"strengths":["Go expertise","Kubernetes"],"weaknesses":["No frontend"],"reasoning":"Strong backend fit."}` +
		"\n```"}
	m := NewMatcher(gen, nil)

	result := m.MatchResume(context.Background(), "resume text", "job description")
	if result.Score != 82 {
		t.Errorf("score = %d, want 82", result.Score)
	}
	if len(result.Strengths) != 2 || len(result.Weaknesses) != 1 {
		t.Errorf("unexpected strengths/weaknesses: %+v", result)
	}
	if result.Reasoning != "Strong backend fit." {
		t.Errorf("reasoning = %q", result.Reasoning)
	}
}

func TestMatchResumeClampsScore(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`{"match_score":150}`, 100},
		{`{"match_score":-20}`, 0},
		{`{"match_score":73.6}`, 74},
	}
	for _, tc := range cases {
		m := NewMatcher(&stubGenerator{text: tc.raw}, nil)
		result := m.MatchResume(context.Background(), "r", "jd")
		if result.Score != tc.want {
			t.Errorf("raw %s: score = %d, want %d", tc.raw, result.Score, tc.want)
		}
	}
}

func TestMatchResumeMissingFieldsDefaultEmpty(t *testing.T) {
	m := NewMatcher(&stubGenerator{text: `{"match_score":40}`}, nil)
	result := m.MatchResume(context.Background(), "r", "jd")
	if result.Strengths == nil || result.Weaknesses == nil {
		t.Error("expected non-nil empty slices")
	}
	if len(result.Strengths) != 0 || len(result.Weaknesses) != 0 || result.Reasoning != "" {
		t.Errorf("expected empty defaults, got %+v", result)
	}
}

func TestMatchResumeFailedSentinel(t *testing.T) {
	cases := map[string]*stubGenerator{
		"provider error":  {err: errors.New("timeout")},
		"malformed json":  {text: "the candidate looks great"},
		"truncated json":  {text: `{"match_score":50,"strengths":["Go`},
	}
	for name, gen := range cases {
		m := NewMatcher(gen, nil)
		result := m.MatchResume(context.Background(), "r", "jd")
		if result.Score != 0 || result.Reasoning != FailedMatchReasoning {
			t.Errorf("%s: expected failed sentinel, got %+v", name, result)
		}
		if result.Strengths == nil || result.Weaknesses == nil || len(result.Strengths) != 0 || len(result.Weaknesses) != 0 {
			t.Errorf("%s: expected empty slices, got %+v", name, result)
		}
	}
}

func TestMatchResumeNilGenerator(t *testing.T) {
	m := NewMatcher(nil, nil)
	result := m.MatchResume(context.Background(), "r", "jd")
	if result.Reasoning != FailedMatchReasoning {
		t.Errorf("expected failed sentinel, got %+v", result)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"  ```JSON\n{}\n```  ", `{}`},
	}
	for _, tc := range cases {
		if got := stripCodeFence(tc.in); got != tc.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
