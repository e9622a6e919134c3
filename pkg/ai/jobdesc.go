package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const jobDescSystemPrompt = `You write job descriptions for hiring teams. Given a role title and optional hints, write a complete job description in markdown with sections for the role summary, responsibilities, requirements, and nice-to-haves. Keep it under 500 words. Do not invent salary figures or company names.`

const jobDescTimeout = 20 * time.Second

// JobDescWriter drafts job descriptions from a role title. Unlike the
// field suggester and matcher it propagates errors: the employer is
// editing text interactively and needs to know the draft failed.
type JobDescWriter struct {
	gen TextGenerator
}

// NewJobDescWriter builds a JobDescWriter. gen may be nil when no AI
// provider is configured.
func NewJobDescWriter(gen TextGenerator) *JobDescWriter {
	return &JobDescWriter{gen: gen}
}

// Write drafts a job description for the given role title and hints.
func (w *JobDescWriter) Write(ctx context.Context, title, hints string) (string, error) {
	if w.gen == nil {
		return "", fmt.Errorf("job description generation requires an AI provider")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("role title required")
	}
	userPrompt := "Role title: " + title
	if strings.TrimSpace(hints) != "" {
		userPrompt += "\n\nHints from the hiring manager:\n" + hints
	}
	ctx, cancel := context.WithTimeout(ctx, jobDescTimeout)
	defer cancel()
	text, err := w.gen.GenerateText(ctx, jobDescSystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generate job description: %w", err)
	}
	return strings.TrimSpace(text), nil
}
