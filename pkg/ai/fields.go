package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"hireflow/internal/util"
	"hireflow/pkg/domain"
)

const fieldSystemPrompt = `You design job application forms. Given a job description, propose the custom questions an employer should ask candidates beyond name, email and resume.

Respond with ONLY a JSON array, no prose, no markdown fences. Each element:
{"label": string, "type": "short_text"|"long_text"|"select"|"email"|"phone", "required": bool, "options": [string]}

Rules:
- 3 to 6 fields.
- "options" is present only for "select" and has 2 to 6 entries.
- Labels are phrased as questions or short prompts a candidate understands.`

// FieldSuggester produces custom form fields for a job description.
// It never fails: when the generator is absent, errors, or returns
// unparseable output, a static field set is used instead.
type FieldSuggester struct {
	gen    TextGenerator
	logger *slog.Logger
}

// NewFieldSuggester builds a FieldSuggester. gen may be nil when no AI
// provider is configured; every call then yields the static fallback.
func NewFieldSuggester(gen TextGenerator, logger *slog.Logger) *FieldSuggester {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldSuggester{gen: gen, logger: logger}
}

// SuggestFields returns suggested form fields for the job description.
// domainHint selects the fallback set ("tech", "sales", anything else
// gets the generic set) when generation is unavailable.
func (s *FieldSuggester) SuggestFields(ctx context.Context, jobDescription, domainHint string) []domain.FieldDefinition {
	if s.gen == nil || strings.TrimSpace(jobDescription) == "" {
		return FallbackFields(domainHint)
	}
	raw, err := s.gen.GenerateText(ctx, fieldSystemPrompt, "Job description:\n\n"+jobDescription)
	if err != nil {
		s.logger.Warn("field suggestion failed, using fallback", "error", err)
		return FallbackFields(domainHint)
	}
	fields := parseSuggestedFields(raw)
	if len(fields) == 0 {
		s.logger.Warn("field suggestion unparseable, using fallback")
		return FallbackFields(domainHint)
	}
	return fields
}

type suggestedField struct {
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

func parseSuggestedFields(raw string) []domain.FieldDefinition {
	var suggested []suggestedField
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &suggested); err != nil {
		return nil
	}
	fields := make([]domain.FieldDefinition, 0, len(suggested))
	for _, sf := range suggested {
		label := strings.TrimSpace(sf.Label)
		ft := domain.FieldType(strings.TrimSpace(sf.Type))
		if label == "" || !domain.ValidFieldType(ft) {
			continue
		}
		if ft == domain.FieldSelect && len(sf.Options) < 2 {
			continue
		}
		var options []string
		if ft == domain.FieldSelect {
			options = sf.Options
		}
		fields = append(fields, domain.FieldDefinition{
			ID:          util.NewID(),
			Type:        ft,
			Label:       label,
			Required:    sf.Required,
			Options:     options,
			AIGenerated: true,
		})
	}
	return fields
}

// FallbackFields returns the static field set for a domain hint.
// Unknown hints get the generic set.
func FallbackFields(domainHint string) []domain.FieldDefinition {
	var fields []domain.FieldDefinition
	switch strings.ToLower(strings.TrimSpace(domainHint)) {
	case "tech":
		fields = []domain.FieldDefinition{
			{Type: domain.FieldLongText, Label: "Describe your most significant technical project", Required: true},
			{Type: domain.FieldShortText, Label: "Link to your GitHub or portfolio", Required: false},
			{Type: domain.FieldSelect, Label: "Years of professional experience", Required: true,
				Options: []string{"0-1 years", "1-3 years", "3-5 years", "5+ years"}},
		}
	case "sales":
		fields = []domain.FieldDefinition{
			{Type: domain.FieldLongText, Label: "Describe a deal you closed from first contact to signature", Required: true},
			{Type: domain.FieldSelect, Label: "Largest annual quota you have carried", Required: true,
				Options: []string{"No quota yet", "Under $250k", "$250k to $1M", "Over $1M"}},
			{Type: domain.FieldShortText, Label: "What CRM tools have you used?", Required: false},
		}
	default:
		fields = []domain.FieldDefinition{
			{Type: domain.FieldLongText, Label: "Tell us about your relevant experience", Required: true},
			{Type: domain.FieldSelect, Label: "Years of experience", Required: true,
				Options: []string{"0-1 years", "1-3 years", "3-5 years", "5+ years"}},
		}
	}
	for i := range fields {
		fields[i].ID = util.NewID()
		fields[i].AIGenerated = true
	}
	return fields
}
