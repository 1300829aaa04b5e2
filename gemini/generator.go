// Package gemini implements qagen.Generator using Google Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/qagen"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for Q&A generation.
const DefaultModel = "gemini-2.5-flash"

// DefaultQuestionsPerSegment is how many pairs the model is asked to
// produce per segment.
const DefaultQuestionsPerSegment = 5

// DefaultMinConfidence filters out pairs the model itself scores as
// uncertain.
const DefaultMinConfidence = 0.7

// systemInstruction steers the model toward machine-parseable output.
const systemInstruction = "You are an expert at creating question-answer pairs " +
	"from software documentation. Always respond with a pure JSON object, " +
	"without any markdown formatting or code blocks."

// Ensure Generator implements qagen.Generator at compile time.
var _ qagen.Generator = (*Generator)(nil)

// Generator produces question/answer pairs for segments using Gemini.
type Generator struct {
	client        *genai.Client
	model         string
	questions     int
	minConfidence float64

	// call performs one model invocation and returns the raw output
	// text. Swapped out in tests.
	call func(ctx context.Context, prompt string) (string, error)
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithModel sets the Gemini model. Defaults to DefaultModel.
func WithModel(model string) GeneratorOption {
	return func(g *Generator) {
		g.model = model
	}
}

// WithQuestionsPerSegment sets how many pairs to request per segment.
func WithQuestionsPerSegment(n int) GeneratorOption {
	return func(g *Generator) {
		g.questions = n
	}
}

// WithMinConfidence sets the confidence threshold below which pairs are
// discarded.
func WithMinConfidence(score float64) GeneratorOption {
	return func(g *Generator) {
		g.minConfidence = score
	}
}

// NewGenerator creates a new Generator.
func NewGenerator(client *genai.Client, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:        client,
		model:         DefaultModel,
		questions:     DefaultQuestionsPerSegment,
		minConfidence: DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.call = g.modelCall
	return g
}

// Generate produces validated question/answer pairs for the segment.
// Malformed model output is retried once with a stricter prompt before
// EINVALIDRESPONSE is returned. Pairs failing validation or scoring
// below the confidence threshold are dropped silently.
func (g *Generator) Generate(ctx context.Context, seg qagen.Segment) ([]qagen.QAPair, error) {
	if strings.TrimSpace(seg.Text) == "" {
		return nil, qagen.Errorf(qagen.EINVALID, "empty segment text")
	}

	pairs, err := g.generate(ctx, BuildPrompt(seg.Text, g.questions, false))
	if qagen.ErrorCode(err) == qagen.EINVALIDRESPONSE {
		pairs, err = g.generate(ctx, BuildPrompt(seg.Text, g.questions, true))
	}
	if err != nil {
		return nil, err
	}

	kept := pairs[:0]
	for _, p := range pairs {
		p.SourceURL = seg.SourceURL
		p.SegmentIndex = seg.Index
		if p.Confidence < g.minConfidence {
			continue
		}
		if p.Validate() != nil {
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

// generate performs one model call and parses its output.
func (g *Generator) generate(ctx context.Context, prompt string) ([]qagen.QAPair, error) {
	text, err := g.call(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseResponse(text)
}

// modelCall invokes the Gemini API once and returns the raw output text.
func (g *Generator) modelCall(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", classifyServiceError(err)
	}
	if result == nil {
		return "", qagen.Errorf(qagen.EINTERNAL, "gemini returned nil result")
	}
	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.7)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature: &temp,
	}
}

// BuildPrompt builds the generation prompt for a segment. The strict
// variant is used after the model returns unparseable output.
func BuildPrompt(text string, questions int, strict bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the following content, create %d question-answer pairs. ", questions)
	sb.WriteString("Return only a pure JSON object without any markdown formatting or code blocks, using this exact structure:\n")
	sb.WriteString(`{"qa_pairs": [` + "\n")
	sb.WriteString(`    {"question": "<question text>",` + "\n")
	sb.WriteString(`     "answer": "<answer text>",` + "\n")
	sb.WriteString(`     "confidence_score": 0.95,` + "\n")
	sb.WriteString(`     "category": "<category>"}` + "\n")
	sb.WriteString("]}\n")
	if strict {
		sb.WriteString("\nYour previous output was not valid JSON. Respond with nothing but the JSON object: no prose, no code fences, no language tags.\n")
	}
	sb.WriteString("\nContent:\n")
	sb.WriteString(text)
	return sb.String()
}

// qaPairJSON mirrors the structure the model is instructed to return.
type qaPairJSON struct {
	Question        string  `json:"question"`
	Answer          string  `json:"answer"`
	ConfidenceScore float64 `json:"confidence_score"`
	Category        string  `json:"category"`
}

// ParseResponse parses the model's output into pairs. Returns
// EINVALIDRESPONSE when the output is not the expected JSON shape.
func ParseResponse(text string) ([]qagen.QAPair, error) {
	cleaned := CleanJSON(text)

	var payload struct {
		QAPairs []qaPairJSON `json:"qa_pairs"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, qagen.Errorf(qagen.EINVALIDRESPONSE, "malformed generator output: %v", err)
	}
	if payload.QAPairs == nil {
		return nil, qagen.Errorf(qagen.EINVALIDRESPONSE, "generator output missing qa_pairs")
	}

	pairs := make([]qagen.QAPair, 0, len(payload.QAPairs))
	for _, p := range payload.QAPairs {
		pairs = append(pairs, qagen.QAPair{
			Question:   p.Question,
			Answer:     p.Answer,
			Confidence: p.ConfidenceScore,
			Category:   p.Category,
		})
	}
	return pairs, nil
}

// CleanJSON strips markdown code fences and a leading "json" language
// tag that models sometimes wrap around their output despite
// instructions.
func CleanJSON(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	content = strings.TrimSpace(strings.Join(kept, "\n"))
	content = strings.TrimSpace(strings.TrimPrefix(content, "json"))
	return content
}

// classifyServiceError maps Gemini API failures onto generation error
// codes so the coordinator can apply the right retry policy.
func classifyServiceError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return qagen.Errorf(qagen.ERATELIMITED, "gemini rate limited: %s", apiErr.Message)
		case apiErr.Code == 401 || apiErr.Code == 403:
			return qagen.Errorf(qagen.EUNAUTHORIZED, "gemini rejected credentials: %s", apiErr.Message)
		case apiErr.Code >= 500:
			return qagen.Errorf(qagen.EUNAVAILABLE, "gemini unavailable: %s", apiErr.Message)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429"):
		return qagen.Errorf(qagen.ERATELIMITED, "gemini rate limited: %v", err)
	case strings.Contains(msg, "UNAUTHENTICATED") || strings.Contains(msg, "PERMISSION_DENIED") || strings.Contains(msg, "API key"):
		return qagen.Errorf(qagen.EUNAUTHORIZED, "gemini rejected credentials: %v", err)
	case strings.Contains(msg, "UNAVAILABLE") || strings.Contains(msg, "overloaded") || strings.Contains(msg, "503"):
		return qagen.Errorf(qagen.EUNAVAILABLE, "gemini unavailable: %v", err)
	}
	return err
}
