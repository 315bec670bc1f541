package insight

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const systemInstruction = `You are a trading journal assistant. You comment on
a personal portfolio summary: notable concentrations, realized vs unrealized
P&L, and positions that deserve a second look. You never give financial
advice, never invent numbers, and keep the whole commentary under 200 words of
plain markdown.`

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Generator produces portfolio commentary through a Gemini chat session.
type Generator struct {
	model  string
	client *genai.Client
	log    zerolog.Logger
}

// NewGenerator wraps an existing genai client.
func NewGenerator(client *genai.Client, model string, log zerolog.Logger) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		model:  model,
		client: client,
		log:    log.With().Str("component", "insight").Logger(),
	}
}

// Generate asks the model for a commentary on the portfolio context and
// returns its markdown text.
func (g *Generator) Generate(ctx context.Context, c Context) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
	chat, err := g.client.Chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create insight chat: %w", err)
	}

	prompt := c.Prompt()
	g.log.Debug().Int("positions", len(c.Positions)).Msg("requesting insight")
	resp, err := chat.Send(ctx, &genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("generate insight: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty insight response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
