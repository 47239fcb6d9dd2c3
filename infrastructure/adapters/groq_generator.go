package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/config"
	"creative-ads-pipeline/domain"
)

const generationService = "generation"

const creativeSystemPrompt = "You are a creative ads generator. Return STRICT JSON only. " +
	"No markdown, no commentary, no extra text. Output must parse as JSON."

const singleCreativeSystemPrompt = "You are a creative ads generator. Return STRICT JSON only. " +
	"No markdown, no commentary, no extra text. " +
	"Generate a single ad creative based on the specifications and user feedback."

const retrySystemSuffix = " Your previous response failed to parse. Return valid JSON only."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type groqGenerator struct {
	fetcher    ContentFetcher
	groqConfig *config.GroqConfig
	logger     outbound.LoggerPort
}

func NewGroqGenerator(fetcher ContentFetcher, groqConfig *config.GroqConfig, logger outbound.LoggerPort) outbound.CreativeGeneratorPort {
	return &groqGenerator{
		fetcher:    fetcher,
		groqConfig: groqConfig,
		logger:     logger,
	}
}

func (g *groqGenerator) GenerateCreativeSet(ctx context.Context, params outbound.GenerateCreativeSetParams) (map[string]any, error) {
	userPrompt := creativeSetPrompt(params)
	return g.generateWithRetry(ctx, creativeSystemPrompt, userPrompt, 2000)
}

func (g *groqGenerator) GenerateSingleCreative(ctx context.Context, params outbound.GenerateSingleCreativeParams) (map[string]any, error) {
	userPrompt := singleCreativePrompt(params)
	return g.generateWithRetry(ctx, singleCreativeSystemPrompt, userPrompt, 800)
}

// generateWithRetry calls the completion endpoint once at temperature 0.7
// and, if the content does not parse as JSON, exactly once more at 0.2 with
// a strict-format reminder. A second parse failure carries both errors.
func (g *groqGenerator) generateWithRetry(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (map[string]any, error) {
	if g.groqConfig.ApiKey == "" {
		return nil, &domain.ConfigurationError{Name: "GROQ_API_KEY"}
	}

	content, err := g.complete(ctx, systemPrompt, userPrompt, 0.7, maxTokens)
	if err != nil {
		return nil, err
	}
	parsed, parseErr := parseJSONObject(content)
	if parseErr == nil {
		return parsed, nil
	}

	g.logger.WarnWithFields("Generated content failed to parse, retrying once", map[string]interface{}{
		"parse_error": parseErr.Error(),
	})

	content, err = g.complete(ctx, systemPrompt+retrySystemSuffix, userPrompt, 0.2, maxTokens)
	if err != nil {
		return nil, err
	}
	parsed, retryErr := parseJSONObject(content)
	if retryErr == nil {
		return parsed, nil
	}
	return nil, fmt.Errorf("invalid JSON from model: %v / %v", parseErr, retryErr)
}

func (g *groqGenerator) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	body := chatRequest{
		Model:       g.groqConfig.Model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		g.logger.Error(err, "Failed to marshal the completion request body")
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.groqConfig.ApiUrl, bytes.NewBuffer(payload))
	if err != nil {
		g.logger.Error(err, "Failed to create the completion request")
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.groqConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	raw, err := g.fetcher.FetchContent(req, generationService)
	if err != nil {
		return "", err
	}

	var res chatResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		g.logger.Error(err, "Failed to unmarshal the completion response")
		return "", &domain.UpstreamError{Service: generationService, Message: "malformed completion response"}
	}
	if len(res.Choices) == 0 || res.Choices[0].Message.Content == "" {
		return "", &domain.UpstreamError{Service: generationService, Message: "empty response"}
	}
	return res.Choices[0].Message.Content, nil
}

func parseJSONObject(content string) (map[string]any, error) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func creativeSetPrompt(params outbound.GenerateCreativeSetParams) string {
	return strings.TrimSpace(fmt.Sprintf(`
Generate ad creatives and video prompts for the following inputs:
Persona: %[1]s
Market: %[2]s
Primary funnel focus: %[3]s

Output schema (JSON only):
{
  "set_id": "%[4]s",
  "inputs": {
    "persona": "%[1]s",
    "market": "%[2]s",
    "funnel_stage": "%[3]s"
  },
  "videos": [
    {"video_id": "V1", "prompt": "..."},
    {"video_id": "V2", "prompt": "..."},
    {"video_id": "V3", "prompt": "..."},
    {"video_id": "V4", "prompt": "..."},
    {"video_id": "V5", "prompt": "..."}
  ],
  "creatives": [
    {
      "ad_label": "A",
      "funnel_stage": "Awareness",
      "language": "EN",
      "headline": "...",
      "primary_text": "...",
      "cta": "...",
      "video_id": "V1",
      "reused": false
    }
  ]
}

Rules:
- Return STRICT JSON only. No code fences.
- Use the exact set_id shown.
- Create exactly 5 video prompts (V1-V5). Each prompt must be a distinct visual concept aligned to its funnel intent.
- Create exactly 7 creatives with labels A-G and the mapping below:
  A: Awareness, EN, uses V1
  B: Awareness, EN, uses V2
  C: Awareness, EN, uses V3
  D: Mid, EN, uses V4
  E: Mid, EN, uses V4 (copy variant)
  F: Conversion, EN, uses V5
  G: Spanish copy, ES, uses V4
- Reused flag must be true only for E and G. All others false.
- Primary text should be 1-3 short paragraphs.
- Avoid mentioning tools, models, or providers.`,
		params.Persona, params.Market, params.FunnelStage, params.SetID))
}

func singleCreativePrompt(params outbound.GenerateSingleCreativeParams) string {
	reused := params.AdLabel == "E" || params.AdLabel == "G"
	return strings.TrimSpace(fmt.Sprintf(`
Regenerate ad creative %[1]s with the following specifications:
Persona: %[2]s
Market: %[3]s
Funnel Stage: %[4]s
Language: %[5]s
Video ID: %[6]s

User feedback on the previous version: %[7]s

Return JSON:
{
  "ad_label": "%[1]s",
  "funnel_stage": "%[4]s",
  "language": "%[5]s",
  "headline": "...",
  "primary_text": "...",
  "cta": "...",
  "video_id": "%[6]s",
  "reused": %[8]t
}

Rules:
- Return STRICT JSON only. No code fences.
- Incorporate the user feedback into the new copy.
- Primary text should be 1-3 short paragraphs.
- Avoid mentioning tools, models, or providers.`,
		params.AdLabel, params.Persona, params.Market, params.FunnelStage,
		params.Language, params.VideoID, params.Feedback, reused))
}
