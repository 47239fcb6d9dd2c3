package mock_upstreams

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/domain"
)

var (
	setIDPattern   = regexp.MustCompile(`"set_id": "([^"]+)"`)
	personaPattern = regexp.MustCompile(`Persona: (.+)`)
	marketPattern  = regexp.MustCompile(`Market: (.+)`)
	focusPattern   = regexp.MustCompile(`Primary funnel focus: (.+)`)
	singlePattern  = regexp.MustCompile(`Regenerate ad creative ([A-G])`)
	stagePattern   = regexp.MustCompile(`Funnel Stage: (.+)`)
	langPattern    = regexp.MustCompile(`Language: (.+)`)
	videoPattern   = regexp.MustCompile(`Video ID: (.+)`)
)

type MockGenerationController interface {
	ChatCompletions(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type mockGenerationController struct {
	logger outbound.LoggerPort
}

func NewMockGenerationController(logger outbound.LoggerPort) MockGenerationController {
	return &mockGenerationController{logger: logger}
}

// ChatCompletions answers the completion endpoint with a deterministic,
// contract-valid payload derived from the prompt itself, so the real
// validator passes against it.
func (m *mockGenerationController) ChatCompletions(c *gin.Context) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(400, gin.H{"error": err.Error()})
		return
	}

	var prompt string
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			prompt = msg.Content
		}
	}

	var payload any
	if match := singlePattern.FindStringSubmatch(prompt); match != nil {
		payload = singleCreativeFromPrompt(match[1], prompt)
	} else {
		payload = creativeSetFromPrompt(prompt)
	}

	content, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error(err, "failed to marshal the mock payload")
		c.AbortWithStatusJSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"choices": []gin.H{
			{"message": gin.H{"content": string(content)}},
		},
	})
}

func firstMatch(pattern *regexp.Regexp, prompt string) string {
	if match := pattern.FindStringSubmatch(prompt); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

func creativeSetFromPrompt(prompt string) map[string]any {
	setID := firstMatch(setIDPattern, prompt)
	persona := firstMatch(personaPattern, prompt)
	market := firstMatch(marketPattern, prompt)
	focus := firstMatch(focusPattern, prompt)

	videos := make([]map[string]any, 0, 5)
	for i := 1; i <= 5; i++ {
		videos = append(videos, map[string]any{
			"video_id": fmt.Sprintf("V%d", i),
			"prompt":   fmt.Sprintf("Visual concept %d for %s in %s", i, persona, market),
		})
	}

	creatives := make([]map[string]any, 0, 7)
	for _, label := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		row := domain.ExpectedMapping[label]
		stage := row.FunnelStage
		if stage == "" {
			stage = domain.MidStage
		}
		creatives = append(creatives, map[string]any{
			"ad_label":     label,
			"funnel_stage": string(stage),
			"language":     string(row.Language),
			"headline":     fmt.Sprintf("Headline %s for %s", label, persona),
			"primary_text": fmt.Sprintf("Primary text %s aimed at %s shoppers.", label, market),
			"cta":          "Shop now",
			"video_id":     row.VideoID,
			"reused":       row.Reused,
		})
	}

	return map[string]any{
		"set_id": setID,
		"inputs": map[string]any{
			"persona":      persona,
			"market":       market,
			"funnel_stage": focus,
		},
		"videos":    videos,
		"creatives": creatives,
	}
}

func singleCreativeFromPrompt(label, prompt string) map[string]any {
	row := domain.ExpectedMapping[label]
	stage := firstMatch(stagePattern, prompt)
	if stage == "" {
		stage = string(domain.MidStage)
	}
	language := firstMatch(langPattern, prompt)
	if language == "" {
		language = string(row.Language)
	}
	videoID := firstMatch(videoPattern, prompt)
	if videoID == "" {
		videoID = row.VideoID
	}

	return map[string]any{
		"ad_label":     label,
		"funnel_stage": stage,
		"language":     language,
		"headline":     fmt.Sprintf("Revised headline %s", label),
		"primary_text": fmt.Sprintf("Revised primary text %s with the feedback applied.", label),
		"cta":          "Try it today",
		"video_id":     videoID,
		"reused":       row.Reused,
	}
}

func (m *mockGenerationController) RegisterRoutes(g *gin.Engine) {
	g.POST("/openai/v1/chat/completions", m.ChatCompletions)
}
