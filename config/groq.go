package config

import (
	"fmt"
	"os"
)

const defaultGroqApiUrl = "https://api.groq.com/openai/v1/chat/completions"
const defaultGroqModel = "llama-3.3-70b-versatile"

type GroqConfig struct {
	ApiUrl string
	ApiKey string
	Model  string
}

func GetGroqConfig() (*GroqConfig, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY must be set")
	}
	apiUrl := os.Getenv("GROQ_API_URL")
	if apiUrl == "" {
		apiUrl = defaultGroqApiUrl
	}
	model := os.Getenv("GROQ_MODEL")
	if model == "" {
		model = defaultGroqModel
	}
	return &GroqConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
		Model:  model,
	}, nil
}
