package config

import (
	"fmt"
	"os"
)

const defaultKieGenerateUrl = "https://api.kie.ai/api/v1/runway/generate"
const defaultKieStatusUrl = "https://api.kie.ai/api/v1/runway/record-detail"

type KieConfig struct {
	GenerateUrl string
	StatusUrl   string
	ApiKey      string
	CallbackUrl string
}

func GetKieConfig() (*KieConfig, error) {
	apiKey := os.Getenv("KIE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("KIE_API_KEY must be set")
	}
	generateUrl := os.Getenv("KIE_GENERATE_URL")
	if generateUrl == "" {
		generateUrl = defaultKieGenerateUrl
	}
	statusUrl := os.Getenv("KIE_STATUS_URL")
	if statusUrl == "" {
		statusUrl = defaultKieStatusUrl
	}
	return &KieConfig{
		GenerateUrl: generateUrl,
		StatusUrl:   statusUrl,
		ApiKey:      apiKey,
		CallbackUrl: os.Getenv("KIE_CALLBACK_URL"),
	}, nil
}
