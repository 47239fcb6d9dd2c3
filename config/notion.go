package config

import (
	"fmt"
	"os"
)

const defaultNotionBaseUrl = "https://api.notion.com/v1"
const defaultNotionVersion = "2022-06-28"

type NotionConfig struct {
	BaseUrl      string
	ApiKey       string
	DatabaseID   string
	DataSourceID string
	Version      string
}

func GetNotionConfig() (*NotionConfig, error) {
	apiKey := os.Getenv("NOTION_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("NOTION_API_KEY must be set")
	}
	databaseID := os.Getenv("NOTION_DATABASE_ID")
	if databaseID == "" {
		return nil, fmt.Errorf("NOTION_DATABASE_ID must be set")
	}
	baseUrl := os.Getenv("NOTION_BASE_URL")
	if baseUrl == "" {
		baseUrl = defaultNotionBaseUrl
	}
	version := os.Getenv("NOTION_VERSION")
	if version == "" {
		version = defaultNotionVersion
	}
	return &NotionConfig{
		BaseUrl:      baseUrl,
		ApiKey:       apiKey,
		DatabaseID:   databaseID,
		DataSourceID: os.Getenv("NOTION_DATA_SOURCE_ID"),
		Version:      version,
	}, nil
}
