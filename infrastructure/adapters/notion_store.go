package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/config"
	"creative-ads-pipeline/domain"
)

const recordStoreService = "record-store"

// The 13 properties every creative record needs. A build against a schema
// missing any of them fails fast, naming all of the missing ones.
var requiredProperties = []string{
	"Set ID",
	"Persona",
	"Market",
	"Funnel Stage",
	"Ad Label",
	"Language",
	"Headline",
	"Primary Text",
	"CTA",
	"Video ID",
	"Video URL",
	"Reused?",
	"Status",
}

// Written only when the discovered schema declares them.
var optionalProperties = []string{"Tag", "Iteration", "Notes"}

// Fallback type table used when schema discovery fails at run-creation
// time. A schema change upstream is only observed by a fresh session.
var defaultPropertyTypes = map[string]string{
	"Set ID":       "title",
	"Persona":      "rich_text",
	"Market":       "rich_text",
	"Funnel Stage": "select",
	"Ad Label":     "rich_text",
	"Language":     "select",
	"Headline":     "rich_text",
	"Primary Text": "rich_text",
	"CTA":          "rich_text",
	"Video ID":     "rich_text",
	"Video URL":    "url",
	"Reused?":      "checkbox",
	"Status":       "status",
}

type notionPage struct {
	ID          string                    `json:"id"`
	CreatedTime string                    `json:"created_time"`
	Properties  map[string]map[string]any `json:"properties"`
}

type notionQueryResponse struct {
	Results []notionPage `json:"results"`
}

type notionStore struct {
	fetcher      ContentFetcher
	notionConfig *config.NotionConfig
	logger       outbound.LoggerPort

	mu            sync.Mutex
	propertyTypes map[string]string
}

func NewNotionStore(fetcher ContentFetcher, notionConfig *config.NotionConfig, logger outbound.LoggerPort) outbound.RecordStorePort {
	return &notionStore{
		fetcher:      fetcher,
		notionConfig: notionConfig,
		logger:       logger,
	}
}

func (n *notionStore) request(ctx context.Context, method, path string, body any) ([]byte, error) {
	if n.notionConfig.ApiKey == "" {
		return nil, &domain.ConfigurationError{Name: "NOTION_API_KEY"}
	}

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			n.logger.Error(err, "Failed to marshal the record store request body")
			return nil, err
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, n.notionConfig.BaseUrl+path, reader)
	if err != nil {
		n.logger.Error(err, "Failed to create the record store request")
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+n.notionConfig.ApiKey)
	req.Header.Set("Notion-Version", n.notionConfig.Version)
	req.Header.Set("Content-Type", "application/json")

	return n.fetcher.FetchContent(req, recordStoreService)
}

// getPropertyTypes fetches the declared property name to type mapping,
// cached for the adapter's lifetime after the first successful fetch.
func (n *notionStore) getPropertyTypes(ctx context.Context) (map[string]string, error) {
	n.mu.Lock()
	cached := n.propertyTypes
	n.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	raw, err := n.request(ctx, http.MethodGet, "/databases/"+n.notionConfig.DatabaseID, nil)
	if err != nil {
		return nil, err
	}

	var res struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		n.logger.Error(err, "Failed to unmarshal the database schema")
		return nil, &domain.UpstreamError{Service: recordStoreService, Message: "malformed schema response"}
	}

	types := make(map[string]string, len(res.Properties))
	for name, spec := range res.Properties {
		types[name] = spec.Type
	}

	n.mu.Lock()
	n.propertyTypes = types
	n.mu.Unlock()
	return types, nil
}

// propertyTypesOrDefault degrades to the default type table when discovery
// fails, so record creation is not blocked by a transient schema read.
func (n *notionStore) propertyTypesOrDefault(ctx context.Context) map[string]string {
	types, err := n.getPropertyTypes(ctx)
	if err != nil {
		n.logger.Warn("Schema discovery failed, falling back to default property types")
		return defaultPropertyTypes
	}
	return types
}

func textValue(value string) map[string]any {
	return map[string]any{"type": "text", "text": map[string]any{"content": value}}
}

// buildProperty boxes a value according to the target field's declared
// type. Unrecognized types fall back to rich text. A nil return means the
// property should be omitted.
func buildProperty(value any, propType string) map[string]any {
	if value == nil {
		return nil
	}
	switch propType {
	case "title":
		return map[string]any{"title": []any{textValue(toString(value))}}
	case "rich_text":
		return map[string]any{"rich_text": []any{textValue(toString(value))}}
	case "select":
		return map[string]any{"select": map[string]any{"name": toString(value)}}
	case "multi_select":
		return map[string]any{"multi_select": []any{map[string]any{"name": toString(value)}}}
	case "status":
		return map[string]any{"status": map[string]any{"name": toString(value)}}
	case "checkbox":
		b, _ := value.(bool)
		return map[string]any{"checkbox": b}
	case "url":
		s := toString(value)
		if s == "" {
			return nil
		}
		return map[string]any{"url": s}
	case "number":
		return map[string]any{"number": value}
	default:
		return map[string]any{"rich_text": []any{textValue(toString(value))}}
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// buildCreativeProperties maps a creative plus its run inputs onto the
// discovered schema. Any required field absent from the schema fails the
// whole build; no partial property bag is produced.
func buildCreativeProperties(creative domain.Creative, inputs domain.RunInputs, setID string,
	videoURL any, status string, types map[string]string, tag string, iteration int) (map[string]any, error) {

	values := map[string]any{
		"Set ID":       setID,
		"Persona":      inputs.Persona,
		"Market":       inputs.Market,
		"Funnel Stage": string(creative.FunnelStage),
		"Ad Label":     creative.AdLabel,
		"Language":     string(creative.Language),
		"Headline":     creative.Headline,
		"Primary Text": creative.PrimaryText,
		"CTA":          creative.CTA,
		"Video ID":     creative.VideoID,
		"Video URL":    videoURL,
		"Reused?":      creative.Reused,
		"Status":       status,
	}

	properties := make(map[string]any)
	missing := make([]string, 0)
	for _, name := range requiredProperties {
		propType, ok := types[name]
		if !ok || propType == "" {
			missing = append(missing, name)
			continue
		}
		if built := buildProperty(values[name], propType); built != nil {
			properties[name] = built
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaIncompleteError{Missing: missing}
	}

	if propType, ok := types["Tag"]; ok {
		if built := buildProperty(tag, propType); built != nil {
			properties["Tag"] = built
		}
	}
	if _, ok := types["Iteration"]; ok {
		properties["Iteration"] = map[string]any{"number": iteration}
	}

	return properties, nil
}

// buildVideoResultProperties builds the minimal partial update for a video
// completion: URL plus status, nothing else, so concurrent edits made
// through other paths are not clobbered.
func buildVideoResultProperties(videoURL string, status string, types map[string]string) map[string]any {
	properties := make(map[string]any)
	var urlValue any
	if videoURL != "" {
		urlValue = videoURL
	}
	if propType, ok := types["Video URL"]; ok {
		if built := buildProperty(urlValue, propType); built != nil {
			properties["Video URL"] = built
		}
	}
	if propType, ok := types["Status"]; ok {
		if built := buildProperty(status, propType); built != nil {
			properties["Status"] = built
		}
	}
	return properties
}

func (n *notionStore) createPage(ctx context.Context, properties map[string]any) (notionPage, error) {
	parent := map[string]any{"type": "database_id", "database_id": n.notionConfig.DatabaseID}
	if n.notionConfig.DataSourceID != "" {
		parent = map[string]any{"type": "data_source_id", "data_source_id": n.notionConfig.DataSourceID}
	}

	raw, err := n.request(ctx, http.MethodPost, "/pages", map[string]any{
		"parent":     parent,
		"properties": properties,
	})
	if err != nil {
		return notionPage{}, err
	}

	var page notionPage
	if err := json.Unmarshal(raw, &page); err != nil {
		n.logger.Error(err, "Failed to unmarshal the created page")
		return notionPage{}, &domain.UpstreamError{Service: recordStoreService, Message: "malformed page response"}
	}
	return page, nil
}

func (n *notionStore) updatePage(ctx context.Context, pageID string, properties map[string]any) error {
	if len(properties) == 0 {
		return nil
	}
	_, err := n.request(ctx, http.MethodPatch, "/pages/"+pageID, map[string]any{
		"properties": properties,
	})
	return err
}

func (n *notionStore) CheckSchema(ctx context.Context) (outbound.SchemaReport, error) {
	types, err := n.getPropertyTypes(ctx)
	if err != nil {
		return outbound.SchemaReport{}, err
	}

	report := outbound.SchemaReport{Types: make(map[string]string, len(requiredProperties))}
	for _, name := range requiredProperties {
		report.Types[name] = types[name]
		if types[name] == "" {
			report.Missing = append(report.Missing, name)
		}
	}
	report.OK = len(report.Missing) == 0
	return report, nil
}

func (n *notionStore) CreateCreativeRecord(ctx context.Context, creative domain.Creative, inputs domain.RunInputs, setID string) (string, error) {
	types := n.propertyTypesOrDefault(ctx)
	properties, err := buildCreativeProperties(creative, inputs, setID, nil, domain.StatusNotStarted, types, "Draft", 1)
	if err != nil {
		return "", err
	}
	page, err := n.createPage(ctx, properties)
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

func (n *notionStore) UpdateVideoResult(ctx context.Context, pageID string, videoURL string, status string) error {
	types := n.propertyTypesOrDefault(ctx)
	return n.updatePage(ctx, pageID, buildVideoResultProperties(videoURL, status, types))
}

func (n *notionStore) UpdateCreativeCopy(ctx context.Context, pageID string, copy outbound.RegeneratedCopy) error {
	types, err := n.getPropertyTypes(ctx)
	if err != nil {
		return err
	}

	properties := buildVideoResultProperties("", domain.StatusGenerated, types)
	for name, value := range map[string]string{
		"Headline":     copy.Headline,
		"Primary Text": copy.PrimaryText,
		"CTA":          copy.CTA,
	} {
		if propType, ok := types[name]; ok {
			if built := buildProperty(value, propType); built != nil {
				properties[name] = built
			}
		}
	}
	if _, ok := types["Iteration"]; ok {
		properties["Iteration"] = map[string]any{"number": copy.Iteration}
	}

	return n.updatePage(ctx, pageID, properties)
}

func (n *notionStore) UpdateTag(ctx context.Context, pageID string, tag string) error {
	types, err := n.getPropertyTypes(ctx)
	if err != nil {
		return err
	}
	properties := make(map[string]any)
	if propType, ok := types["Tag"]; ok {
		if built := buildProperty(tag, propType); built != nil {
			properties["Tag"] = built
		}
	}
	return n.updatePage(ctx, pageID, properties)
}

func (n *notionStore) UpdateNotes(ctx context.Context, pageID string, notes string) error {
	types, err := n.getPropertyTypes(ctx)
	if err != nil {
		return err
	}
	properties := make(map[string]any)
	if propType, ok := types["Notes"]; ok {
		if built := buildProperty(notes, propType); built != nil {
			properties["Notes"] = built
		}
	}
	return n.updatePage(ctx, pageID, properties)
}

func (n *notionStore) QueryCreatives(ctx context.Context, query outbound.CreativeQuery) ([]domain.CreativeCard, error) {
	types, err := n.getPropertyTypes(ctx)
	if err != nil {
		return nil, err
	}

	body := make(map[string]any)
	if query.SetID != "" {
		setIDType := types["Set ID"]
		if setIDType == "" {
			setIDType = "rich_text"
		}
		if setIDType == "title" {
			body["filter"] = map[string]any{"property": "Set ID", "title": map[string]any{"equals": query.SetID}}
		} else {
			body["filter"] = map[string]any{"property": "Set ID", "rich_text": map[string]any{"equals": query.SetID}}
		}
	}
	if query.NewestFirst {
		body["sorts"] = []any{map[string]any{"timestamp": "created_time", "direction": "descending"}}
	}

	raw, err := n.request(ctx, http.MethodPost, "/databases/"+n.notionConfig.DatabaseID+"/query", body)
	if err != nil {
		return nil, err
	}

	var res notionQueryResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		n.logger.Error(err, "Failed to unmarshal the query response")
		return nil, &domain.UpstreamError{Service: recordStoreService, Message: "malformed query response"}
	}

	cards := make([]domain.CreativeCard, 0, len(res.Results))
	for _, page := range res.Results {
		cards = append(cards, extractCard(page))
	}
	return cards, nil
}

// extractCard decodes a page's typed property bag into the flat display
// projection, one decoding rule per declared type and a zero default when
// a property is unset.
func extractCard(page notionPage) domain.CreativeCard {
	card := domain.CreativeCard{PageID: page.ID, CreatedTime: page.CreatedTime}

	for name, prop := range page.Properties {
		switch name {
		case "Set ID":
			card.SetID = extractText(prop)
		case "Persona":
			card.Persona = extractText(prop)
		case "Market":
			card.Market = extractText(prop)
		case "Funnel Stage":
			card.FunnelStage = extractText(prop)
		case "Ad Label":
			card.AdLabel = extractText(prop)
		case "Language":
			card.Language = extractText(prop)
		case "Headline":
			card.Headline = extractText(prop)
		case "Primary Text":
			card.PrimaryText = extractText(prop)
		case "CTA":
			card.CTA = extractText(prop)
		case "Video ID":
			card.VideoID = extractText(prop)
		case "Video URL":
			card.VideoURL = extractText(prop)
		case "Reused?":
			card.Reused, _ = prop["checkbox"].(bool)
		case "Status":
			card.Status = extractText(prop)
		case "Tag":
			card.Tag = extractText(prop)
		case "Iteration":
			if number, ok := prop["number"].(float64); ok {
				card.Iteration = int(number)
			}
		case "Notes":
			card.Notes = extractText(prop)
		}
	}
	return card
}

// extractText applies the per-type decoding rule for string-shaped
// properties: first element's plain text for title/rich_text, the option
// name for select/status, the raw value for url and timestamps.
func extractText(prop map[string]any) string {
	propType, _ := prop["type"].(string)
	switch propType {
	case "title", "rich_text":
		items, _ := prop[propType].([]any)
		if len(items) == 0 {
			return ""
		}
		first, _ := items[0].(map[string]any)
		text, _ := first["plain_text"].(string)
		return text
	case "select", "status":
		option, _ := prop[propType].(map[string]any)
		if option == nil {
			return ""
		}
		name, _ := option["name"].(string)
		return name
	case "url":
		value, _ := prop["url"].(string)
		return value
	case "created_time":
		value, _ := prop["created_time"].(string)
		return value
	default:
		return ""
	}
}
