package mock_upstreams

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"creative-ads-pipeline/application/ports/outbound"
)

// The property schema the mock database declares, matching what the
// pipeline expects plus the optional workflow fields.
var mockSchema = map[string]string{
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
	"Tag":          "select",
	"Iteration":    "number",
	"Notes":        "rich_text",
}

type MockRecordsController interface {
	GetDatabase(c *gin.Context)
	CreatePage(c *gin.Context)
	UpdatePage(c *gin.Context)
	QueryDatabase(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type mockPage struct {
	ID          string
	CreatedTime string
	Properties  map[string]map[string]any
}

type mockRecordsController struct {
	logger outbound.LoggerPort

	mu    sync.Mutex
	pages []*mockPage
	byID  map[string]*mockPage
}

func NewMockRecordsController(logger outbound.LoggerPort) MockRecordsController {
	return &mockRecordsController{
		logger: logger,
		byID:   make(map[string]*mockPage),
	}
}

func (m *mockRecordsController) GetDatabase(c *gin.Context) {
	properties := make(gin.H, len(mockSchema))
	for name, propType := range mockSchema {
		properties[name] = gin.H{"type": propType}
	}
	c.JSON(200, gin.H{"properties": properties})
}

// readProperty converts an incoming write-format property into the shape
// reads return: tag the declared type, and flatten text content into
// plain_text items.
func readProperty(prop map[string]any) map[string]any {
	for propType, value := range prop {
		read := map[string]any{"type": propType}
		switch propType {
		case "title", "rich_text":
			items, _ := value.([]any)
			converted := make([]any, 0, len(items))
			for _, item := range items {
				obj, _ := item.(map[string]any)
				text, _ := obj["text"].(map[string]any)
				content, _ := text["content"].(string)
				converted = append(converted, map[string]any{"plain_text": content})
			}
			read[propType] = converted
		default:
			read[propType] = value
		}
		return read
	}
	return map[string]any{}
}

func readProperties(properties map[string]map[string]any) map[string]map[string]any {
	converted := make(map[string]map[string]any, len(properties))
	for name, prop := range properties {
		converted[name] = readProperty(prop)
	}
	return converted
}

func (m *mockRecordsController) CreatePage(c *gin.Context) {
	var req struct {
		Parent     map[string]any            `json:"parent"`
		Properties map[string]map[string]any `json:"properties" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(400, gin.H{"error": err.Error()})
		return
	}

	page := &mockPage{
		ID:          uuid.NewString(),
		CreatedTime: time.Now().UTC().Format(time.RFC3339),
		Properties:  readProperties(req.Properties),
	}

	m.mu.Lock()
	m.pages = append(m.pages, page)
	m.byID[page.ID] = page
	m.mu.Unlock()

	c.JSON(200, gin.H{"id": page.ID, "created_time": page.CreatedTime})
}

func (m *mockRecordsController) UpdatePage(c *gin.Context) {
	var req struct {
		Properties map[string]map[string]any `json:"properties" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(400, gin.H{"error": err.Error()})
		return
	}

	m.mu.Lock()
	page, ok := m.byID[c.Param("page_id")]
	if ok {
		for name, prop := range readProperties(req.Properties) {
			page.Properties[name] = prop
		}
	}
	m.mu.Unlock()

	if !ok {
		c.AbortWithStatusJSON(404, gin.H{"error": "page not found"})
		return
	}
	c.JSON(200, gin.H{"id": c.Param("page_id")})
}

func pageText(page *mockPage, name string) string {
	prop, ok := page.Properties[name]
	if !ok {
		return ""
	}
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
	default:
		value, _ := prop[propType].(string)
		return value
	}
}

func (m *mockRecordsController) QueryDatabase(c *gin.Context) {
	var req struct {
		Filter map[string]any   `json:"filter"`
		Sorts  []map[string]any `json:"sorts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.AbortWithStatusJSON(400, gin.H{"error": err.Error()})
		return
	}

	var wantSetID string
	if req.Filter != nil {
		if property, _ := req.Filter["property"].(string); property == "Set ID" {
			for _, key := range []string{"title", "rich_text"} {
				if condition, ok := req.Filter[key].(map[string]any); ok {
					wantSetID, _ = condition["equals"].(string)
				}
			}
		}
	}

	newestFirst := false
	for _, sort := range req.Sorts {
		if direction, _ := sort["direction"].(string); direction == "descending" {
			newestFirst = true
		}
	}

	m.mu.Lock()
	matched := make([]*mockPage, 0, len(m.pages))
	for _, page := range m.pages {
		if wantSetID != "" && pageText(page, "Set ID") != wantSetID {
			continue
		}
		matched = append(matched, page)
	}
	m.mu.Unlock()

	if newestFirst {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	results := make([]gin.H, 0, len(matched))
	for _, page := range matched {
		results = append(results, gin.H{
			"id":           page.ID,
			"created_time": page.CreatedTime,
			"properties":   page.Properties,
		})
	}
	c.JSON(200, gin.H{"results": results})
}

func (m *mockRecordsController) RegisterRoutes(g *gin.Engine) {
	g.GET("/v1/databases/:database_id", m.GetDatabase)
	g.POST("/v1/pages", m.CreatePage)
	g.PATCH("/v1/pages/:page_id", m.UpdatePage)
	g.POST("/v1/databases/:database_id/query", m.QueryDatabase)
}
