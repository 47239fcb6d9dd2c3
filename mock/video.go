package mock_upstreams

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"creative-ads-pipeline/application/ports/outbound"
)

// Render jobs report pending this many times before succeeding.
const pollsBeforeSuccess = 2

type MockVideoController interface {
	Generate(c *gin.Context)
	RecordDetail(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type mockVideoTask struct {
	prompt string
	polls  int
}

type mockVideoController struct {
	logger outbound.LoggerPort

	mu    sync.Mutex
	tasks map[string]*mockVideoTask
}

func NewMockVideoController(logger outbound.LoggerPort) MockVideoController {
	return &mockVideoController{
		logger: logger,
		tasks:  make(map[string]*mockVideoTask),
	}
}

func (m *mockVideoController) Generate(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(200, gin.H{"code": 400, "msg": err.Error()})
		return
	}

	taskID := uuid.NewString()
	m.mu.Lock()
	m.tasks[taskID] = &mockVideoTask{prompt: req.Prompt}
	m.mu.Unlock()

	m.logger.InfoWithFields("mock render job accepted", map[string]interface{}{
		"task_id": taskID,
	})
	c.JSON(200, gin.H{"code": 200, "data": gin.H{"taskId": taskID}})
}

func (m *mockVideoController) RecordDetail(c *gin.Context) {
	taskID := c.Query("taskId")

	m.mu.Lock()
	task, ok := m.tasks[taskID]
	if ok {
		task.polls++
	}
	m.mu.Unlock()

	if !ok {
		c.JSON(200, gin.H{"code": 404, "msg": "task not found"})
		return
	}

	if task.polls <= pollsBeforeSuccess {
		c.JSON(200, gin.H{"code": 200, "data": gin.H{"taskId": taskID, "state": "generating"}})
		return
	}
	c.JSON(200, gin.H{"code": 200, "data": gin.H{
		"taskId": taskID,
		"state":  "success",
		"videoInfo": gin.H{
			"videoUrl": fmt.Sprintf("https://videos.example/%s.mp4", taskID),
		},
	}})
}

func (m *mockVideoController) RegisterRoutes(g *gin.Engine) {
	g.POST("/api/v1/runway/generate", m.Generate)
	g.GET("/api/v1/runway/record-detail", m.RecordDetail)
}
