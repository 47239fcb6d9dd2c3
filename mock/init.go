package mock_upstreams

import (
	"github.com/gin-gonic/gin"

	"creative-ads-pipeline/application/ports/outbound"
)

// Init wires the fake generation, video render, and record store endpoints
// onto one engine. Point GROQ_API_URL, KIE_GENERATE_URL, KIE_STATUS_URL,
// and NOTION_BASE_URL at this server to run the pipeline offline.
func Init(g *gin.Engine, logger outbound.LoggerPort) {
	NewMockGenerationController(logger).RegisterRoutes(g)
	NewMockVideoController(logger).RegisterRoutes(g)
	NewMockRecordsController(logger).RegisterRoutes(g)
}
