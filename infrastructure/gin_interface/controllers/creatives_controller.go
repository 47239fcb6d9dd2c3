package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"creative-ads-pipeline/application/ports/inbound"
	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/domain"
	"creative-ads-pipeline/infrastructure/gin_interface/dto"
)

type CreativesController interface {
	Generate(c *gin.Context)
	Poll(c *gin.Context)
	Regenerate(c *gin.Context)
	ListCards(c *gin.Context)
	ListSets(c *gin.Context)
	UpdateTag(c *gin.Context)
	UpdateNotes(c *gin.Context)
	ActiveRun(c *gin.Context)
	StoreSchema(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type creativesController struct {
	logger   outbound.LoggerPort
	pipeline inbound.AdsPipelinePort
	store    outbound.RecordStorePort
}

func NewCreativesController(
	logger outbound.LoggerPort,
	pipeline inbound.AdsPipelinePort,
	store outbound.RecordStorePort,
) CreativesController {
	return &creativesController{
		logger:   logger,
		pipeline: pipeline,
		store:    store,
	}
}

// statusFor maps the error taxonomy onto response codes: contract breaches
// are the caller's problem to see, upstream failures are gateway errors.
func statusFor(err error) int {
	var schemaErr *domain.SchemaError
	var incompleteErr *domain.SchemaIncompleteError
	var upstreamErr *domain.UpstreamError
	var configErr *domain.ConfigurationError
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &incompleteErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (cc *creativesController) abort(c *gin.Context, status int, err error) {
	cc.logger.Error(err, "Request rejected")
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (cc *creativesController) Generate(c *gin.Context) {
	if !cc.pipeline.CredentialsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Missing credentials. Generation is disabled."})
		return
	}

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		cc.abort(c, http.StatusBadRequest, err)
		return
	}

	res, err := cc.pipeline.StartGeneration(c.Request.Context(), inbound.StartGenerationParams{
		Persona:     req.Persona,
		Market:      req.Market,
		FunnelStage: req.FunnelStage,
	})
	if err != nil {
		cc.abort(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerateResponse{
		SetID:          res.SetID,
		RecordsCreated: res.RecordsCreated,
		Warnings:       res.Warnings,
	})
}

func (cc *creativesController) Poll(c *gin.Context) {
	report := cc.pipeline.PollVideos(c.Request.Context())
	c.JSON(http.StatusOK, dto.PollResponse{
		Pending:               report.Pending,
		Succeeded:             report.Succeeded,
		Failed:                report.Failed,
		SuppressedStoreErrors: report.SuppressedStoreErrors,
		CeilingReached:        report.CeilingReached,
		PollCount:             report.PollCount,
	})
}

func (cc *creativesController) Regenerate(c *gin.Context) {
	var req dto.RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		cc.abort(c, http.StatusBadRequest, err)
		return
	}

	res, err := cc.pipeline.RegenerateCreative(c.Request.Context(), inbound.RegenerateParams{
		PageID:           req.PageID,
		AdLabel:          req.AdLabel,
		Persona:          req.Persona,
		Market:           req.Market,
		FunnelStage:      req.FunnelStage,
		Language:         req.Language,
		VideoID:          req.VideoID,
		Feedback:         req.Feedback,
		CurrentIteration: req.CurrentIteration,
	})
	if err != nil {
		cc.abort(c, statusFor(err), err)
		return
	}
	if res.Status != "success" {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (cc *creativesController) ListCards(c *gin.Context) {
	cards, err := cc.pipeline.LoadCards(c.Request.Context(), inbound.CardFilter{
		SetID:       c.Query("set"),
		FunnelStage: c.Query("stage"),
		Tag:         c.Query("tag"),
	})
	if err != nil {
		cc.abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"creatives": cards})
}

func (cc *creativesController) ListSets(c *gin.Context) {
	sets, err := cc.pipeline.ListSetIDs(c.Request.Context())
	if err != nil {
		cc.abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sets": sets})
}

func (cc *creativesController) UpdateTag(c *gin.Context) {
	var req dto.TagUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		cc.abort(c, http.StatusBadRequest, err)
		return
	}
	if err := cc.pipeline.UpdateTag(c.Request.Context(), c.Param("page_id"), req.Tag); err != nil {
		cc.abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (cc *creativesController) UpdateNotes(c *gin.Context) {
	var req dto.NotesUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		cc.abort(c, http.StatusBadRequest, err)
		return
	}
	if err := cc.pipeline.UpdateNotes(c.Request.Context(), c.Param("page_id"), req.Notes); err != nil {
		cc.abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (cc *creativesController) ActiveRun(c *gin.Context) {
	run := cc.pipeline.ActiveRun()
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active run"})
		return
	}

	res := dto.RunResponse{
		SetID:          run.SetID,
		Persona:        run.Inputs.Persona,
		Market:         run.Inputs.Market,
		FunnelStage:    run.Inputs.FunnelStage,
		RecordsCreated: run.RecordsCreated,
		VideoTasks:     make(map[string]dto.VideoTaskView, len(run.VideoTasks)),
		Creatives:      make(map[string]dto.CreativeStatusView, len(run.CreativeStatus)),
	}
	for videoID, task := range run.VideoTasks {
		res.VideoTasks[videoID] = dto.VideoTaskView{
			TaskID:   task.TaskID,
			Status:   string(task.Status),
			VideoURL: task.VideoURL,
			Error:    task.Err,
			Attempts: task.Attempts,
		}
	}
	for label, status := range run.CreativeStatus {
		res.Creatives[label] = dto.CreativeStatusView{Status: status.Status, Error: status.Err}
	}
	c.JSON(http.StatusOK, res)
}

func (cc *creativesController) StoreSchema(c *gin.Context) {
	report, err := cc.store.CheckSchema(c.Request.Context())
	if err != nil {
		cc.abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, dto.SchemaResponse{
		OK:      report.OK,
		Types:   report.Types,
		Missing: report.Missing,
	})
}

func (cc *creativesController) RegisterRoutes(g *gin.Engine) {
	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	g.POST("/generate", cc.Generate)
	g.POST("/poll", cc.Poll)
	g.POST("/creatives/regenerate", cc.Regenerate)
	g.GET("/creatives", cc.ListCards)
	g.GET("/sets", cc.ListSets)
	g.PATCH("/creatives/:page_id/tag", cc.UpdateTag)
	g.PATCH("/creatives/:page_id/notes", cc.UpdateNotes)
	g.GET("/run", cc.ActiveRun)
	g.GET("/store/schema", cc.StoreSchema)
}
