package inbound

import (
	"context"

	"creative-ads-pipeline/domain"
)

type StartGenerationParams struct {
	Persona     string
	Market      string
	FunnelStage string
}

type StartGenerationResult struct {
	SetID          string
	RecordsCreated bool
	Warnings       []string
}

// PollReport summarizes one polling pass over the active Run.
type PollReport struct {
	Pending               int
	Succeeded             int
	Failed                int
	SuppressedStoreErrors int
	CeilingReached        bool
	PollCount             int
}

type RegenerateParams struct {
	PageID           string
	AdLabel          string
	Persona          string
	Market           string
	FunnelStage      string
	Language         string
	VideoID          string
	Feedback         string
	CurrentIteration int
}

type CardFilter struct {
	SetID       string
	FunnelStage string
	Tag         string
}

// AdsPipelinePort is the orchestrator surface consumed by the presentation
// layer.
type AdsPipelinePort interface {
	CredentialsReady() bool
	StartGeneration(ctx context.Context, params StartGenerationParams) (StartGenerationResult, error)
	PollVideos(ctx context.Context) PollReport
	RegenerateCreative(ctx context.Context, params RegenerateParams) (domain.RegenerateResult, error)
	LoadCards(ctx context.Context, filter CardFilter) ([]domain.CreativeCard, error)
	ListSetIDs(ctx context.Context) ([]string, error)
	UpdateTag(ctx context.Context, pageID string, tag string) error
	UpdateNotes(ctx context.Context, pageID string, notes string) error
	// ActiveRun returns a detached snapshot of the active Run, or nil.
	ActiveRun() *domain.Run
}
