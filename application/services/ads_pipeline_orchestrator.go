package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"creative-ads-pipeline/application/ports/inbound"
	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/domain"

	"github.com/google/uuid"
)

const (
	maxPollAttempts    = 60
	pollDelay          = 5 * time.Second
	sessionPollCeiling = 120
)

// adsPipelineOrchestrator drives the full generation sequence:
// generate -> validate -> persist -> launch videos -> poll -> propagate.
// One mutex guards all Run state; there is exactly one writer.
type adsPipelineOrchestrator struct {
	logger           outbound.LoggerPort
	generator        outbound.CreativeGeneratorPort
	videoJobs        outbound.VideoJobsPort
	store            outbound.RecordStorePort
	credentialsReady func() bool
	now              func() time.Time

	mu        sync.Mutex
	activeRun *domain.Run
	pollCount int
}

func NewAdsPipelineOrchestrator(logger outbound.LoggerPort, generator outbound.CreativeGeneratorPort,
	videoJobs outbound.VideoJobsPort, store outbound.RecordStorePort,
	credentialsReady func() bool) inbound.AdsPipelinePort {
	return &adsPipelineOrchestrator{
		logger:           logger,
		generator:        generator,
		videoJobs:        videoJobs,
		store:            store,
		credentialsReady: credentialsReady,
		now:              time.Now,
	}
}

func (o *adsPipelineOrchestrator) CredentialsReady() bool {
	return o.credentialsReady()
}

// ActiveRun returns a detached snapshot of the active Run. The live state
// is only ever touched under the mutex, so readers get a copy.
func (o *adsPipelineOrchestrator) ActiveRun() *domain.Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.activeRun == nil {
		return nil
	}
	return o.activeRun.Clone()
}

func newSetID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SET-" + strings.ToUpper(hex[:10])
}

func (o *adsPipelineOrchestrator) StartGeneration(ctx context.Context, params inbound.StartGenerationParams) (inbound.StartGenerationResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	inputs := domain.RunInputs{
		Persona:     strings.TrimSpace(params.Persona),
		Market:      strings.TrimSpace(params.Market),
		FunnelStage: params.FunnelStage,
	}
	setID := newSetID()

	payload, err := o.generator.GenerateCreativeSet(ctx, outbound.GenerateCreativeSetParams{
		Persona:     inputs.Persona,
		Market:      inputs.Market,
		FunnelStage: inputs.FunnelStage,
		SetID:       setID,
	})
	if err != nil {
		o.logger.ErrorWithFields(err, "Creative generation failed", map[string]interface{}{
			"set_id": setID,
		})
		return inbound.StartGenerationResult{}, fmt.Errorf("creative generation failed: %w", err)
	}

	// A schema mismatch aborts before any persistence or video launch.
	if err := domain.ValidatePayload(payload, inputs, setID); err != nil {
		o.logger.ErrorWithFields(err, "Generated payload failed validation", map[string]interface{}{
			"set_id": setID,
		})
		return inbound.StartGenerationResult{}, err
	}

	set := domain.DecodeCreativeSet(payload)
	run := domain.NewRun(setID, inputs, set)
	o.activeRun = run
	o.pollCount = 0

	warnings := o.createRecords(ctx, run)
	o.submitVideoJobs(ctx, run)

	o.logger.InfoWithFields("Generation run started", map[string]interface{}{
		"set_id":    setID,
		"creatives": len(run.Creatives),
		"videos":    len(run.Videos),
	})

	return inbound.StartGenerationResult{
		SetID:          setID,
		RecordsCreated: run.RecordsCreated,
		Warnings:       warnings,
	}, nil
}

// createRecords persists one record per creative. Per-label failures are
// collected as warnings and do not abort sibling creatives.
func (o *adsPipelineOrchestrator) createRecords(ctx context.Context, run *domain.Run) []string {
	warnings := make([]string, 0)
	successCount := 0
	for _, creative := range run.Creatives {
		pageID, err := o.store.CreateCreativeRecord(ctx, creative, run.Inputs, run.SetID)
		if err != nil {
			run.CreativeStatus[creative.AdLabel].Status = "error"
			run.CreativeStatus[creative.AdLabel].Err = err.Error()
			warnings = append(warnings, fmt.Sprintf("Ad %s: %v", creative.AdLabel, err))
			o.logger.ErrorWithFields(err, "Failed to persist creative record", map[string]interface{}{
				"set_id":   run.SetID,
				"ad_label": creative.AdLabel,
			})
			continue
		}
		run.RecordPages[creative.AdLabel] = pageID
		run.CreativeStatus[creative.AdLabel].Status = "saved"
		successCount++
	}
	run.RecordsCreated = successCount == len(run.Creatives)
	return warnings
}

// submitVideoJobs launches one render job per video spec, in order. A
// failed submission marks that task fail immediately without blocking the
// others.
func (o *adsPipelineOrchestrator) submitVideoJobs(ctx context.Context, run *domain.Run) {
	for _, video := range run.Videos {
		taskID, err := o.videoJobs.CreateVideoTask(ctx, video.Prompt)
		if err != nil {
			run.VideoTasks[video.VideoID] = &domain.VideoTask{
				Status:     domain.TaskFail,
				Err:        err.Error(),
				Attempts:   1,
				NextPollAt: o.now(),
			}
			o.logger.ErrorWithFields(err, "Video submission failed", map[string]interface{}{
				"set_id":   run.SetID,
				"video_id": video.VideoID,
			})
			continue
		}
		run.VideoTasks[video.VideoID] = &domain.VideoTask{
			TaskID:     taskID,
			Status:     domain.TaskPending,
			NextPollAt: o.now(),
		}
	}
}

// PollVideos runs one re-entrant polling pass over the active Run's tasks
// in deterministic video-ID order. Invoked repeatedly by the caller until
// every task is terminal or the session ceiling is hit.
func (o *adsPipelineOrchestrator) PollVideos(ctx context.Context) inbound.PollReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	report := inbound.PollReport{}
	run := o.activeRun
	if run == nil {
		return report
	}

	if o.pollCount >= sessionPollCeiling {
		report.CeilingReached = true
		report.PollCount = o.pollCount
		o.countTerminal(run, &report)
		return report
	}
	o.pollCount++
	report.PollCount = o.pollCount

	videoIDs := make([]string, 0, len(run.VideoTasks))
	for videoID := range run.VideoTasks {
		videoIDs = append(videoIDs, videoID)
	}
	sort.Strings(videoIDs)

	for _, videoID := range videoIDs {
		task := run.VideoTasks[videoID]

		switch task.Status {
		case domain.TaskSuccess:
			report.Succeeded++
			continue
		case domain.TaskFail:
			report.Failed++
			continue
		}

		if task.TaskID == "" {
			continue
		}
		if o.now().Before(task.NextPollAt) {
			report.Pending++
			continue
		}
		if task.Attempts >= maxPollAttempts {
			task.Status = domain.TaskFail
			task.Err = (&domain.TimeoutError{Message: "Timed out waiting for video."}).Error()
			report.SuppressedStoreErrors += o.propagateVideoResult(ctx, run, videoID, task)
			report.Failed++
			continue
		}

		status, err := o.videoJobs.GetVideoStatus(ctx, task.TaskID)
		if err != nil {
			status = outbound.VideoStatus{State: domain.TaskFail, Err: err.Error()}
		}

		switch status.State {
		case domain.TaskSuccess:
			task.Status = domain.TaskSuccess
			task.VideoURL = status.VideoURL
			task.Err = ""
			run.VideoURLs[videoID] = status.VideoURL
			report.SuppressedStoreErrors += o.propagateVideoResult(ctx, run, videoID, task)
			report.Succeeded++
		case domain.TaskFail:
			task.Status = domain.TaskFail
			task.VideoURL = ""
			if status.Err != "" {
				task.Err = status.Err
			} else {
				task.Err = "Video generation failed"
			}
			report.SuppressedStoreErrors += o.propagateVideoResult(ctx, run, videoID, task)
			report.Failed++
		default:
			task.Attempts++
			task.NextPollAt = o.now().Add(pollDelay)
			report.Pending++
		}
	}

	return report
}

func (o *adsPipelineOrchestrator) countTerminal(run *domain.Run, report *inbound.PollReport) {
	for _, task := range run.VideoTasks {
		switch task.Status {
		case domain.TaskSuccess:
			report.Succeeded++
		case domain.TaskFail:
			report.Failed++
		default:
			report.Pending++
		}
	}
}

// propagateVideoResult pushes a terminal task's outcome onto every creative
// sharing the video. Record-store failures here are suppressed by design:
// polling must never be blocked by the storage layer, and the store
// converges on a later successful write or a manual refresh. The count of
// suppressed errors is reported so callers can observe them.
func (o *adsPipelineOrchestrator) propagateVideoResult(ctx context.Context, run *domain.Run, videoID string, task *domain.VideoTask) int {
	statusLabel := domain.StatusIterating
	videoURL := ""
	if task.Status == domain.TaskSuccess {
		statusLabel = domain.StatusGenerated
		videoURL = task.VideoURL
	}

	suppressed := 0
	for _, creative := range run.Creatives {
		if creative.VideoID != videoID {
			continue
		}
		pageID := run.RecordPages[creative.AdLabel]
		if pageID == "" {
			continue
		}
		if err := o.store.UpdateVideoResult(ctx, pageID, videoURL, statusLabel); err != nil {
			suppressed++
			o.logger.WarnWithFields("Suppressed record store failure during video propagation", map[string]interface{}{
				"set_id":   run.SetID,
				"video_id": videoID,
				"ad_label": creative.AdLabel,
				"error":    err.Error(),
			})
		}
	}
	return suppressed
}

// RegenerateCreative is a user-initiated side pipeline for one label: new
// copy is generated from feedback, validated against the label's mapping
// row, and written over the existing record. It never touches video_id or
// reused and never re-launches a video job.
func (o *adsPipelineOrchestrator) RegenerateCreative(ctx context.Context, params inbound.RegenerateParams) (domain.RegenerateResult, error) {
	payload, err := o.generator.GenerateSingleCreative(ctx, outbound.GenerateSingleCreativeParams{
		AdLabel:     params.AdLabel,
		Persona:     params.Persona,
		Market:      params.Market,
		FunnelStage: params.FunnelStage,
		Language:    params.Language,
		VideoID:     params.VideoID,
		Feedback:    params.Feedback,
	})
	if err != nil {
		return domain.RegenerateResult{}, err
	}

	if err := domain.ValidateSingleCreative(payload, params.AdLabel); err != nil {
		return domain.RegenerateResult{Status: "error", Message: err.Error()}, nil
	}
	item := domain.DecodeCreative(payload)

	newIteration := params.CurrentIteration + 1
	if err := o.store.UpdateCreativeCopy(ctx, params.PageID, outbound.RegeneratedCopy{
		Headline:    item.Headline,
		PrimaryText: item.PrimaryText,
		CTA:         item.CTA,
		Iteration:   newIteration,
	}); err != nil {
		return domain.RegenerateResult{}, err
	}

	return domain.RegenerateResult{
		Status:      "success",
		Iteration:   newIteration,
		Headline:    item.Headline,
		PrimaryText: item.PrimaryText,
		CTA:         item.CTA,
	}, nil
}

func (o *adsPipelineOrchestrator) LoadCards(ctx context.Context, filter inbound.CardFilter) ([]domain.CreativeCard, error) {
	cards, err := o.store.QueryCreatives(ctx, outbound.CreativeQuery{
		SetID:       filter.SetID,
		NewestFirst: true,
	})
	if err != nil {
		return nil, err
	}

	// Stage and tag are filtered client-side; only the set filter is
	// pushed down to the store.
	filtered := make([]domain.CreativeCard, 0, len(cards))
	for _, card := range cards {
		if filter.FunnelStage != "" && card.FunnelStage != filter.FunnelStage {
			continue
		}
		if filter.Tag != "" {
			tag := card.Tag
			if tag == "" {
				tag = "Draft"
			}
			if tag != filter.Tag {
				continue
			}
		}
		filtered = append(filtered, card)
	}
	return filtered, nil
}

func (o *adsPipelineOrchestrator) ListSetIDs(ctx context.Context) ([]string, error) {
	cards, err := o.store.QueryCreatives(ctx, outbound.CreativeQuery{NewestFirst: true})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	setIDs := make([]string, 0)
	for _, card := range cards {
		setID := card.SetID
		if setID == "" {
			setID = card.Headline
		}
		if setID == "" || seen[setID] {
			continue
		}
		seen[setID] = true
		setIDs = append(setIDs, setID)
	}
	return setIDs, nil
}

func (o *adsPipelineOrchestrator) UpdateTag(ctx context.Context, pageID string, tag string) error {
	return o.store.UpdateTag(ctx, pageID, tag)
}

func (o *adsPipelineOrchestrator) UpdateNotes(ctx context.Context, pageID string, notes string) error {
	return o.store.UpdateNotes(ctx, pageID, notes)
}
