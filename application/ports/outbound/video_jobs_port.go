package outbound

import (
	"context"

	"creative-ads-pipeline/domain"
)

// VideoStatus is the normalized tri-state result of one status poll.
// VideoURL is set only on success; Err only on fail.
type VideoStatus struct {
	State    domain.TaskState
	VideoURL string
	Err      string
}

type VideoJobsPort interface {
	CreateVideoTask(ctx context.Context, prompt string) (string, error)
	GetVideoStatus(ctx context.Context, taskID string) (VideoStatus, error)
}
