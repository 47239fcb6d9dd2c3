package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/config"
	"creative-ads-pipeline/domain"
)

const videoService = "video"

type videoGenerateRequest struct {
	Prompt      string `json:"prompt"`
	Duration    int    `json:"duration"`
	Quality     string `json:"quality"`
	AspectRatio string `json:"aspectRatio"`
	WaterMark   string `json:"waterMark"`
	CallBackUrl string `json:"callBackUrl,omitempty"`
}

type videoEnvelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID    string `json:"taskId"`
		State     string `json:"state"`
		VideoURL  string `json:"videoUrl"`
		Error     string `json:"error"`
		VideoInfo struct {
			VideoURL string `json:"videoUrl"`
			URL      string `json:"url"`
		} `json:"videoInfo"`
	} `json:"data"`
}

type kieVideoClient struct {
	submitFetcher ContentFetcher
	statusFetcher ContentFetcher
	kieConfig     *config.KieConfig
	logger        outbound.LoggerPort
}

// NewKieVideoClient builds the video job adapter. Submission and status
// calls carry separate timeouts, so each gets its own fetcher.
func NewKieVideoClient(submitFetcher, statusFetcher ContentFetcher, kieConfig *config.KieConfig, logger outbound.LoggerPort) outbound.VideoJobsPort {
	return &kieVideoClient{
		submitFetcher: submitFetcher,
		statusFetcher: statusFetcher,
		kieConfig:     kieConfig,
		logger:        logger,
	}
}

func (k *kieVideoClient) CreateVideoTask(ctx context.Context, prompt string) (string, error) {
	if k.kieConfig.ApiKey == "" {
		return "", &domain.ConfigurationError{Name: "KIE_API_KEY"}
	}

	body := videoGenerateRequest{
		Prompt:      prompt,
		Duration:    5,
		Quality:     "720p",
		AspectRatio: "9:16",
		WaterMark:   "",
		CallBackUrl: k.kieConfig.CallbackUrl,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		k.logger.Error(err, "Failed to marshal the video request body")
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.kieConfig.GenerateUrl, bytes.NewBuffer(payload))
	if err != nil {
		k.logger.Error(err, "Failed to create the video request")
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+k.kieConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	raw, err := k.submitFetcher.FetchContent(req, videoService)
	if err != nil {
		return "", err
	}

	var res videoEnvelope
	if err := json.Unmarshal(raw, &res); err != nil {
		k.logger.Error(err, "Failed to unmarshal the video submission response")
		return "", &domain.UpstreamError{Service: videoService, Message: "malformed video response"}
	}
	if res.Code != 0 && res.Code != 200 {
		msg := res.Msg
		if msg == "" {
			msg = "video request failed"
		}
		return "", &domain.UpstreamError{Service: videoService, Message: msg}
	}
	if res.Data.TaskID == "" {
		return "", &domain.UpstreamError{Service: videoService, Message: "video task ID missing"}
	}
	return res.Data.TaskID, nil
}

func (k *kieVideoClient) GetVideoStatus(ctx context.Context, taskID string) (outbound.VideoStatus, error) {
	if k.kieConfig.ApiKey == "" {
		return outbound.VideoStatus{}, &domain.ConfigurationError{Name: "KIE_API_KEY"}
	}

	statusUrl := k.kieConfig.StatusUrl + "?taskId=" + url.QueryEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusUrl, nil)
	if err != nil {
		k.logger.Error(err, "Failed to create the video status request")
		return outbound.VideoStatus{}, err
	}
	req.Header.Set("Authorization", "Bearer "+k.kieConfig.ApiKey)

	raw, err := k.statusFetcher.FetchContent(req, videoService)
	if err != nil {
		return outbound.VideoStatus{}, err
	}

	var res videoEnvelope
	if err := json.Unmarshal(raw, &res); err != nil {
		k.logger.Error(err, "Failed to unmarshal the video status response")
		return outbound.VideoStatus{}, &domain.UpstreamError{Service: videoService, Message: "malformed video status response"}
	}
	if res.Code != 0 && res.Code != 200 {
		msg := res.Msg
		if msg == "" {
			msg = "video status failed"
		}
		return outbound.VideoStatus{}, &domain.UpstreamError{Service: videoService, Message: msg}
	}

	switch strings.ToLower(res.Data.State) {
	case "success":
		videoURL := res.Data.VideoInfo.VideoURL
		if videoURL == "" {
			videoURL = res.Data.VideoInfo.URL
		}
		if videoURL == "" {
			videoURL = res.Data.VideoURL
		}
		// Never surface a success with no playable asset.
		if videoURL == "" {
			return outbound.VideoStatus{State: domain.TaskFail, Err: "Missing video URL."}, nil
		}
		return outbound.VideoStatus{State: domain.TaskSuccess, VideoURL: videoURL}, nil
	case "fail", "failed":
		errMsg := res.Data.Error
		if errMsg == "" {
			errMsg = "Video failed."
		}
		return outbound.VideoStatus{State: domain.TaskFail, Err: errMsg}, nil
	default:
		// Unrecognized states mean "not done yet", never success or failure.
		return outbound.VideoStatus{State: domain.TaskPending}, nil
	}
}
