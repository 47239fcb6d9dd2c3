package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"creative-ads-pipeline/application/ports/outbound"
	"creative-ads-pipeline/config"
	"creative-ads-pipeline/domain"
)

func newKieFixture(handler http.HandlerFunc) (outbound.VideoJobsPort, *httptest.Server) {
	server := httptest.NewServer(handler)
	logger := NewZerologWrapper()
	submitFetcher := NewContentFetcher(logger, 5*time.Second)
	statusFetcher := NewContentFetcher(logger, 5*time.Second)
	client := NewKieVideoClient(submitFetcher, statusFetcher, &config.KieConfig{
		GenerateUrl: server.URL + "/generate",
		StatusUrl:   server.URL + "/record-detail",
		ApiKey:      "kie-key",
		CallbackUrl: "https://callback.example/hook",
	}, logger)
	return client, server
}

func TestKieVideoClient_SubmitCarriesFixedRenderSettings(t *testing.T) {
	var got map[string]any
	client, server := newKieFixture(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		io.WriteString(w, `{"code": 200, "data": {"taskId": "task-123"}}`)
	})
	defer server.Close()

	taskID, err := client.CreateVideoTask(context.Background(), "sunrise routine")
	if err != nil {
		t.Fatalf("CreateVideoTask failed: %v", err)
	}
	if taskID != "task-123" {
		t.Fatalf("task id: %s", taskID)
	}
	if got["prompt"] != "sunrise routine" || got["duration"] != float64(5) ||
		got["quality"] != "720p" || got["aspectRatio"] != "9:16" {
		t.Fatalf("unexpected payload: %v", got)
	}
	if got["callBackUrl"] != "https://callback.example/hook" {
		t.Fatalf("callback missing: %v", got)
	}
}

func TestKieVideoClient_SubmitMissingKey(t *testing.T) {
	logger := NewZerologWrapper()
	client := NewKieVideoClient(
		NewContentFetcher(logger, time.Second),
		NewContentFetcher(logger, time.Second),
		&config.KieConfig{GenerateUrl: "http://unused", StatusUrl: "http://unused"},
		logger,
	)
	_, err := client.CreateVideoTask(context.Background(), "prompt")
	var configErr *domain.ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError, got: %v", err)
	}
}

func TestKieVideoClient_SubmitEmbeddedFailureCode(t *testing.T) {
	client, server := newKieFixture(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"code": 402, "msg": "insufficient credits"}`)
	})
	defer server.Close()

	_, err := client.CreateVideoTask(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "insufficient credits") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestKieVideoClient_SubmitMissingTaskID(t *testing.T) {
	client, server := newKieFixture(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"code": 200, "data": {}}`)
	})
	defer server.Close()

	_, err := client.CreateVideoTask(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "task ID missing") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestKieVideoClient_StatusNormalization(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		state    domain.TaskState
		videoURL string
		errMsg   string
	}{
		{
			name:     "success with videoInfo url",
			body:     `{"code": 200, "data": {"state": "success", "videoInfo": {"videoUrl": "https://v/1.mp4"}}}`,
			state:    domain.TaskSuccess,
			videoURL: "https://v/1.mp4",
		},
		{
			name:     "uppercase success with fallback url",
			body:     `{"code": 200, "data": {"state": "SUCCESS", "videoInfo": {"url": "https://v/2.mp4"}}}`,
			state:    domain.TaskSuccess,
			videoURL: "https://v/2.mp4",
		},
		{
			name:     "success with top-level url",
			body:     `{"code": 200, "data": {"state": "success", "videoUrl": "https://v/3.mp4"}}`,
			state:    domain.TaskSuccess,
			videoURL: "https://v/3.mp4",
		},
		{
			name:   "success without any url downgrades to fail",
			body:   `{"code": 200, "data": {"state": "success"}}`,
			state:  domain.TaskFail,
			errMsg: "Missing video URL.",
		},
		{
			name:   "fail with error detail",
			body:   `{"code": 200, "data": {"state": "FAILED", "error": "nsfw filter"}}`,
			state:  domain.TaskFail,
			errMsg: "nsfw filter",
		},
		{
			name:   "fail without detail",
			body:   `{"code": 200, "data": {"state": "fail"}}`,
			state:  domain.TaskFail,
			errMsg: "Video failed.",
		},
		{
			name:  "unknown state is pending",
			body:  `{"code": 200, "data": {"state": "queueing"}}`,
			state: domain.TaskPending,
		},
		{
			name:  "generating state is pending",
			body:  `{"code": 200, "data": {"state": "generating"}}`,
			state: domain.TaskPending,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, server := newKieFixture(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("taskId") != "task-9" {
					t.Errorf("taskId query param missing: %s", r.URL.RawQuery)
				}
				io.WriteString(w, tc.body)
			})
			defer server.Close()

			status, err := client.GetVideoStatus(context.Background(), "task-9")
			if err != nil {
				t.Fatalf("GetVideoStatus failed: %v", err)
			}
			if status.State != tc.state || status.VideoURL != tc.videoURL || status.Err != tc.errMsg {
				t.Fatalf("got %+v", status)
			}
		})
	}
}

func TestKieVideoClient_StatusUpstreamError(t *testing.T) {
	client, server := newKieFixture(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.GetVideoStatus(context.Background(), "task-9")
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) || upstreamErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected error: %v", err)
	}
}
