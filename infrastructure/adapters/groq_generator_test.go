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

func completionBody(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	})
	return string(payload)
}

func newGroqFixture(handler http.HandlerFunc) (outbound.CreativeGeneratorPort, *httptest.Server) {
	server := httptest.NewServer(handler)
	logger := NewZerologWrapper()
	fetcher := NewContentFetcher(logger, 5*time.Second)
	generator := NewGroqGenerator(fetcher, &config.GroqConfig{
		ApiUrl: server.URL,
		ApiKey: "test-key",
		Model:  "test-model",
	}, logger)
	return generator, server
}

func setParams() outbound.GenerateCreativeSetParams {
	return outbound.GenerateCreativeSetParams{
		Persona:     "busy parent",
		Market:      "US skincare",
		FunnelStage: "Full",
		SetID:       "SET-ABCDEF0123",
	}
}

func TestGroqGenerator_MissingKeyFailsBeforeNetwork(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	logger := NewZerologWrapper()
	noKey := NewGroqGenerator(NewContentFetcher(logger, time.Second), &config.GroqConfig{
		ApiUrl: server.URL,
		Model:  "test-model",
	}, logger)

	_, err := noKey.GenerateCreativeSet(context.Background(), setParams())
	var configErr *domain.ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError, got: %v", err)
	}
	if hits != 0 {
		t.Fatal("no network call may happen without a credential")
	}
}

func TestGroqGenerator_ParsesFirstAttempt(t *testing.T) {
	var gotAuth string
	generator, server := newGroqFixture(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, completionBody(`{"set_id": "SET-ABCDEF0123"}`))
	})
	defer server.Close()

	payload, err := generator.GenerateCreativeSet(context.Background(), setParams())
	if err != nil {
		t.Fatalf("GenerateCreativeSet failed: %v", err)
	}
	if payload["set_id"] != "SET-ABCDEF0123" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
}

func TestGroqGenerator_RetriesOnceWithLoweredTemperature(t *testing.T) {
	var requests []chatRequest
	generator, server := newGroqFixture(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		_ = json.Unmarshal(body, &req)
		requests = append(requests, req)

		if len(requests) == 1 {
			io.WriteString(w, completionBody("Sure! Here is your JSON: {..."))
			return
		}
		io.WriteString(w, completionBody(`{"ok": true}`))
	})
	defer server.Close()

	payload, err := generator.GenerateCreativeSet(context.Background(), setParams())
	if err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if payload["ok"] != true {
		t.Fatalf("unexpected payload: %v", payload)
	}

	if len(requests) != 2 {
		t.Fatalf("expected exactly 2 requests, got %d", len(requests))
	}
	if requests[0].Temperature != 0.7 || requests[1].Temperature != 0.2 {
		t.Fatalf("temperatures: %v / %v", requests[0].Temperature, requests[1].Temperature)
	}
	if !strings.Contains(requests[1].Messages[0].Content, "failed to parse") {
		t.Fatal("retry must carry the strict-format reminder")
	}
}

func TestGroqGenerator_FailsPermanentlyWithBothParseErrors(t *testing.T) {
	calls := 0
	generator, server := newGroqFixture(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, completionBody("still not json"))
	})
	defer server.Close()

	_, err := generator.GenerateCreativeSet(context.Background(), setParams())
	if err == nil || !strings.Contains(err.Error(), "invalid JSON from model") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "/") {
		t.Fatalf("error must include both parse errors: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
}

func TestGroqGenerator_UpstreamStatusError(t *testing.T) {
	generator, server := newGroqFixture(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer server.Close()

	_, err := generator.GenerateCreativeSet(context.Background(), setParams())
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) || upstreamErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGroqGenerator_EmptyContent(t *testing.T) {
	generator, server := newGroqFixture(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, completionBody(""))
	})
	defer server.Close()

	_, err := generator.GenerateCreativeSet(context.Background(), setParams())
	if err == nil || !strings.Contains(err.Error(), "empty response") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGroqGenerator_SingleCreativePromptEmbedsFeedback(t *testing.T) {
	var userPrompt string
	generator, server := newGroqFixture(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		_ = json.Unmarshal(body, &req)
		userPrompt = req.Messages[1].Content
		io.WriteString(w, completionBody(`{"ad_label": "E"}`))
	})
	defer server.Close()

	_, err := generator.GenerateSingleCreative(context.Background(), outbound.GenerateSingleCreativeParams{
		AdLabel: "E", Persona: "p", Market: "m", FunnelStage: "Mid",
		Language: "EN", VideoID: "V4", Feedback: "shorter and punchier",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(userPrompt, "shorter and punchier") {
		t.Fatal("prompt must embed the user feedback")
	}
	if !strings.Contains(userPrompt, `"reused": true`) {
		t.Fatal("label E prompt must fix reused to true")
	}
}
