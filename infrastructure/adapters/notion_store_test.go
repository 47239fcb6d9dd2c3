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

func fullSchemaTypes() map[string]string {
	types := map[string]string{
		"Tag":       "select",
		"Iteration": "number",
		"Notes":     "rich_text",
	}
	for name, propType := range defaultPropertyTypes {
		types[name] = propType
	}
	return types
}

func schemaBody(types map[string]string) string {
	properties := make(map[string]any, len(types))
	for name, propType := range types {
		properties[name] = map[string]any{"type": propType}
	}
	payload, _ := json.Marshal(map[string]any{"properties": properties})
	return string(payload)
}

func sampleCreative() domain.Creative {
	return domain.Creative{
		AdLabel:     "E",
		FunnelStage: domain.MidStage,
		Language:    domain.LanguageEN,
		Headline:    "Glow in five minutes",
		PrimaryText: "Skincare that fits your morning.",
		CTA:         "Shop now",
		VideoID:     "V4",
		Reused:      true,
	}
}

func sampleInputs() domain.RunInputs {
	return domain.RunInputs{Persona: "busy parent", Market: "US skincare", FunnelStage: "Full"}
}

func newNotionFixture(handler http.HandlerFunc) (outbound.RecordStorePort, *httptest.Server) {
	server := httptest.NewServer(handler)
	logger := NewZerologWrapper()
	store := NewNotionStore(NewContentFetcher(logger, 5*time.Second), &config.NotionConfig{
		BaseUrl:    server.URL,
		ApiKey:     "notion-key",
		DatabaseID: "db-1",
		Version:    "2022-06-28",
	}, logger)
	return store, server
}

func TestNotionStore_SchemaCachedAfterFirstFetch(t *testing.T) {
	schemaHits := 0
	store, server := newNotionFixture(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/databases/") {
			schemaHits++
			io.WriteString(w, schemaBody(fullSchemaTypes()))
			return
		}
		io.WriteString(w, `{"id": "page-1"}`)
	})
	defer server.Close()

	ctx := context.Background()
	if _, err := store.CheckSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CheckSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateCreativeRecord(ctx, sampleCreative(), sampleInputs(), "SET-1"); err != nil {
		t.Fatal(err)
	}
	if schemaHits != 1 {
		t.Fatalf("schema must be fetched once, got %d fetches", schemaHits)
	}
}

func TestNotionStore_CheckSchemaReportsMissing(t *testing.T) {
	types := fullSchemaTypes()
	delete(types, "CTA")
	delete(types, "Status")
	store, server := newNotionFixture(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, schemaBody(types))
	})
	defer server.Close()

	report, err := store.CheckSchema(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.OK {
		t.Fatal("report should not be OK")
	}
	if len(report.Missing) != 2 {
		t.Fatalf("missing: %v", report.Missing)
	}
}

func TestNotionStore_CreateCreativeRecord(t *testing.T) {
	var createBody map[string]any
	store, server := newNotionFixture(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			io.WriteString(w, schemaBody(fullSchemaTypes()))
		case r.Method == http.MethodPost && r.URL.Path == "/pages":
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &createBody)
			if r.Header.Get("Notion-Version") != "2022-06-28" {
				t.Errorf("version header missing")
			}
			io.WriteString(w, `{"id": "page-42"}`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	defer server.Close()

	pageID, err := store.CreateCreativeRecord(context.Background(), sampleCreative(), sampleInputs(), "SET-1")
	if err != nil {
		t.Fatalf("CreateCreativeRecord failed: %v", err)
	}
	if pageID != "page-42" {
		t.Fatalf("page id: %s", pageID)
	}

	parent := createBody["parent"].(map[string]any)
	if parent["type"] != "database_id" || parent["database_id"] != "db-1" {
		t.Fatalf("parent: %v", parent)
	}

	properties := createBody["properties"].(map[string]any)
	setID := properties["Set ID"].(map[string]any)
	if _, ok := setID["title"]; !ok {
		t.Fatalf("Set ID should be boxed as title: %v", setID)
	}
	reused := properties["Reused?"].(map[string]any)
	if reused["checkbox"] != true {
		t.Fatalf("Reused?: %v", reused)
	}
	if _, ok := properties["Video URL"]; ok {
		t.Fatal("empty Video URL must be omitted at creation")
	}
	tag := properties["Tag"].(map[string]any)
	if tag["select"].(map[string]any)["name"] != "Draft" {
		t.Fatalf("Tag default: %v", tag)
	}
	iteration := properties["Iteration"].(map[string]any)
	if iteration["number"] != float64(1) {
		t.Fatalf("Iteration default: %v", iteration)
	}
	status := properties["Status"].(map[string]any)
	if status["status"].(map[string]any)["name"] != domain.StatusNotStarted {
		t.Fatalf("Status: %v", status)
	}
}

func TestBuildCreativeProperties_FailsFastNamingEveryMissingField(t *testing.T) {
	types := fullSchemaTypes()
	delete(types, "Headline")
	delete(types, "Video URL")

	_, err := buildCreativeProperties(sampleCreative(), sampleInputs(), "SET-1", nil,
		domain.StatusNotStarted, types, "Draft", 1)
	var incompleteErr *domain.SchemaIncompleteError
	if !errors.As(err, &incompleteErr) {
		t.Fatalf("expected SchemaIncompleteError, got: %v", err)
	}
	if len(incompleteErr.Missing) != 2 {
		t.Fatalf("missing: %v", incompleteErr.Missing)
	}
	if !strings.Contains(err.Error(), "Headline") || !strings.Contains(err.Error(), "Video URL") {
		t.Fatalf("error must name every missing field: %v", err)
	}
}

func TestNotionStore_DiscoveryFailureFallsBackToDefaults(t *testing.T) {
	var createBody map[string]any
	store, server := newNotionFixture(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/pages":
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &createBody)
			io.WriteString(w, `{"id": "page-7"}`)
		}
	})
	defer server.Close()

	pageID, err := store.CreateCreativeRecord(context.Background(), sampleCreative(), sampleInputs(), "SET-1")
	if err != nil {
		t.Fatalf("creation must survive a failed schema read: %v", err)
	}
	if pageID != "page-7" {
		t.Fatalf("page id: %s", pageID)
	}
	properties := createBody["properties"].(map[string]any)
	if _, ok := properties["Set ID"].(map[string]any)["title"]; !ok {
		t.Fatal("default types must box Set ID as title")
	}
	// Tag and Iteration are absent from the default table.
	if _, ok := properties["Tag"]; ok {
		t.Fatal("optional Tag must be skipped without a declared type")
	}
}

func TestNotionStore_UpdateVideoResultSendsMinimalPayload(t *testing.T) {
	var patchBody map[string]any
	store, server := newNotionFixture(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, schemaBody(fullSchemaTypes()))
		case http.MethodPatch:
			if r.URL.Path != "/pages/page-42" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &patchBody)
			io.WriteString(w, `{"id": "page-42"}`)
		}
	})
	defer server.Close()

	err := store.UpdateVideoResult(context.Background(), "page-42", "https://v/4.mp4", domain.StatusGenerated)
	if err != nil {
		t.Fatal(err)
	}
	properties := patchBody["properties"].(map[string]any)
	if len(properties) != 2 {
		t.Fatalf("update must touch only Video URL and Status: %v", properties)
	}
	if properties["Video URL"].(map[string]any)["url"] != "https://v/4.mp4" {
		t.Fatalf("url: %v", properties["Video URL"])
	}

	// A failed video sends status only; the URL stays untouched.
	err = store.UpdateVideoResult(context.Background(), "page-42", "", domain.StatusIterating)
	if err != nil {
		t.Fatal(err)
	}
	properties = patchBody["properties"].(map[string]any)
	if len(properties) != 1 {
		t.Fatalf("fail update must carry status only: %v", properties)
	}
	if properties["Status"].(map[string]any)["status"].(map[string]any)["name"] != domain.StatusIterating {
		t.Fatalf("status: %v", properties["Status"])
	}
}

func TestNotionStore_UpdateCreativeCopy(t *testing.T) {
	var patchBody map[string]any
	store, server := newNotionFixture(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, schemaBody(fullSchemaTypes()))
		case http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &patchBody)
			io.WriteString(w, `{"id": "page-42"}`)
		}
	})
	defer server.Close()

	err := store.UpdateCreativeCopy(context.Background(), "page-42", outbound.RegeneratedCopy{
		Headline:    "Fresh headline",
		PrimaryText: "Fresh primary",
		CTA:         "Fresh CTA",
		Iteration:   3,
	})
	if err != nil {
		t.Fatal(err)
	}
	properties := patchBody["properties"].(map[string]any)
	for _, name := range []string{"Headline", "Primary Text", "CTA", "Status", "Iteration"} {
		if _, ok := properties[name]; !ok {
			t.Fatalf("missing %s in copy update: %v", name, properties)
		}
	}
	if properties["Iteration"].(map[string]any)["number"] != float64(3) {
		t.Fatalf("iteration: %v", properties["Iteration"])
	}
}

func TestNotionStore_QueryUsesTitleFilterForTitleSetID(t *testing.T) {
	var queryBody map[string]any
	store, server := newNotionFixture(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			io.WriteString(w, schemaBody(fullSchemaTypes()))
		case strings.HasSuffix(r.URL.Path, "/query"):
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &queryBody)
			io.WriteString(w, `{"results": []}`)
		}
	})
	defer server.Close()

	_, err := store.QueryCreatives(context.Background(), outbound.CreativeQuery{SetID: "SET-1", NewestFirst: true})
	if err != nil {
		t.Fatal(err)
	}
	filter := queryBody["filter"].(map[string]any)
	if filter["property"] != "Set ID" {
		t.Fatalf("filter: %v", filter)
	}
	if _, ok := filter["title"]; !ok {
		t.Fatalf("Set ID is a title property, filter must match: %v", filter)
	}
	sorts := queryBody["sorts"].([]any)
	if sorts[0].(map[string]any)["direction"] != "descending" {
		t.Fatalf("sorts: %v", sorts)
	}
}

// writeToReadProperty converts a write-format property bag entry into the
// shape the store sends back on reads.
func writeToReadProperty(prop map[string]any) map[string]any {
	for propType, value := range prop {
		read := map[string]any{"type": propType}
		switch propType {
		case "title", "rich_text":
			items := value.([]any)
			converted := make([]any, 0, len(items))
			for _, item := range items {
				text := item.(map[string]any)["text"].(map[string]any)["content"].(string)
				converted = append(converted, map[string]any{"plain_text": text})
			}
			read[propType] = converted
		default:
			read[propType] = value
		}
		return read
	}
	return nil
}

func TestNotionStore_PropertyRoundTrip(t *testing.T) {
	creative := sampleCreative()
	inputs := sampleInputs()
	properties, err := buildCreativeProperties(creative, inputs, "SET-1",
		"https://v/4.mp4", domain.StatusGenerated, fullSchemaTypes(), "Winner", 2)
	if err != nil {
		t.Fatal(err)
	}

	readProps := make(map[string]map[string]any, len(properties))
	for name, prop := range properties {
		readProps[name] = writeToReadProperty(prop.(map[string]any))
	}

	card := extractCard(notionPage{ID: "page-9", Properties: readProps})
	if card.PageID != "page-9" {
		t.Fatalf("page id: %s", card.PageID)
	}
	if card.SetID != "SET-1" || card.Persona != inputs.Persona || card.Market != inputs.Market {
		t.Fatalf("inputs round trip: %+v", card)
	}
	if card.AdLabel != creative.AdLabel || card.Headline != creative.Headline ||
		card.PrimaryText != creative.PrimaryText || card.CTA != creative.CTA {
		t.Fatalf("copy round trip: %+v", card)
	}
	if card.FunnelStage != string(creative.FunnelStage) || card.Language != string(creative.Language) {
		t.Fatalf("enum round trip: %+v", card)
	}
	if !card.Reused || card.VideoID != "V4" || card.VideoURL != "https://v/4.mp4" {
		t.Fatalf("video round trip: %+v", card)
	}
	if card.Status != domain.StatusGenerated || card.Tag != "Winner" || card.Iteration != 2 {
		t.Fatalf("mutable fields round trip: %+v", card)
	}
}

func TestNotionStore_DataSourceParent(t *testing.T) {
	var createBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			io.WriteString(w, schemaBody(fullSchemaTypes()))
		case r.URL.Path == "/pages":
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &createBody)
			io.WriteString(w, `{"id": "page-1"}`)
		}
	}))
	defer server.Close()

	logger := NewZerologWrapper()
	store := NewNotionStore(NewContentFetcher(logger, time.Second), &config.NotionConfig{
		BaseUrl:      server.URL,
		ApiKey:       "notion-key",
		DatabaseID:   "db-1",
		DataSourceID: "ds-9",
		Version:      "2022-06-28",
	}, logger)

	if _, err := store.CreateCreativeRecord(context.Background(), sampleCreative(), sampleInputs(), "SET-1"); err != nil {
		t.Fatal(err)
	}
	parent := createBody["parent"].(map[string]any)
	if parent["type"] != "data_source_id" || parent["data_source_id"] != "ds-9" {
		t.Fatalf("parent: %v", parent)
	}
}
