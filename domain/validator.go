package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ExpectedCreativeRow is one row of the fixed label mapping. An empty
// FunnelStage leaves the stage unconstrained for that label.
type ExpectedCreativeRow struct {
	FunnelStage FunnelStage
	Language    Language
	VideoID     string
	Reused      bool
}

// ExpectedMapping is the fixed 7-label contract every generated set must
// match. Label G's funnel stage is intentionally unconstrained.
var ExpectedMapping = map[string]ExpectedCreativeRow{
	"A": {FunnelStage: AwarenessStage, Language: LanguageEN, VideoID: "V1", Reused: false},
	"B": {FunnelStage: AwarenessStage, Language: LanguageEN, VideoID: "V2", Reused: false},
	"C": {FunnelStage: AwarenessStage, Language: LanguageEN, VideoID: "V3", Reused: false},
	"D": {FunnelStage: MidStage, Language: LanguageEN, VideoID: "V4", Reused: false},
	"E": {FunnelStage: MidStage, Language: LanguageEN, VideoID: "V4", Reused: true},
	"F": {FunnelStage: ConversionStage, Language: LanguageEN, VideoID: "V5", Reused: false},
	"G": {FunnelStage: "", Language: LanguageES, VideoID: "V4", Reused: true},
}

var funnelStageSet = map[string]bool{
	string(AwarenessStage):  true,
	string(MidStage):        true,
	string(ConversionStage): true,
	string(FullStage):       true,
}

var requiredTopLevelKeys = []string{"set_id", "inputs", "videos", "creatives"}
var requiredInputKeys = []string{"persona", "market", "funnel_stage"}
var requiredVideoKeys = []string{"video_id", "prompt"}
var requiredCreativeKeys = []string{
	"ad_label", "funnel_stage", "language", "headline",
	"primary_text", "cta", "video_id", "reused",
}

func hasExactKeys(obj map[string]any, required []string) bool {
	if len(obj) != len(required) {
		return false
	}
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			return false
		}
	}
	return true
}

func stringField(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key].(string)
	return v, ok
}

func nonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ValidatePayload checks a full generated creative set against the fixed
// structural and semantic contract. It is pure, performs no I/O, and stops
// at the first failing check. The payload is the raw decoded JSON object so
// exact key sets can be verified.
func ValidatePayload(payload map[string]any, expected RunInputs, expectedSetID string) error {
	if payload == nil {
		return &SchemaError{Message: "Response is not a JSON object."}
	}
	if !hasExactKeys(payload, requiredTopLevelKeys) {
		return &SchemaError{Message: "JSON schema mismatch."}
	}
	if setID, ok := stringField(payload, "set_id"); !ok || setID != expectedSetID {
		return &SchemaError{Message: "Set ID mismatch."}
	}

	inputs, ok := payload["inputs"].(map[string]any)
	if !ok || !hasExactKeys(inputs, requiredInputKeys) {
		return &SchemaError{Message: "Inputs schema mismatch."}
	}
	// Each input must be a string, not merely compare equal: a non-string
	// value would match an empty expected input and then blow up decode.
	if v, ok := stringField(inputs, "persona"); !ok || v != expected.Persona {
		return &SchemaError{Message: "Persona mismatch."}
	}
	if v, ok := stringField(inputs, "market"); !ok || v != expected.Market {
		return &SchemaError{Message: "Market mismatch."}
	}
	if v, ok := stringField(inputs, "funnel_stage"); !ok || v != expected.FunnelStage {
		return &SchemaError{Message: "Funnel stage mismatch."}
	}

	videos, ok := payload["videos"].([]any)
	if !ok || len(videos) != 5 {
		return &SchemaError{Message: "Videos array must contain exactly 5 items."}
	}
	videoIDs := make([]string, 0, 5)
	prompts := make(map[string]bool, 5)
	for _, item := range videos {
		video, ok := item.(map[string]any)
		if !ok || !hasExactKeys(video, requiredVideoKeys) {
			return &SchemaError{Message: "Video schema mismatch."}
		}
		id, _ := stringField(video, "video_id")
		videoIDs = append(videoIDs, id)
		prompt, ok := stringField(video, "prompt")
		if !ok || !nonEmpty(prompt) {
			return &SchemaError{Message: "Video prompt missing."}
		}
		prompts[prompt] = true
	}
	sort.Strings(videoIDs)
	if strings.Join(videoIDs, ",") != "V1,V2,V3,V4,V5" {
		return &SchemaError{Message: "Video IDs must be V1-V5."}
	}
	if len(prompts) != 5 {
		return &SchemaError{Message: "Video prompts must be distinct."}
	}

	creatives, ok := payload["creatives"].([]any)
	if !ok || len(creatives) != 7 {
		return &SchemaError{Message: "Creatives array must contain exactly 7 items."}
	}
	labels := make([]string, 0, 7)
	for _, item := range creatives {
		creative, ok := item.(map[string]any)
		if !ok || !hasExactKeys(creative, requiredCreativeKeys) {
			return &SchemaError{Message: "Creative schema mismatch."}
		}
		label, _ := stringField(creative, "ad_label")
		labels = append(labels, label)
		if stage, _ := stringField(creative, "funnel_stage"); !funnelStageSet[stage] {
			return &SchemaError{Message: "Invalid funnel stage in creative."}
		}
		if lang, _ := stringField(creative, "language"); lang != string(LanguageEN) && lang != string(LanguageES) {
			return &SchemaError{Message: "Invalid language in creative."}
		}
		for _, field := range []string{"headline", "primary_text", "cta"} {
			if v, ok := stringField(creative, field); !ok || !nonEmpty(v) {
				return &SchemaError{Message: fmt.Sprintf("Missing creative field: %s.", field)}
			}
		}
	}
	sort.Strings(labels)
	if strings.Join(labels, ",") != "A,B,C,D,E,F,G" {
		return &SchemaError{Message: "Creatives must be labeled A-G."}
	}

	for _, item := range creatives {
		creative := item.(map[string]any)
		label, _ := stringField(creative, "ad_label")
		if err := checkMappingRow(creative, label); err != nil {
			return err
		}
	}

	return nil
}

func checkMappingRow(creative map[string]any, label string) error {
	expected, ok := ExpectedMapping[label]
	if !ok {
		return &SchemaError{Message: fmt.Sprintf("Unknown ad label: %s", label)}
	}
	if lang, _ := stringField(creative, "language"); lang != string(expected.Language) {
		return &SchemaError{Message: fmt.Sprintf("Language mismatch for Ad %s.", label)}
	}
	if videoID, _ := stringField(creative, "video_id"); videoID != expected.VideoID {
		return &SchemaError{Message: fmt.Sprintf("Video mapping mismatch for Ad %s.", label)}
	}
	reused, _ := creative["reused"].(bool)
	if reused != expected.Reused {
		return &SchemaError{Message: fmt.Sprintf("Reused flag mismatch for Ad %s.", label)}
	}
	if expected.FunnelStage != "" {
		if stage, _ := stringField(creative, "funnel_stage"); stage != string(expected.FunnelStage) {
			return &SchemaError{Message: fmt.Sprintf("Funnel stage mismatch for Ad %s.", label)}
		}
	}
	return nil
}

// ValidateSingleCreative checks one regenerated item against its label's
// mapping row, plus the requirement that the echoed label matches the one
// requested.
func ValidateSingleCreative(data map[string]any, adLabel string) error {
	if data == nil {
		return &SchemaError{Message: "Response is not a JSON object."}
	}

	missing := make([]string, 0)
	for _, key := range requiredCreativeKeys {
		if _, ok := data[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Message: fmt.Sprintf("Missing fields: %s", strings.Join(missing, ", "))}
	}

	if got, _ := stringField(data, "ad_label"); got != adLabel {
		return &SchemaError{Message: fmt.Sprintf("Expected ad_label '%s', got '%s'.", adLabel, got)}
	}
	if err := checkMappingRow(data, adLabel); err != nil {
		return err
	}
	for _, field := range []string{"headline", "primary_text", "cta"} {
		if v, ok := stringField(data, field); !ok || !nonEmpty(v) {
			return &SchemaError{Message: fmt.Sprintf("Missing creative field: %s.", field)}
		}
	}
	return nil
}

// DecodeCreativeSet converts a payload into typed form. The payload must
// have passed ValidatePayload first.
func DecodeCreativeSet(payload map[string]any) CreativeSet {
	inputs := payload["inputs"].(map[string]any)
	set := CreativeSet{
		SetID: payload["set_id"].(string),
		Inputs: RunInputs{
			Persona:     inputs["persona"].(string),
			Market:      inputs["market"].(string),
			FunnelStage: inputs["funnel_stage"].(string),
		},
	}
	for _, item := range payload["videos"].([]any) {
		video := item.(map[string]any)
		set.Videos = append(set.Videos, VideoSpec{
			VideoID: video["video_id"].(string),
			Prompt:  video["prompt"].(string),
		})
	}
	for _, item := range payload["creatives"].([]any) {
		set.Creatives = append(set.Creatives, DecodeCreative(item.(map[string]any)))
	}
	return set
}

// DecodeCreative converts one validated creative object into typed form.
func DecodeCreative(data map[string]any) Creative {
	reused, _ := data["reused"].(bool)
	return Creative{
		AdLabel:     data["ad_label"].(string),
		FunnelStage: FunnelStage(data["funnel_stage"].(string)),
		Language:    Language(data["language"].(string)),
		Headline:    data["headline"].(string),
		PrimaryText: data["primary_text"].(string),
		CTA:         data["cta"].(string),
		VideoID:     data["video_id"].(string),
		Reused:      reused,
	}
}
