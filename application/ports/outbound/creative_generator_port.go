package outbound

import "context"

type GenerateCreativeSetParams struct {
	Persona     string
	Market      string
	FunnelStage string
	SetID       string
}

type GenerateSingleCreativeParams struct {
	AdLabel     string
	Persona     string
	Market      string
	FunnelStage string
	Language    string
	VideoID     string
	Feedback    string
}

// CreativeGeneratorPort produces structured creative payloads from the
// language-generation service. Responses are raw decoded JSON objects;
// schema validation is the caller's responsibility.
type CreativeGeneratorPort interface {
	GenerateCreativeSet(ctx context.Context, params GenerateCreativeSetParams) (map[string]any, error)
	GenerateSingleCreative(ctx context.Context, params GenerateSingleCreativeParams) (map[string]any, error)
}
