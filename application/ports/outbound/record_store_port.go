package outbound

import (
	"context"

	"creative-ads-pipeline/domain"
)

// SchemaReport describes the record store's discovered schema relative to
// the required property set.
type SchemaReport struct {
	OK      bool
	Types   map[string]string
	Missing []string
}

type CreativeQuery struct {
	SetID       string
	NewestFirst bool
}

type RegeneratedCopy struct {
	Headline    string
	PrimaryText string
	CTA         string
	Iteration   int
}

// RecordStorePort persists creatives to the external structured record
// store and reads them back as display cards. Implementations own the
// dynamically-typed property mapping; callers speak in domain values only.
type RecordStorePort interface {
	CheckSchema(ctx context.Context) (SchemaReport, error)
	CreateCreativeRecord(ctx context.Context, creative domain.Creative, inputs domain.RunInputs, setID string) (string, error)
	UpdateVideoResult(ctx context.Context, pageID string, videoURL string, status string) error
	UpdateCreativeCopy(ctx context.Context, pageID string, copy RegeneratedCopy) error
	UpdateTag(ctx context.Context, pageID string, tag string) error
	UpdateNotes(ctx context.Context, pageID string, notes string) error
	QueryCreatives(ctx context.Context, query CreativeQuery) ([]domain.CreativeCard, error)
}
