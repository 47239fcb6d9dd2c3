package dto

type GenerateRequest struct {
	Persona     string `json:"persona" binding:"required"`
	Market      string `json:"market" binding:"required"`
	FunnelStage string `json:"funnel_stage" binding:"required"`
}

type GenerateResponse struct {
	SetID          string   `json:"set_id"`
	RecordsCreated bool     `json:"records_created"`
	Warnings       []string `json:"warnings,omitempty"`
}
