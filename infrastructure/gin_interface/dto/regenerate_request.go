package dto

type RegenerateRequest struct {
	PageID           string `json:"page_id" binding:"required"`
	AdLabel          string `json:"ad_label" binding:"required"`
	Persona          string `json:"persona" binding:"required"`
	Market           string `json:"market" binding:"required"`
	FunnelStage      string `json:"funnel_stage"`
	Language         string `json:"language"`
	VideoID          string `json:"video_id"`
	Feedback         string `json:"feedback" binding:"required"`
	CurrentIteration int    `json:"current_iteration"`
}
