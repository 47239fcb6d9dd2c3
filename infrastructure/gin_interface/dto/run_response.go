package dto

type PollResponse struct {
	Pending               int  `json:"pending"`
	Succeeded             int  `json:"succeeded"`
	Failed                int  `json:"failed"`
	SuppressedStoreErrors int  `json:"suppressed_store_errors"`
	CeilingReached        bool `json:"ceiling_reached"`
	PollCount             int  `json:"poll_count"`
}

type VideoTaskView struct {
	TaskID   string `json:"task_id,omitempty"`
	Status   string `json:"status"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
}

type CreativeStatusView struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type RunResponse struct {
	SetID          string                        `json:"set_id"`
	Persona        string                        `json:"persona"`
	Market         string                        `json:"market"`
	FunnelStage    string                        `json:"funnel_stage"`
	RecordsCreated bool                          `json:"records_created"`
	VideoTasks     map[string]VideoTaskView      `json:"video_tasks"`
	Creatives      map[string]CreativeStatusView `json:"creatives"`
}

type SchemaResponse struct {
	OK      bool              `json:"ok"`
	Types   map[string]string `json:"types"`
	Missing []string          `json:"missing,omitempty"`
}
