package domain

import "time"

type FunnelStage string

const (
	AwarenessStage  FunnelStage = "Awareness"
	MidStage        FunnelStage = "Mid"
	ConversionStage FunnelStage = "Conversion"
	FullStage       FunnelStage = "Full"
)

type Language string

const (
	LanguageEN Language = "EN"
	LanguageES Language = "ES"
)

type TaskState string

const (
	TaskPending TaskState = "pending"
	TaskSuccess TaskState = "success"
	TaskFail    TaskState = "fail"
)

// Record-store status vocabulary. "Generated" means the asset landed,
// "Iterating" means still working or needs attention.
const (
	StatusNotStarted = "Not started"
	StatusGenerated  = "Generated"
	StatusIterating  = "Iterating"
)

var TagOptions = []string{"Draft", "Testing", "Needs Revision", "Approved", "Winner"}

var FunnelStages = []FunnelStage{AwarenessStage, MidStage, ConversionStage, FullStage}

type RunInputs struct {
	Persona     string `json:"persona"`
	Market      string `json:"market"`
	FunnelStage string `json:"funnel_stage"`
}

type VideoSpec struct {
	VideoID string `json:"video_id"`
	Prompt  string `json:"prompt"`
}

type Creative struct {
	AdLabel     string      `json:"ad_label"`
	FunnelStage FunnelStage `json:"funnel_stage"`
	Language    Language    `json:"language"`
	Headline    string      `json:"headline"`
	PrimaryText string      `json:"primary_text"`
	CTA         string      `json:"cta"`
	VideoID     string      `json:"video_id"`
	Reused      bool        `json:"reused"`
}

type CreativeSet struct {
	SetID     string      `json:"set_id"`
	Inputs    RunInputs   `json:"inputs"`
	Videos    []VideoSpec `json:"videos"`
	Creatives []Creative  `json:"creatives"`
}

// VideoTask tracks one asynchronous render job. Terminal once Status is
// success or fail; only the polling loop mutates it after submission.
type VideoTask struct {
	TaskID     string
	Status     TaskState
	VideoURL   string
	Err        string
	Attempts   int
	NextPollAt time.Time
}

type CreativeStatus struct {
	Status string
	Err    string
}

// Run is one generation request's full lifecycle. Created once per request,
// never deleted, superseded when a new Run becomes active.
type Run struct {
	SetID          string
	Inputs         RunInputs
	Creatives      []Creative
	Videos         []VideoSpec
	VideoTasks     map[string]*VideoTask
	VideoURLs      map[string]string
	CreativeStatus map[string]*CreativeStatus
	RecordPages    map[string]string
	RecordsCreated bool
}

// CreativeCard is the display projection of one stored record.
type CreativeCard struct {
	PageID      string `json:"page_id"`
	SetID       string `json:"set_id"`
	Persona     string `json:"persona"`
	Market      string `json:"market"`
	FunnelStage string `json:"funnel_stage"`
	AdLabel     string `json:"ad_label"`
	Language    string `json:"language"`
	Headline    string `json:"headline"`
	PrimaryText string `json:"primary_text"`
	CTA         string `json:"cta"`
	VideoID     string `json:"video_id"`
	VideoURL    string `json:"video_url"`
	Reused      bool   `json:"reused"`
	Status      string `json:"status"`
	Tag         string `json:"tag"`
	Iteration   int    `json:"iteration"`
	Notes       string `json:"notes"`
	CreatedTime string `json:"created_time"`
}

type RegenerateResult struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Iteration   int    `json:"iteration,omitempty"`
	Headline    string `json:"headline,omitempty"`
	PrimaryText string `json:"primary_text,omitempty"`
	CTA         string `json:"cta,omitempty"`
}

func NewRun(setID string, inputs RunInputs, set CreativeSet) *Run {
	run := &Run{
		SetID:          setID,
		Inputs:         inputs,
		Creatives:      set.Creatives,
		Videos:         set.Videos,
		VideoTasks:     make(map[string]*VideoTask),
		VideoURLs:      make(map[string]string),
		CreativeStatus: make(map[string]*CreativeStatus),
		RecordPages:    make(map[string]string),
	}
	for _, c := range set.Creatives {
		run.CreativeStatus[c.AdLabel] = &CreativeStatus{Status: "pending"}
	}
	return run
}

// Clone returns a deep copy sharing no mutable state with the receiver.
// Readers get clones so in-flight polling never races a reader.
func (r *Run) Clone() *Run {
	clone := &Run{
		SetID:          r.SetID,
		Inputs:         r.Inputs,
		Creatives:      append([]Creative(nil), r.Creatives...),
		Videos:         append([]VideoSpec(nil), r.Videos...),
		VideoTasks:     make(map[string]*VideoTask, len(r.VideoTasks)),
		VideoURLs:      make(map[string]string, len(r.VideoURLs)),
		CreativeStatus: make(map[string]*CreativeStatus, len(r.CreativeStatus)),
		RecordPages:    make(map[string]string, len(r.RecordPages)),
		RecordsCreated: r.RecordsCreated,
	}
	for videoID, task := range r.VideoTasks {
		copied := *task
		clone.VideoTasks[videoID] = &copied
	}
	for videoID, url := range r.VideoURLs {
		clone.VideoURLs[videoID] = url
	}
	for label, status := range r.CreativeStatus {
		copied := *status
		clone.CreativeStatus[label] = &copied
	}
	for label, pageID := range r.RecordPages {
		clone.RecordPages[label] = pageID
	}
	return clone
}
