package pipeline

import (
	"time"

	"murmur/internal/merge"
	"murmur/internal/output"
	"murmur/internal/postfilter"
	"murmur/internal/transcript"
)

// Artifact is one written output file.
type Artifact struct {
	Format output.Format `json:"format"`
	Path   string        `json:"path"`
}

// StageTiming records how long a stage took.
type StageTiming struct {
	Stage   string  `json:"stage"`
	Seconds float64 `json:"seconds"`
}

// Report summarizes a run. It is returned even when the run fails, with
// FailedStage and Error set.
type Report struct {
	RunID         string               `json:"run_id"`
	Input         string               `json:"input"`
	Engine        string               `json:"engine,omitempty"`
	AudioSeconds  float64              `json:"audio_seconds"`
	Chunks        int                  `json:"chunks"`
	CacheHits     int                  `json:"cache_hits"`
	Segments      int                  `json:"segments"`
	Outputs       []Artifact           `json:"outputs,omitempty"`
	AudioOut      string               `json:"audio_out,omitempty"`
	Gaps          []transcript.Gap     `json:"gaps,omitempty"`
	LowConfidence []transcript.Segment `json:"low_confidence,omitempty"`
	Filtered      []postfilter.Removal `json:"filtered,omitempty"`
	Merge         merge.Stats          `json:"merge"`
	Stages        []StageTiming        `json:"stages,omitempty"`
	FailedStage   string               `json:"failed_stage,omitempty"`
	Error         string               `json:"error,omitempty"`
	LogPath       string               `json:"log_path,omitempty"`
	ElapsedSecs   float64              `json:"elapsed_seconds"`
	started       time.Time
}

// Partial reports whether the run succeeded with gaps.
func (r *Report) Partial() bool {
	return r != nil && r.Error == "" && len(r.Gaps) > 0
}

func (r *Report) timeStage(stage string, started time.Time) {
	r.Stages = append(r.Stages, StageTiming{Stage: stage, Seconds: time.Since(started).Seconds()})
}
