package fasterwhisper

import "math"

type request struct {
	ID       int64  `json:"id"`
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	BeamSize int    `json:"beam_size,omitempty"`
}

type response struct {
	ID       int64        `json:"id"`
	Ready    bool         `json:"ready,omitempty"`
	Error    string       `json:"error,omitempty"`
	Language string       `json:"language,omitempty"`
	Segments []segmentDTO `json:"segments,omitempty"`
}

type segmentDTO struct {
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

// confidence converts the mean token log-probability to a probability.
func (s segmentDTO) confidence() float64 {
	return math.Exp(s.AvgLogprob)
}

// workerOptions is passed to the worker as its single argument.
type workerOptions struct {
	Model       string `json:"model"`
	Device      string `json:"device,omitempty"`
	ComputeType string `json:"compute_type,omitempty"`
}
