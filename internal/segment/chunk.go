package segment

import "murmur/internal/audio"

// Cut reasons recorded on each chunk's trailing boundary.
const (
	CutSilence = "silence"
	CutWindow  = "window"
	CutHard    = "hard"
	CutEnd     = "end"
)

// Chunk is a contiguous range of the waveform submitted to inference as one
// unit. Start and End include the overlap margin; CutStart and CutEnd are the
// nominal boundaries chosen by the planner. All offsets are in samples.
type Chunk struct {
	Index      int
	Start      int
	End        int
	CutStart   int
	CutEnd     int
	SampleRate int
	Reason     string
}

// Len returns the chunk length in samples.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// StartSeconds returns the chunk start, overlap included, in seconds.
func (c Chunk) StartSeconds() float64 {
	return c.seconds(c.Start)
}

// EndSeconds returns the chunk end, overlap included, in seconds.
func (c Chunk) EndSeconds() float64 {
	return c.seconds(c.End)
}

// Duration returns the chunk length in seconds.
func (c Chunk) Duration() float64 {
	return c.seconds(c.Len())
}

// CutStartSeconds returns the nominal start boundary in seconds.
func (c Chunk) CutStartSeconds() float64 {
	return c.seconds(c.CutStart)
}

// CutEndSeconds returns the nominal end boundary in seconds.
func (c Chunk) CutEndSeconds() float64 {
	return c.seconds(c.CutEnd)
}

// Samples returns the chunk's view of w.
func (c Chunk) Samples(w audio.Waveform) []float32 {
	return w.Slice(c.Start, c.End)
}

func (c Chunk) seconds(samples int) float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(samples) / float64(c.SampleRate)
}
