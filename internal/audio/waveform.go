package audio

import "math"

// Waveform is decoded mono PCM. Samples are in [-1, 1] at SampleRate Hz. A
// Waveform is never modified after decoding; callers slice it but do not write.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Len returns the number of samples.
func (w Waveform) Len() int {
	return len(w.Samples)
}

// Duration returns the length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Seconds converts a sample offset to seconds.
func (w Waveform) Seconds(offset int) float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(offset) / float64(w.SampleRate)
}

// Offset converts seconds to the nearest sample offset, clipped to the waveform.
func (w Waveform) Offset(seconds float64) int {
	n := int(math.Round(seconds * float64(w.SampleRate)))
	switch {
	case n < 0:
		return 0
	case n > len(w.Samples):
		return len(w.Samples)
	default:
		return n
	}
}

// Slice returns samples[start:end] clipped to the waveform bounds.
func (w Waveform) Slice(start, end int) []float32 {
	if start < 0 {
		start = 0
	}
	if end > len(w.Samples) {
		end = len(w.Samples)
	}
	if start >= end {
		return nil
	}
	return w.Samples[start:end]
}
