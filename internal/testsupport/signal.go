package testsupport

import "math"

// Tone returns seconds of a sine wave at freq Hz with the given amplitude.
func Tone(sampleRate int, seconds, freq, amplitude float64) []float32 {
	n := int(seconds * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

// Silence returns seconds of zero samples.
func Silence(sampleRate int, seconds float64) []float32 {
	return make([]float32, int(seconds*float64(sampleRate)))
}

// Concat joins sample slices in order.
func Concat(parts ...[]float32) []float32 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]float32, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// SpeechWithPauses builds a tone signal of total seconds with one-second
// silent gaps centred on each pause time.
func SpeechWithPauses(sampleRate int, total float64, pauses ...float64) []float32 {
	out := Tone(sampleRate, total, 220, 0.5)
	for _, p := range pauses {
		start := int((p - 0.5) * float64(sampleRate))
		end := int((p + 0.5) * float64(sampleRate))
		for i := max(start, 0); i < min(end, len(out)); i++ {
			out[i] = 0
		}
	}
	return out
}
