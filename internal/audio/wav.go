package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// resampleQuality is the beep interpolation quality used when a WAV file's
// rate differs from the target rate.
const resampleQuality = 4

// WAVDecoder reads RIFF/WAVE files without an external process. Stereo input
// is averaged to mono and other rates are resampled to the target rate.
type WAVDecoder struct {
	sampleRate int
}

// NewWAVDecoder returns a decoder producing sampleRate-Hz mono waveforms.
func NewWAVDecoder(sampleRate int) *WAVDecoder {
	return &WAVDecoder{sampleRate: sampleRate}
}

// Decode reads path fully into memory.
func (d *WAVDecoder) Decode(ctx context.Context, path string) (Waveform, error) {
	file, err := os.Open(path)
	if err != nil {
		return Waveform{}, newDecodeError(path, failure{ReasonMissingFile, "check the input path"}, err)
	}
	defer file.Close()

	stream, format, err := wav.Decode(file)
	if err != nil {
		return Waveform{}, newDecodeError(path, classifyFailure(err.Error()), err)
	}
	defer stream.Close()

	var source beep.Streamer = stream
	if int(format.SampleRate) != d.sampleRate {
		source = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(d.sampleRate), stream)
	}

	capacity := stream.Len()
	if int(format.SampleRate) != d.sampleRate && format.SampleRate > 0 {
		capacity = int(int64(capacity) * int64(d.sampleRate) / int64(format.SampleRate))
	}
	samples, err := drain(ctx, source, capacity)
	if err != nil {
		return Waveform{}, err
	}
	if err := stream.Err(); err != nil {
		return Waveform{}, newDecodeError(path, failure{ReasonCorruptStream, "the WAV data is truncated or damaged"}, err)
	}
	if len(samples) == 0 {
		return Waveform{}, newDecodeError(path, failure{ReasonZeroLength, "input contains no audio samples"}, nil)
	}
	return Waveform{Samples: samples, SampleRate: d.sampleRate}, nil
}

// drain reads a beep stream to the end, averaging the two channels.
func drain(ctx context.Context, s beep.Streamer, capacity int) ([]float32, error) {
	out := make([]float32, 0, max(capacity, 0))
	buf := make([][2]float64, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, float32(clampUnit((buf[i][0]+buf[i][1])/2)))
		}
		if !ok {
			return out, nil
		}
	}
}

// Streamer exposes samples as a mono beep.Streamer (both channels equal).
func Streamer(samples []float32) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := 0
		for n < len(buf) && pos < len(samples) {
			v := float64(samples[pos])
			buf[n][0], buf[n][1] = v, v
			n++
			pos++
		}
		return n, true
	})
}

// EncodeWAV writes samples as 16-bit mono PCM WAV.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 1, Precision: 2}
	if err := wav.Encode(w, Streamer(samples), format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// WriteWAV writes samples to path as 16-bit mono PCM WAV, creating parent
// directories as needed.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create wav directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := EncodeWAV(file, samples, sampleRate); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
