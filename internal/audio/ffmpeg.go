package audio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"murmur/internal/logging"
	"murmur/internal/media/ffprobe"
	"murmur/internal/media/tracks"
)

const (
	// FFmpegCommand is the default ffmpeg executable name.
	FFmpegCommand = "ffmpeg"
	// processWaitDelay bounds how long Wait blocks on pipes after the process is killed.
	processWaitDelay = 2 * time.Second
	maxStderrBytes   = 16 * 1024
)

// FFmpegDecoder streams s16le PCM from an ffmpeg subprocess into a Waveform.
type FFmpegDecoder struct {
	binary      string
	sampleRate  int
	probeBinary string
	inspect     ffprobe.Inspector
	language    string
	logger      *slog.Logger
}

// FFmpegOption customizes an FFmpegDecoder.
type FFmpegOption func(*FFmpegDecoder)

// WithProbe enables ffprobe inspection before decoding. A nil inspect uses
// ffprobe.Inspect.
func WithProbe(binary string, inspect ffprobe.Inspector) FFmpegOption {
	return func(d *FFmpegDecoder) {
		d.probeBinary = strings.TrimSpace(binary)
		if inspect == nil {
			inspect = ffprobe.Inspect
		}
		d.inspect = inspect
	}
}

// WithLanguage sets the preferred audio track language.
func WithLanguage(language string) FFmpegOption {
	return func(d *FFmpegDecoder) {
		d.language = language
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) FFmpegOption {
	return func(d *FFmpegDecoder) {
		d.logger = logger
	}
}

// NewFFmpegDecoder builds a decoder that resamples to sampleRate.
func NewFFmpegDecoder(binary string, sampleRate int, opts ...FFmpegOption) *FFmpegDecoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = FFmpegCommand
	}
	d := &FFmpegDecoder{binary: binary, sampleRate: sampleRate}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	d.logger = logging.NewComponentLogger(d.logger, "decoder")
	return d
}

// Decode runs ffmpeg once and reads its stdout into memory. The subprocess is
// killed and reaped on every return path.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (Waveform, error) {
	if _, err := os.Stat(path); err != nil {
		return Waveform{}, newDecodeError(path, failure{ReasonMissingFile, "check the input path"}, err)
	}

	streamIndex := -1
	expected := 0
	if d.inspect != nil {
		result, err := d.inspect(ctx, d.probeBinary, path)
		if err != nil {
			if ctx.Err() != nil {
				return Waveform{}, ctx.Err()
			}
			return Waveform{}, newDecodeError(path, classifyFailure(err.Error()), err)
		}
		selection := tracks.Select(result.Streams, d.language)
		if selection.Index < 0 {
			return Waveform{}, newDecodeError(path, failure{ReasonNoAudioStream, "input has no audio stream to transcribe"}, nil)
		}
		if result.AudioStreamCount() > 1 {
			d.logger.Info("audio track selected",
				logging.Args(append(logging.DecisionAttrs("audio_track", selection.Label(), selection.Reason),
					logging.Int("audio_streams", result.AudioStreamCount()))...)...)
		}
		streamIndex = selection.Index
		if dur := result.DurationSeconds(); dur > 0 && !math.IsNaN(dur) {
			expected = int(dur*float64(d.sampleRate)) + d.sampleRate
		}
	}

	cmd := exec.CommandContext(ctx, d.binary, d.args(path, streamIndex)...) //nolint:gosec
	cmd.WaitDelay = processWaitDelay
	stderr := &limitedBuffer{limit: maxStderrBytes}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Waveform{}, newDecodeError(path, failure{ReasonToolUnavailable, "check ffmpeg installation"}, err)
	}
	if err := cmd.Start(); err != nil {
		return Waveform{}, newDecodeError(path, failure{ReasonToolUnavailable, "install ffmpeg or set audio.ffmpeg_binary"}, err)
	}

	waited := false
	defer func() {
		if !waited {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
		}
	}()

	started := time.Now()
	samples, readErr := readPCM(stdout, expected)
	if readErr != nil {
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()
	waited = true

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Waveform{}, ctxErr
	}
	if waitErr != nil {
		detail := strings.TrimSpace(stderr.String())
		f := classifyFailure(detail + " " + waitErr.Error())
		return Waveform{}, newDecodeError(path, f, fmt.Errorf("ffmpeg: %w: %s", waitErr, detail))
	}
	if readErr != nil {
		return Waveform{}, newDecodeError(path, failure{ReasonCorruptStream, "ffmpeg output ended unexpectedly"}, readErr)
	}
	if len(samples) == 0 {
		return Waveform{}, newDecodeError(path, failure{ReasonZeroLength, "input contains no audio samples"}, nil)
	}

	w := Waveform{Samples: samples, SampleRate: d.sampleRate}
	d.logger.Debug("ffmpeg decode complete",
		logging.String("path", path),
		logging.Int("samples", w.Len()),
		logging.Float64("duration_seconds", w.Duration()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return w, nil
}

func (d *FFmpegDecoder) args(path string, streamIndex int) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error", "-i", path}
	if streamIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:%d", streamIndex))
	} else {
		args = append(args, "-map", "0:a:0")
	}
	return append(args,
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(d.sampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-",
	)
}

// readPCM converts little-endian signed 16-bit samples to float32. A trailing
// odd byte is dropped.
func readPCM(r io.Reader, capacity int) ([]float32, error) {
	if capacity < 0 {
		capacity = 0
	}
	samples := make([]float32, 0, capacity)
	reader := bufio.NewReaderSize(r, 64*1024)
	buf := make([]byte, 32*1024)
	var carry []byte
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			data := buf[:n]
			if len(carry) > 0 {
				data = append(carry, data...)
				carry = nil
			}
			even := len(data) &^ 1
			for i := 0; i < even; i += 2 {
				v := int16(binary.LittleEndian.Uint16(data[i:]))
				samples = append(samples, float32(v)/32768)
			}
			if even < len(data) {
				carry = []byte{data[even]}
			}
		}
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return samples, err
		}
	}
}

// limitedBuffer keeps the first limit bytes written to it.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if remaining := b.limit - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
