package audio

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"murmur/internal/media/ffprobe"
)

// Decoder turns a media file into a mono Waveform at a fixed sample rate.
type Decoder interface {
	Decode(ctx context.Context, path string) (Waveform, error)
}

// Options configures New.
type Options struct {
	// Mode is auto, ffmpeg or native. Auto uses the native WAV decoder for
	// .wav inputs and ffmpeg for everything else.
	Mode          string
	SampleRate    int
	FFmpegBinary  string
	FFprobeBinary string
	// Language is the preferred audio track language for multi-track inputs.
	Language string
	Logger   *slog.Logger
	// Inspect overrides ffprobe; nil uses ffprobe.Inspect.
	Inspect ffprobe.Inspector
}

// New returns the decoder selected by opts.Mode.
func New(opts Options) Decoder {
	ffmpegDecoder := NewFFmpegDecoder(opts.FFmpegBinary, opts.SampleRate,
		WithProbe(opts.FFprobeBinary, opts.Inspect),
		WithLanguage(opts.Language),
		WithLogger(opts.Logger),
	)
	native := NewWAVDecoder(opts.SampleRate)
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "ffmpeg":
		return ffmpegDecoder
	case "native":
		return native
	default:
		return &autoDecoder{wav: native, ffmpeg: ffmpegDecoder}
	}
}

type autoDecoder struct {
	wav    Decoder
	ffmpeg Decoder
}

func (d *autoDecoder) Decode(ctx context.Context, path string) (Waveform, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		w, err := d.wav.Decode(ctx, path)
		if err == nil {
			return w, nil
		}
		// WAV variants beep cannot read (float, extensible headers) go to ffmpeg.
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Reason == ReasonUnsupportedCodec {
			return d.ffmpeg.Decode(ctx, path)
		}
		return Waveform{}, err
	}
	return d.ffmpeg.Decode(ctx, path)
}
