package audio

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"murmur/internal/media/ffprobe"
	"murmur/internal/services"
	"murmur/internal/testsupport"
)

func stubInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mkv")
	testsupport.WriteFile(t, path, 128)
	return path
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if decodeErr.Reason != reason {
		t.Fatalf("reason = %q, want %q (%v)", decodeErr.Reason, reason, err)
	}
}

func TestFFmpegDecoderReadsPCM(t *testing.T) {
	bin := testsupport.WriteScript(t, filepath.Join(t.TempDir(), "ffmpeg"), `printf '\000\100\000\300'`)
	dec := NewFFmpegDecoder(bin, 16000)

	w, err := dec.Decode(context.Background(), stubInput(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if w.SampleRate != 16000 {
		t.Fatalf("SampleRate = %d", w.SampleRate)
	}
	want := []float32{0.5, -0.5}
	if len(w.Samples) != len(want) {
		t.Fatalf("samples = %v, want %v", w.Samples, want)
	}
	for i := range want {
		if w.Samples[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, w.Samples[i], want[i])
		}
	}
}

func TestFFmpegDecoderPassesSelectedStream(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	bin := testsupport.WriteScript(t, filepath.Join(dir, "ffmpeg"),
		`echo "$@" > `+argsFile+"\nprintf '\\000\\100'")
	inspect := func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video"},
			{Index: 1, CodecType: "audio", CodecName: "aac", Tags: map[string]string{"language": "eng", "title": "Commentary"}},
			{Index: 2, CodecType: "audio", CodecName: "ac3", Tags: map[string]string{"language": "eng"}},
		}}, nil
	}
	dec := NewFFmpegDecoder(bin, 8000, WithProbe("ffprobe", inspect), WithLanguage("en"))

	if _, err := dec.Decode(context.Background(), stubInput(t)); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	args := string(data)
	for _, want := range []string{"-map 0:2", "-ac 1", "-ar 8000", "-f s16le"} {
		if !strings.Contains(args, want) {
			t.Fatalf("args %q missing %q", args, want)
		}
	}
}

func TestFFmpegDecoderNoAudioStream(t *testing.T) {
	bin := testsupport.WriteScript(t, filepath.Join(t.TempDir(), "ffmpeg"), "exit 0")
	inspect := func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: []ffprobe.Stream{{Index: 0, CodecType: "video"}}}, nil
	}
	dec := NewFFmpegDecoder(bin, 16000, WithProbe("", inspect))

	_, err := dec.Decode(context.Background(), stubInput(t))
	requireReason(t, err, ReasonNoAudioStream)
}

func TestFFmpegDecoderFailures(t *testing.T) {
	tests := []struct {
		name   string
		script string
		reason string
	}{
		{"corrupt", "echo 'Invalid data found when processing input' >&2\nexit 1", ReasonCorruptStream},
		{"codec", "echo 'Decoder (codec none) not found for input stream #0:0' >&2\nexit 1", ReasonUnsupportedCodec},
		{"unknown", "echo 'something odd' >&2\nexit 1", ReasonDecoderFailed},
		{"empty", "exit 0", ReasonZeroLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := testsupport.WriteScript(t, filepath.Join(t.TempDir(), "ffmpeg"), tt.script)
			_, err := NewFFmpegDecoder(bin, 16000).Decode(context.Background(), stubInput(t))
			requireReason(t, err, tt.reason)
		})
	}
}

func TestFFmpegDecoderMissingInputAndBinary(t *testing.T) {
	bin := testsupport.WriteScript(t, filepath.Join(t.TempDir(), "ffmpeg"), "exit 0")
	_, err := NewFFmpegDecoder(bin, 16000).Decode(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	requireReason(t, err, ReasonMissingFile)

	_, err = NewFFmpegDecoder(filepath.Join(t.TempDir(), "no-such-ffmpeg"), 16000).Decode(context.Background(), stubInput(t))
	requireReason(t, err, ReasonToolUnavailable)
}

func TestFFmpegDecoderCancellationStopsProcess(t *testing.T) {
	bin := testsupport.WriteScript(t, filepath.Join(t.TempDir(), "ffmpeg"), "exec sleep 10")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := NewFFmpegDecoder(bin, 16000).Decode(ctx, stubInput(t))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("decode returned after %s; subprocess was not stopped", elapsed)
	}
}

func TestReadPCMOddByteCarry(t *testing.T) {
	r := &splitReader{parts: [][]byte{{0x00}, {0x40, 0x00}, {0xC0, 0xFF}}}
	samples, err := readPCM(r, 0)
	if err != nil {
		t.Fatalf("readPCM: %v", err)
	}
	if len(samples) != 2 || samples[0] != 0.5 || samples[1] != -0.5 {
		t.Fatalf("samples = %v, want [0.5 -0.5]", samples)
	}
}

type splitReader struct {
	parts [][]byte
}

func (r *splitReader) Read(p []byte) (int, error) {
	if len(r.parts) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.parts[0])
	r.parts = r.parts[1:]
	return n, nil
}

func TestLimitedBufferTruncates(t *testing.T) {
	b := &limitedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if b.String() != "abcd" {
		t.Fatalf("String = %q", b.String())
	}
}
