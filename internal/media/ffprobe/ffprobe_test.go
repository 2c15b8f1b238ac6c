package ffprobe

import (
	"math"
	"testing"
)

func TestParseAndHelpers(t *testing.T) {
	payload := []byte(`{
	  "streams": [
	    {"index": 0, "codec_type": "video", "codec_name": "h264"},
	    {"index": 1, "codec_type": "audio", "codec_name": "aac", "sample_rate": "48000", "channels": 2,
	     "tags": {"language": "eng"}, "disposition": {"default": 1}},
	    {"index": 2, "codec_type": "audio", "codec_name": "ac3", "sample_rate": "bad"}
	  ],
	  "format": {"duration": "123.45", "nb_streams": 3, "format_name": "matroska,webm"}
	}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	audio := result.AudioStreams()
	if audio[0].Index != 1 || audio[0].SampleRateHz() != 48000 {
		t.Fatalf("unexpected first audio stream %+v", audio[0])
	}
	if audio[0].Tags["language"] != "eng" || audio[0].Disposition["default"] != 1 {
		t.Fatalf("expected tags and disposition decoded, got %+v", audio[0])
	}
	if audio[1].SampleRateHz() != 0 {
		t.Fatalf("expected unparseable sample rate to be 0, got %d", audio[1].SampleRateHz())
	}
}

func TestDurationHandlesInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if (Result{}).DurationSeconds() != 0 {
		t.Fatal("expected empty duration to be 0")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
