package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"murmur/internal/services"
)

func TestErrorWithContextDerivesHint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	err := services.Wrap(services.ErrFormat, services.StageFormat, "parse", "unknown format", nil)

	ErrorWithContext(logger, "transcription failed", "run_failed", err)

	var entry map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &entry); jsonErr != nil {
		t.Fatalf("decode log line: %v", jsonErr)
	}
	if entry[FieldEventType] != "run_failed" {
		t.Fatalf("event_type = %v", entry[FieldEventType])
	}
	if hint, _ := entry[FieldErrorHint].(string); !strings.Contains(hint, "srt") {
		t.Fatalf("error_hint = %q", hint)
	}

	buf.Reset()
	ErrorWithContext(logger, "failed", "x", err, String(FieldErrorHint, "custom"))
	if !strings.Contains(buf.String(), `"error_hint":"custom"`) {
		t.Fatalf("explicit hint should win: %s", buf.String())
	}
}
