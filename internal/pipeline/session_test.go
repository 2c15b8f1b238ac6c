package pipeline

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"

	"murmur/internal/testsupport"
)

func TestSessionMirrorsToRunLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.RunLogs = true

	var console bytes.Buffer
	session := NewSession(cfg, slog.New(slog.NewJSONHandler(&console, nil)))
	if session.RunID == "" || session.LogPath == "" {
		t.Fatalf("unexpected session %+v", session)
	}
	session.Logger.Debug("debug only in run log")
	session.Logger.Info("visible everywhere")
	if err := session.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(session.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	runLog := string(data)
	for _, want := range []string{"debug only in run log", "visible everywhere", session.RunID} {
		if !strings.Contains(runLog, want) {
			t.Fatalf("run log missing %q: %s", want, runLog)
		}
	}
	if strings.Contains(console.String(), "debug only in run log") {
		t.Fatal("console should stay at info level")
	}
	if !strings.Contains(console.String(), `"run_id":"`+session.RunID+`"`) {
		t.Fatalf("console missing run id: %s", console.String())
	}
}

func TestSessionWithoutRunLogs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	session := NewSession(cfg, nil)
	if session.LogPath != "" {
		t.Fatalf("run logs disabled, got %q", session.LogPath)
	}
	if err := session.Close(); err != nil {
		t.Fatal(err)
	}
	if other := NewSession(cfg, nil); other.RunID == session.RunID {
		t.Fatal("run ids must be unique")
	}
}
