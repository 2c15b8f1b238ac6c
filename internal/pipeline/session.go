package pipeline

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"murmur/internal/config"
	"murmur/internal/logging"
)

// Session carries the per-run identity and logger. When run logs are enabled
// every record is mirrored to a JSON file in the log directory.
type Session struct {
	RunID   string
	Logger  *slog.Logger
	LogPath string
	closer  io.Closer
}

// NewSession assigns a run id, opens the run log and prunes expired ones.
// A run log that cannot be opened only produces a warning.
func NewSession(cfg *config.Config, console *slog.Logger) *Session {
	runID := uuid.NewString()
	if console == nil {
		console = logging.NewNop()
	}
	s := &Session{RunID: runID, Logger: console.With(logging.String(logging.FieldRunID, runID))}
	if cfg == nil || !cfg.Logging.RunLogs {
		return s
	}

	handler, closer, path, err := logging.OpenRunLog(cfg.Paths.LogDir, runID)
	if err != nil {
		logging.WarnWithContext(s.Logger, "run log unavailable", "run_log_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.log_dir permissions"),
			logging.String(logging.FieldImpact, "this run is logged to the console only"),
		)
		return s
	}
	s.Logger = logging.TeeLogger(console, handler).With(logging.String(logging.FieldRunID, runID))
	s.LogPath = path
	s.closer = closer
	if removed := logging.PruneRunLogs(s.Logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, path); removed > 0 {
		s.Logger.Debug("expired run logs removed", logging.Int("removed", removed))
	}
	return s
}

// Close flushes and closes the run log.
func (s *Session) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
