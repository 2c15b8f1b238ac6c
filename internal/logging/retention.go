package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogPattern matches the per-run JSON log files written by OpenRunLog.
const RunLogPattern = "run-*.jsonl"

// PruneRunLogs removes run logs in dir older than retentionDays. A
// retentionDays value of 0 disables pruning. keep is never removed.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, keep string) int {
	return pruneOlderThan(logger, dir, RunLogPattern, time.Now().AddDate(0, 0, -retentionDays), retentionDays > 0, keep)
}

func pruneOlderThan(logger *slog.Logger, dir, pattern string, cutoff time.Time, enabled bool, keep string) int {
	dir = strings.TrimSpace(dir)
	if !enabled || dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	keepAbs := ""
	if strings.TrimSpace(keep) != "" {
		keepAbs, _ = filepath.Abs(keep)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matched, err := filepath.Match(pattern, entry.Name()); err != nil || !matched {
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		if abs, err := filepath.Abs(fullPath); err == nil {
			fullPath = abs
		}
		if fullPath == keepAbs {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(fullPath); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", fullPath),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old run log remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("run log pruned", String("path", fullPath), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}
