package deps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CheckPythonModule reports whether python can import module. It is used to
// confirm the faster-whisper package is installed for the worker process.
func CheckPythonModule(ctx context.Context, python, module, description string) Status {
	status := Status{
		Name:        "Python module " + module,
		Command:     strings.TrimSpace(python),
		Description: description,
	}
	if status.Command == "" {
		status.Detail = "python binary not configured"
		return status
	}
	if _, err := exec.LookPath(status.Command); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}

	checkCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(checkCtx, status.Command, "-c", "import "+module)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := lastLine(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		status.Detail = fmt.Sprintf("import %s failed: %s", module, detail)
		return status
	}
	status.Available = true
	return status
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
