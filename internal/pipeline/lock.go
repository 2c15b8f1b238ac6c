package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"murmur/internal/services"
)

// outputLock serializes runs that write artifacts with the same base path.
type outputLock struct {
	lock *flock.Flock
}

func inputBase(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func lockPath(outputDir, input string) string {
	return filepath.Join(outputDir, "."+inputBase(input)+".murmur.lock")
}

func acquireOutputLock(outputDir, input string) (*outputLock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, services.StageFormat, "lock",
			"create output directory", err)
	}
	path := lockPath(outputDir, input)
	l := &outputLock{lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, services.StageFormat, "lock", "acquire output lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, services.StageFormat, "lock",
			fmt.Sprintf("another murmur run is writing %s", filepath.Join(outputDir, inputBase(input))), nil)
	}
	return l, nil
}

// Release unlocks. The lock file stays on disk so every run locks the same inode.
func (l *outputLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
