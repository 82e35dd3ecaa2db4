// Package instances tracks long-running habitlit contexts (watchers) through
// lockfiles, so diagnostics can tell which contexts share a medium.
package instances

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
)

var findProcessFunc = ps.FindProcess

// Info describes one registered context. The lockfile holds
// "pid|backend|location|started-unix".
type Info struct {
	PID      int
	Backend  string
	Location string
	Started  time.Time
}

func (i Info) encode() string {
	return fmt.Sprintf("%d|%s|%s|%d", i.PID, i.Backend, i.Location, i.Started.Unix())
}

func lockfilePath(dir string, pid int) string {
	return filepath.Join(dir, strconv.Itoa(pid)+constants.InstanceLockfileExt)
}

// Register writes a lockfile for the current process. The returned
// function removes it.
func Register(dir, backend, location string) (func() error, error) {
	if strings.Contains(backend, "|") || strings.Contains(location, "|") {
		return nil, errors.New("backend and location must not contain '|'")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create instance directory: %w", err)
	}

	info := Info{PID: os.Getpid(), Backend: backend, Location: location, Started: time.Now()}
	path := lockfilePath(dir, info.PID)
	if err := os.WriteFile(path, []byte(info.encode()), 0600); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}

	return func() error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}, nil
}

// List returns the contexts whose process is still alive, oldest first.
// Lockfiles left behind by dead or foreign processes are removed.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read instance directory: %w", err)
	}

	live := []Info{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), constants.InstanceLockfileExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := validateLockfile(path)
		if err != nil {
			logger.Debug("Removing stale lockfile", "path", path, "reason", err)
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Warn("Failed to remove stale lockfile", "path", path, "error", rmErr)
			}
			continue
		}
		live = append(live, info)
	}

	sort.Slice(live, func(i, j int) bool {
		return live[i].Started.Before(live[j].Started)
	})
	return live, nil
}

func validateLockfile(path string) (Info, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 4 {
		return Info{}, errors.New("lockfile is malformed")
	}

	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return Info{}, errors.New("invalid process ID in lockfile")
	}
	if strings.TrimSpace(parts[1]) == "" {
		return Info{}, errors.New("backend in lockfile is empty")
	}
	started, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Info{}, errors.New("invalid start time in lockfile")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return Info{}, fmt.Errorf("process %d not running", pid)
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return Info{}, fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.AppName, process.Executable())
	}

	return Info{PID: pid, Backend: parts[1], Location: parts[2], Started: time.Unix(started, 0)}, nil
}
