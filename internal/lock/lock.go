// Package lock keeps two habitchain processes from writing the same ledger.
//
// The lockfile holds "pid|token|unix-seconds". A lock whose process is gone,
// belongs to another program or is older than constants.LockStaleAfter is
// treated as stale and taken over.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitchain/internal/constants"
	"github.com/julianstephens/habitchain/internal/logger"
)

// ErrLocked is returned when another live habitchain process holds the lock.
var ErrLocked = errors.New("another habitchain process is writing to the ledger")

var (
	findProcessFunc = ps.FindProcess
	nowFunc         = time.Now
	sleepFunc       = time.Sleep
)

// Lock is a held lockfile.
type Lock struct {
	path  string
	token string
}

type holder struct {
	pid      int
	token    string
	acquired time.Time
}

// Path returns the lockfile location for a ledger directory.
func Path(dir string) string {
	return filepath.Join(dir, constants.LockfileName)
}

// Acquire takes the lock in dir, retrying briefly while a live holder exists.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	path := Path(dir)
	token := uuid.NewString()
	content := fmt.Sprintf("%d|%s|%d", os.Getpid(), token, nowFunc().Unix())

	var lastHolder holder
	for attempt := 0; attempt < constants.LockMaxAttempts; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.WriteString(content)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			logger.Debug("Acquired lock", "path", path)
			return &Lock{path: path, token: token}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		h, err := readHolder(path)
		if err != nil || isStale(h) {
			logger.Warn("Removing stale lockfile", "path", path, "pid", h.pid)
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				return nil, fmt.Errorf("failed to remove stale lockfile: %w", rmErr)
			}
			continue
		}
		lastHolder = h
		sleepFunc(constants.LockRetryDelay)
	}

	return nil, fmt.Errorf("%w (pid %d)", ErrLocked, lastHolder.pid)
}

func readHolder(path string) (holder, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return holder{}, err
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return holder{}, errors.New("lockfile is malformed")
	}

	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return holder{}, errors.New("invalid process ID in lockfile")
	}
	if strings.TrimSpace(parts[1]) == "" {
		return holder{}, errors.New("token in lockfile is empty")
	}
	secs, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return holder{}, errors.New("invalid timestamp in lockfile")
	}

	return holder{pid: pid, token: parts[1], acquired: time.Unix(secs, 0)}, nil
}

func isStale(h holder) bool {
	if nowFunc().Sub(h.acquired) > constants.LockStaleAfter {
		return true
	}
	process, err := findProcessFunc(h.pid)
	if err != nil || process == nil {
		return true
	}
	return !strings.HasPrefix(process.Executable(), constants.AppName)
}

// Release removes the lockfile if this lock still owns it.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	h, err := readHolder(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lockfile: %w", err)
	}
	if h.token != l.token {
		logger.Warn("Lockfile was taken over, leaving it in place", "path", l.path)
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	logger.Debug("Released lock", "path", l.path)
	return nil
}
