package lock

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withProcess(t *testing.T, executable string) {
	t.Helper()
	oldFind, oldSleep := findProcessFunc, sleepFunc
	t.Cleanup(func() {
		findProcessFunc = oldFind
		sleepFunc = oldSleep
	})
	sleepFunc = func(time.Duration) {}
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func writeLockfile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(Path(dir), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestAcquireAndRelease(t *testing.T) {
	withProcess(t, "habitchain")
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := os.Stat(Path(dir)); err != nil {
		t.Fatalf("lockfile missing: %v", err)
	}

	if _, err := Acquire(dir); !errors.Is(err, ErrLocked) {
		t.Errorf("second Acquire error = %v, want ErrLocked", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(Path(dir)); !os.IsNotExist(err) {
		t.Error("lockfile should be gone after Release")
	}

	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	_ = again.Release()
}

func TestStaleLocksAreTakenOver(t *testing.T) {
	now := time.Now().Unix()
	tests := []struct {
		name       string
		content    string
		executable string
	}{
		{"dead process", fmt.Sprintf("4242|tok|%d", now), ""},
		{"foreign process", fmt.Sprintf("4242|tok|%d", now), "vim"},
		{"expired", fmt.Sprintf("4242|tok|%d", now-int64((13*time.Hour).Seconds())), "habitchain"},
		{"malformed", "garbage", "habitchain"},
		{"bad pid", fmt.Sprintf("x|tok|%d", now), "habitchain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withProcess(t, tt.executable)
			dir := t.TempDir()
			writeLockfile(t, dir, tt.content)

			l, err := Acquire(dir)
			if err != nil {
				t.Fatalf("expected stale lock takeover, got %v", err)
			}
			_ = l.Release()
		})
	}
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	withProcess(t, "habitchain")
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	writeLockfile(t, dir, fmt.Sprintf("99|someone-else|%d", time.Now().Unix()))

	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(Path(dir)); err != nil {
		t.Error("Release must not remove a lock owned by another process")
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release returned %v", err)
	}
}
