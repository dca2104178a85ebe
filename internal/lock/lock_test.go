package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions", "main")

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "LOCK"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "pid=") || !strings.Contains(string(data), "acquired=") {
		t.Errorf("unexpected lock file contents: %q", data)
	}
	if pid := ownerPID(string(data)); pid != os.Getpid() {
		t.Errorf("owner pid = %d, want %d", pid, os.Getpid())
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "LOCK")); !os.IsNotExist(err) {
		t.Errorf("lock file still present after release: %v", err)
	}
}

func TestAcquireConflict(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	_, err = Acquire(dir)
	if err == nil {
		t.Fatal("second acquire succeeded")
	}
	var held *LockHeldError
	if !errors.As(err, &held) {
		t.Fatalf("error = %v, want LockHeldError", err)
	}
	if held.PID != os.Getpid() {
		t.Errorf("reported pid = %d, want %d", held.PID, os.Getpid())
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Fatal(err)
	}

	l2, err := Acquire(dir)
	if err != nil {
		t.Fatalf("reacquire error = %v", err)
	}
	defer l2.Release()
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("double nil Release error = %v", err)
	}
}

func TestOwnerPID(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"pid=1234\nacquired=2024-01-01T00:00:00Z\n", 1234},
		{"acquired=2024-01-01T00:00:00Z\npid=7\n", 7},
		{"", 0},
		{"garbage", 0},
		{"pid=notanumber\n", 0},
	}
	for _, tc := range cases {
		if got := ownerPID(tc.content); got != tc.want {
			t.Errorf("ownerPID(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}
