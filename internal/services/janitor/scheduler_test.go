package janitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/denisAlshanov/audiograb/internal/config"
)

type staticCounter int

func (c staticCounter) TrackedIdentities() int { return int(c) }

func TestSweepRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	files := map[string]time.Duration{
		"old.mp3":         2 * time.Hour,
		"old.webm.part":   90 * time.Minute,
		"fresh.mp3":       time.Minute,
		"just-inside.m4a": 59 * time.Minute,
	}
	for name, age := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		mtime := now.Add(-age)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(&config.JanitorConfig{StaleAge: time.Hour}, dir, staticCounter(0))
	s.now = func() time.Time { return now }

	removed, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 files removed, got %d", removed)
	}

	for _, name := range []string{"fresh.mp3", "just-inside.m4a", "subdir"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to survive, got %v", name, err)
		}
	}
	for _, name := range []string{"old.mp3", "old.webm.part"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be removed", name)
		}
	}
}

func TestSweepLeavesKeptFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kept.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(&config.JanitorConfig{StaleAge: time.Hour, KeepFiles: true}, dir, staticCounter(0))

	removed, err := s.Sweep(context.Background())
	if err != nil || removed != 0 {
		t.Errorf("Expected (0, nil), got (%d, %v)", removed, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected kept file to survive, got %v", err)
	}
}

func TestSweepMissingDirectory(t *testing.T) {
	s := NewScheduler(&config.JanitorConfig{StaleAge: time.Hour}, filepath.Join(t.TempDir(), "absent"), staticCounter(0))

	removed, err := s.Sweep(context.Background())
	if err != nil || removed != 0 {
		t.Errorf("Expected (0, nil), got (%d, %v)", removed, err)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(&config.JanitorConfig{
		SweepSchedule:  "not a schedule",
		ReportSchedule: "@every 24h",
		StaleAge:       time.Hour,
	}, t.TempDir(), staticCounter(3))

	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Expected error for invalid schedule")
	}
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&config.JanitorConfig{
		SweepSchedule:  "@every 1m",
		ReportSchedule: "0 0 * * *",
		StaleAge:       time.Hour,
	}, t.TempDir(), staticCounter(3))

	if err := s.Start(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	s.Stop()
}

func TestNormalizeSchedule(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"*/5 * * * *", "0 */5 * * * *"},
		{"0 */5 * * * *", "0 */5 * * * *"},
		{"@every 1m", "@every 1m"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := normalizeSchedule(tc.input); got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}
