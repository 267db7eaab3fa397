package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestPolicyHolderDefaultsWhenFileMissing(t *testing.T) {
	holder, err := NewPolicyHolder(Config{PolicyConfigPaths: []string{t.TempDir()}}, zap.NewNop())
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if got := holder.Get(); got != DefaultSchedulePolicy() {
		t.Fatalf("expected default policy, got %+v", got)
	}
}

func TestPolicyHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("schedule:\n  cutoffHours: 36\n  logLevel: debug\n  rescheduleRate: 1\n  rescheduleBurst: 3\n")
	if err := os.WriteFile(filepath.Join(dir, "schedule.yml"), content, 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	holder, err := NewPolicyHolder(Config{PolicyConfigPaths: []string{dir}}, zap.NewNop())
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	got := holder.Get()
	if got.CutoffHours != 36 || got.LogLevel != "debug" || got.RescheduleBurst != 3 {
		t.Fatalf("unexpected policy %+v", got)
	}
}

func TestPolicyHolderRejectsInvalidCutoff(t *testing.T) {
	dir := t.TempDir()
	content := []byte("schedule:\n  cutoffHours: 0\n")
	if err := os.WriteFile(filepath.Join(dir, "schedule.yml"), content, 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	if _, err := NewPolicyHolder(Config{PolicyConfigPaths: []string{dir}}, zap.NewNop()); err == nil {
		t.Fatalf("expected invalid cutoff to be rejected")
	}
}

func TestPolicyHolderNotifiesListeners(t *testing.T) {
	holder := NewStaticPolicyHolder(DefaultSchedulePolicy())
	var seen SchedulePolicy
	holder.OnChange(func(p SchedulePolicy) { seen = p })

	next := DefaultSchedulePolicy()
	next.CutoffHours = 12
	holder.set(next)

	if seen.CutoffHours != 12 || holder.Get().CutoffHours != 12 {
		t.Fatalf("expected listener and holder to observe the update")
	}
}
