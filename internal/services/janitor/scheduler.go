// Package janitor runs the periodic housekeeping jobs: sweeping stale
// artifacts out of the scratch directory and reporting tracked identities.
package janitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/denisAlshanov/audiograb/internal/config"
	"github.com/denisAlshanov/audiograb/internal/utils"
)

// IdentityCounter reports how many client identities are being metered.
type IdentityCounter interface {
	TrackedIdentities() int
}

type Scheduler struct {
	cron    *cron.Cron
	config  *config.JanitorConfig
	dir     string
	counter IdentityCounter
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(cfg *config.JanitorConfig, scratchDir string, counter IdentityCounter) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = utils.WithCorrelationID(ctx, "janitor")

	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		config:  cfg,
		dir:     scratchDir,
		counter: counter,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start schedules both jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	sweepSchedule := normalizeSchedule(s.config.SweepSchedule)
	sweepID, err := s.cron.AddFunc(sweepSchedule, s.sweepJob)
	if err != nil {
		return fmt.Errorf("failed to schedule sweep job: %w", err)
	}

	reportSchedule := normalizeSchedule(s.config.ReportSchedule)
	reportID, err := s.cron.AddFunc(reportSchedule, s.reportJob)
	if err != nil {
		return fmt.Errorf("failed to schedule report job: %w", err)
	}

	s.cron.Start()
	utils.LogInfo(s.ctx, "Janitor started", utils.Fields{
		"sweep_job":       sweepID,
		"sweep_schedule":  sweepSchedule,
		"report_job":      reportID,
		"report_schedule": reportSchedule,
		"stale_age":       s.config.StaleAge.String(),
		"keep_files":      s.config.KeepFiles,
	})
	return nil
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	utils.LogInfo(context.Background(), "Janitor stopped")
}

func (s *Scheduler) sweepJob() {
	removed, err := s.Sweep(s.ctx)
	if err != nil {
		utils.LogError(s.ctx, "Stale artifact sweep failed", err)
		return
	}
	if removed > 0 {
		utils.LogInfo(s.ctx, "Stale artifacts removed", utils.Fields{"count": removed})
	}
}

func (s *Scheduler) reportJob() {
	utils.LogInfo(s.ctx, "Ad tracker status", utils.Fields{
		"tracked_identities": s.counter.TrackedIdentities(),
	})
}

// Sweep removes regular files in the scratch directory older than the
// configured stale age. These are leftovers of interrupted extractions or
// of a process that exited inside a cleanup grace period. Nothing is
// removed while artifacts are kept for local development.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	if s.config.KeepFiles {
		return 0, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", s.dir, err)
	}

	cutoff := s.now().Add(-s.config.StaleAge)
	removed := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			utils.LogWarn(ctx, "Failed to remove stale artifact", utils.Fields{"path": path, "error": err.Error()})
			continue
		}
		removed++
	}

	return removed, nil
}

// normalizeSchedule ensures cron expressions are compatible with cron.WithSeconds
func normalizeSchedule(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) == 5 {
		return "0 " + expr
	}
	return expr
}
