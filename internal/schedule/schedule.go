package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markwatch/journal-cli/internal/config"
	"github.com/markwatch/journal-cli/internal/model"
	"github.com/markwatch/journal-cli/internal/pipeline"
)

// RunFunc starts one pipeline pass. It matches pipeline.Pipeline.Run.
type RunFunc func(ctx context.Context, trigger model.TriggerKind) (*model.RunAudit, error)

// Scheduler triggers a pipeline run once a week at a configured time.
// Bulletins are published weekly, so one pass per week keeps the store
// current.
type Scheduler struct {
	cfg config.ScheduleConfig
	run RunFunc
	now func() time.Time
}

// New creates a Scheduler driving the given pipeline.
func New(cfg config.ScheduleConfig, p *pipeline.Pipeline) *Scheduler {
	return NewWithRunFunc(cfg, p.Run)
}

// NewWithRunFunc creates a Scheduler with an explicit run function.
func NewWithRunFunc(cfg config.ScheduleConfig, run RunFunc) *Scheduler {
	return &Scheduler{cfg: cfg, run: run, now: time.Now}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday resolves a weekday name, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, eris.Errorf("schedule: unknown weekday %q", name)
	}
	return d, nil
}

// NextRun computes the first instant at or after now that matches the
// configured weekday and time of day.
func NextRun(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if next.Before(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Start runs the scheduler loop until ctx is cancelled. An invalid
// weekday is reported immediately rather than silently never firing.
func (s *Scheduler) Start(ctx context.Context) error {
	weekday, err := ParseWeekday(s.cfg.Weekday)
	if err != nil {
		return err
	}

	for {
		next := NextRun(s.now(), weekday, s.cfg.Hour, s.cfg.Minute)
		wait := next.Sub(s.now())
		zap.L().Info("next scheduled run",
			zap.Time("at", next),
			zap.Duration("in", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if _, err := s.run(ctx, model.TriggerScheduled); err != nil {
			// Skipped runs and pipeline failures are both recoverable;
			// the loop keeps its weekly cadence either way.
			if eris.Is(err, pipeline.ErrRunActive) {
				zap.L().Warn("scheduled run skipped, another run is active")
			} else {
				zap.L().Error("scheduled run failed", zap.Error(err))
			}
		}
	}
}
