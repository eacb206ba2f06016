package etl

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	zap.L().Sugar().Infow("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	zap.L().Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs the collection job on a cron schedule. Overlapping runs
// are skipped, not queued; a run that outlasts its interval means the
// upstream APIs are struggling and piling on does not help.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler schedules job according to the cron expression. The default
// production schedule is 04:00 daily, after the public-data portals publish
// the previous day's figures.
func NewScheduler(schedule string, job func(ctx context.Context)) (*Scheduler, error) {
	logger := cronLogger{}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(logger),
		cron.Recover(logger),
	))

	_, err := c.AddFunc(schedule, func() {
		job(context.Background())
	})
	if err != nil {
		return nil, eris.Wrapf(err, "etl: invalid cron schedule %q", schedule)
	}

	return &Scheduler{cron: c}, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight run to finish, up to the
// given grace period.
func (s *Scheduler) Stop(grace time.Duration) {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(grace):
		zap.L().Warn("cron: shutdown grace period elapsed with job still running")
	}
}
