package sweeper

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/library/features/command/expireapprovedrequests"
	"github.com/AntonStoeckl/library-circulation-go/library/features/command/markoverdueloans"
	"github.com/AntonStoeckl/library-circulation-go/library/shared/shell"
)

const (
	defaultInterval  = time.Minute
	defaultBatchSize = 100

	// maxExpireRounds bounds one sweep when expiry keeps returning full batches.
	maxExpireRounds = 50

	// LogMsgSweepCompleted is logged after a sweep that changed something.
	LogMsgSweepCompleted = "sweep completed"

	// LogMsgSweepFailed is logged when a sweep step returned an error.
	LogMsgSweepFailed = "sweep failed"

	logAttrExpired       = "expired_count"
	logAttrMarkedOverdue = "marked_overdue_count"
)

// Report summarizes one sweep.
type Report struct {
	Expired       int
	Promoted      int
	MarkedOverdue int64
}

// Changed reports whether the sweep touched any request or loan.
func (r Report) Changed() bool {
	return r.Expired > 0 || r.MarkedOverdue > 0
}

// Sweeper periodically expires stale approvals and marks overdue loans.
type Sweeper struct {
	expire    shell.CommandHandler[expireapprovedrequests.Command, expireapprovedrequests.Result]
	overdue   shell.CommandHandler[markoverdueloans.Command, markoverdueloans.Result]
	batchSize int
	interval  time.Duration
	clock     func() time.Time

	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithInterval sets the time between two sweeps.
func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithBatchSize must match the batch size of the expire handler.
// A run that expires a full batch is repeated within the same sweep.
func WithBatchSize(size int) Option {
	return func(s *Sweeper) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Sweeper) {
		s.clock = clock
	}
}

// WithLogging logs sweep results and failures.
func WithLogging(logger shell.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithContextualLogging logs sweep results and failures with trace correlation.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(s *Sweeper) {
		s.contextualLogger = logger
	}
}

// New creates a Sweeper on top of the two sweep handlers.
func New(
	expire shell.CommandHandler[expireapprovedrequests.Command, expireapprovedrequests.Result],
	overdue shell.CommandHandler[markoverdueloans.Command, markoverdueloans.Result],
	opts ...Option,
) *Sweeper {
	s := &Sweeper{
		expire:    expire,
		overdue:   overdue,
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run sweeps once right away and then on every tick until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

// SweepOnce expires stale approvals until a run returns less than a full batch
// and then marks overdue loans. Both steps use the same point in time.
func (s *Sweeper) SweepOnce(ctx context.Context) (Report, error) {
	var report Report

	now := s.clock()

	for round := 0; round < maxExpireRounds; round++ {
		result, _, err := s.expire.Handle(ctx, expireapprovedrequests.BuildCommand(now))
		if err != nil {
			return report, err
		}

		report.Expired += len(result.Expired)
		report.Promoted += result.Promoted

		if len(result.Expired) < s.batchSize {
			break
		}
	}

	result, _, err := s.overdue.Handle(ctx, markoverdueloans.BuildCommand(now))
	if err != nil {
		return report, err
	}

	report.MarkedOverdue = result.Marked

	return report, nil
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	start := time.Now()

	report, err := s.SweepOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		s.logError(ctx, LogMsgSweepFailed, shell.LogAttrError, err.Error())

		return
	}

	if !report.Changed() {
		return
	}

	s.logInfo(ctx, LogMsgSweepCompleted,
		logAttrExpired, report.Expired,
		shell.LogAttrPromotedCount, report.Promoted,
		logAttrMarkedOverdue, report.MarkedOverdue,
		shell.LogAttrDurationMS, shell.ToMilliseconds(time.Since(start)),
	)
}

func (s *Sweeper) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
	} else if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Sweeper) logError(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, args...)
	} else if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
