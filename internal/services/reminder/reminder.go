package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/metrics"
	"github.com/fastygo/taskboard/repository"
)

// Notifier delivers a reminder. Delivery mechanics are up to the implementation.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// AddressResolver finds where a task owner's reminders go. An empty address
// means the reminder is cleared without being sent.
type AddressResolver interface {
	ReminderAddress(ctx context.Context, ownerID string) (string, error)
}

type Config struct {
	Interval  time.Duration
	Grace     time.Duration
	BatchSize int
}

// Result summarizes one scan.
type Result struct {
	Due       int
	Sent      int
	Failed    int
	NoAddress int
}

// Service scans for due reminders on a fixed interval. Overlapping runs are
// skipped, and a run that starts later than Grace after its slot is abandoned.
type Service struct {
	tasks     repository.TaskRepository
	addresses AddressResolver
	notifier  Notifier
	logger    *zap.Logger
	cfg       Config
	cron      *cron.Cron
	entryID   cron.EntryID
	now       func() time.Time
}

func New(tasks repository.TaskRepository, addresses AddressResolver, notifier Notifier, logger *zap.Logger, cfg Config) (*Service, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = repository.MaxListLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		tasks:     tasks,
		addresses: addresses,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}

	cronLog := cronLogger{logger.Sugar()}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", cfg.Interval), func() {
		s.runScheduled(s.cron.Entry(s.entryID).Prev)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	s.entryID = id
	return s, nil
}

func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("reminder notifier started", zap.Duration("interval", s.cfg.Interval))
}

func (s *Service) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("reminder notifier stopped")
}

func (s *Service) runScheduled(slot time.Time) {
	if !slot.IsZero() {
		if late := s.now().Sub(slot); late > s.cfg.Grace {
			metrics.Reminders.WithLabelValues("misfired").Inc()
			s.logger.Warn("reminder run abandoned, missed grace period",
				zap.Time("scheduled", slot),
				zap.Duration("late", late))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("reminder run failed", zap.Error(err))
	}
}

// RunOnce processes every reminder due now. Each reminder is cleared after
// processing whether or not delivery succeeded.
func (s *Service) RunOnce(ctx context.Context) (Result, error) {
	start := s.now()
	defer func() { metrics.ReminderRunDuration.Observe(time.Since(start).Seconds()) }()

	tasks, err := s.tasks.ListDueReminders(ctx, start, s.cfg.BatchSize)
	if err != nil {
		return Result{}, err
	}

	result := Result{Due: len(tasks)}
	for i := range tasks {
		task := &tasks[i]
		switch s.deliver(ctx, task) {
		case outcomeSent:
			result.Sent++
		case outcomeFailed:
			result.Failed++
		case outcomeNoAddress:
			result.NoAddress++
		}

		if err := s.tasks.ClearReminder(ctx, task.ID); err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
			s.logger.Warn("failed to clear reminder", zap.String("task_id", task.ID), zap.Error(err))
		}
	}

	if result.Due > 0 {
		s.logger.Info("reminders processed",
			zap.Int("due", result.Due),
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed),
			zap.Int("no_address", result.NoAddress),
			zap.Duration("took", time.Since(start)))
	}
	return result, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeFailed
	outcomeNoAddress
)

func (s *Service) deliver(ctx context.Context, task *domain.Task) outcome {
	address, err := s.addresses.ReminderAddress(ctx, task.OwnerID)
	if err != nil {
		s.logger.Warn("reminder address lookup failed", zap.String("task_id", task.ID), zap.Error(err))
	}
	if address == "" {
		metrics.Reminders.WithLabelValues("no_address").Inc()
		return outcomeNoAddress
	}

	title := task.Title
	if title == "" {
		title = "Task Reminder"
	}
	notification := domain.Notification{
		To:      address,
		Subject: "Reminder: " + title,
		Body:    "Hello! This is a reminder for your task: " + title,
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		metrics.Reminders.WithLabelValues("failed").Inc()
		s.logger.Error("reminder delivery failed", zap.String("task_id", task.ID), zap.Error(err))
		return outcomeFailed
	}
	metrics.Reminders.WithLabelValues("sent").Inc()
	return outcomeSent
}

// cronLogger routes robfig/cron logging into zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
