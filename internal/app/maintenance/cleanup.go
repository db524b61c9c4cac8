package maintenance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/strivetech/saiplatform/internal/monitoring"
	"github.com/strivetech/saiplatform/pkg/logger"
	"github.com/strivetech/saiplatform/pkg/metrics"
)

const (
	JobCachePurge        = "cache_purge"
	JobActivityRetention = "activity_retention"

	defaultActivityRetentionDays = 365
	defaultCacheSpec             = "@hourly"
	defaultActivitySpec          = "@daily"
	jobTimeout                   = 5 * time.Minute
)

// CachePurger removes expired rows from a database-backed cache.
type CachePurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// ActivityPruner deletes activity older than a retention window.
type ActivityPruner interface {
	CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// Cleaner runs scheduled housekeeping: purging expired cache rows and
// enforcing activity log retention.
type Cleaner struct {
	cache     CachePurger
	activity  ActivityPruner
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	cacheSchedule    string
	activitySchedule string

	mu     sync.Mutex
	status map[string]*monitoring.JobStatus
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithActivityRetentionDays adjusts how long activity is kept. Zero or a
// negative value disables retention enforcement.
func WithActivityRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		cleaner.retention = days
	}
}

// WithCacheSchedule overrides the cron specification for cache purging.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// WithActivitySchedule overrides the cron specification for activity retention.
func WithActivitySchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.activitySchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips its job.
func NewCleaner(cachePurger CachePurger, activity ActivityPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		cache:            cachePurger,
		activity:         activity,
		now:              time.Now,
		retention:        defaultActivityRetentionDays,
		cacheSchedule:    defaultCacheSpec,
		activitySchedule: defaultActivitySpec,
		log:              logger.WithModule("maintenance"),
		status:           make(map[string]*monitoring.JobStatus),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	for _, job := range cleaner.jobs() {
		cleaner.status[job.name] = &monitoring.JobStatus{Job: job.name}
	}
	return cleaner
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (int64, error)
}

func (c *Cleaner) jobs() []job {
	var jobs []job
	if c.cache != nil {
		jobs = append(jobs, job{
			name:     JobCachePurge,
			schedule: c.cacheSchedule,
			run: func(ctx context.Context) (int64, error) {
				return c.cache.PurgeExpired(ctx, c.now())
			},
		})
	}
	if c.activity != nil && c.retention > 0 {
		jobs = append(jobs, job{
			name:     JobActivityRetention,
			schedule: c.activitySchedule,
			run: func(ctx context.Context) (int64, error) {
				return c.activity.CleanupOlderThan(ctx, c.retention)
			},
		})
	}
	return jobs
}

// Start registers the enabled jobs and launches the scheduler.
func (c *Cleaner) Start() error {
	jobs := c.jobs()
	if len(jobs) == 0 {
		return nil
	}

	for _, j := range jobs {
		j := j
		if _, err := c.cron.AddFunc(j.schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			_ = c.execute(ctx, j)
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", j.name, err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every enabled job sequentially and joins their failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, j := range c.jobs() {
		errs = multierr.Append(errs, c.execute(ctx, j))
	}
	return errs
}

// JobStatuses reports the run history of each enabled job, sorted by name.
func (c *Cleaner) JobStatuses() []monitoring.JobStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	statuses := make([]monitoring.JobStatus, 0, len(c.status))
	for _, status := range c.status {
		statuses = append(statuses, *status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Job < statuses[j].Job })
	return statuses
}

func (c *Cleaner) execute(ctx context.Context, j job) error {
	removed, err := j.run(ctx)
	c.record(j.name, err)

	if err != nil {
		metrics.MaintenanceRuns.WithLabelValues(j.name, "failure").Inc()
		c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
		return fmt.Errorf("%s: %w", j.name, err)
	}
	metrics.MaintenanceRuns.WithLabelValues(j.name, "success").Inc()
	if removed > 0 {
		c.log.Info("maintenance job completed", zap.String("job", j.name), zap.Int64("removed", removed))
	}
	return nil
}

func (c *Cleaner) record(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.status[name]
	if !ok {
		status = &monitoring.JobStatus{Job: name}
		c.status[name] = status
	}
	status.Runs++
	status.LastRunAt = c.now()
	if err != nil {
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		return
	}
	status.ConsecutiveFailures = 0
	status.LastError = ""
}
