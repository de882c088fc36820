package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gabe/tradelab/internal/clientdata"
	"github.com/gabe/tradelab/internal/config"
	"github.com/gabe/tradelab/internal/reliability"
	"github.com/gabe/tradelab/internal/scheduler"
)

// cacheCleanupSchedule runs the quote cache cleanup nightly, outside
// market hours.
const cacheCleanupSchedule = "0 0 3 * * *"

// JobInstances holds the scheduled jobs with their cron expressions.
type JobInstances struct {
	entries []jobEntry
}

type jobEntry struct {
	schedule string
	job      scheduler.Job
}

// BuildJobs creates every scheduled job for the container. The backup
// job is only included when a backup service is configured, the agent
// cycle only when a model API key is present.
func BuildJobs(container *Container, cfg *config.Config, log zerolog.Logger) *JobInstances {
	jobs := &JobInstances{
		entries: []jobEntry{
			{cfg.SnapshotSchedule, scheduler.NewSnapshotJob(container.SnapshotService)},
			{cacheCleanupSchedule, clientdata.NewCleanupJob(container.QuoteCacheRepo, log)},
		},
	}

	if cfg.AnthropicAPIKey != "" {
		jobs.entries = append(jobs.entries, jobEntry{
			cfg.AgentSchedule,
			scheduler.NewAgentCycleJob(container.AgentService),
		})
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set, agent cycle not scheduled")
	}

	if container.BackupService != nil {
		jobs.entries = append(jobs.entries, jobEntry{
			cfg.Backup.Schedule,
			reliability.NewBackupJob(container.BackupService),
		})
	}

	return jobs
}

// Register adds every job to the scheduler.
func (j *JobInstances) Register(sched *scheduler.Scheduler) error {
	for _, entry := range j.entries {
		if err := sched.AddJob(entry.schedule, entry.job); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", entry.job.Name(), err)
		}
	}
	return nil
}
