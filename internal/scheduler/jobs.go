package scheduler

import (
	"context"
	"time"

	"github.com/gabe/tradelab/internal/modules/agent"
	"github.com/gabe/tradelab/internal/modules/snapshots"
)

// agentCycleTimeout caps one decision cycle end to end, model call
// included.
const agentCycleTimeout = 2 * time.Minute

// AgentCycleJob runs one autonomous decision cycle.
type AgentCycleJob struct {
	service *agent.Service
}

// NewAgentCycleJob creates a new agent cycle job
func NewAgentCycleJob(service *agent.Service) *AgentCycleJob {
	return &AgentCycleJob{service: service}
}

// Name returns the job name
func (j *AgentCycleJob) Name() string { return "agent_cycle" }

// Run executes one decision cycle. Outcomes are recorded by the
// service; only pipeline aborts surface as job errors.
func (j *AgentCycleJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), agentCycleTimeout)
	defer cancel()

	_, err := j.service.RunCycle(ctx)
	return err
}

// SnapshotJob records the daily value snapshot for both competitors.
type SnapshotJob struct {
	service *snapshots.Service
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(service *snapshots.Service) *SnapshotJob {
	return &SnapshotJob{service: service}
}

// Name returns the job name
func (j *SnapshotJob) Name() string { return "daily_snapshot" }

// Run takes the snapshots
func (j *SnapshotJob) Run() error {
	return j.service.TakeSnapshots()
}
