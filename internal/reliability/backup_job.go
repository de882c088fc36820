package reliability

import (
	"context"
	"time"
)

// backupTimeout caps one full backup run, upload included.
const backupTimeout = 10 * time.Minute

// BackupJob runs a scheduled backup.
type BackupJob struct {
	service *BackupService
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService) *BackupJob {
	return &BackupJob{service: service}
}

// Name returns the job name
func (j *BackupJob) Name() string { return "ledger_backup" }

// Run creates and uploads one backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	return j.service.CreateAndUploadBackup(ctx)
}
