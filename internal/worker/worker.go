package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/storage"
)

// AuditStore persists audit entries.
type AuditStore interface {
	Insert(ctx context.Context, e *models.AuditEntry) error
}

// JobSource is the queue the processor drains.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// AuditProcessor processes change jobs: archive deleted rows to S3 when configured, then record the audit entry.
type AuditProcessor struct {
	store    AuditStore
	archiver storage.Archiver
	prefix   string
	queue    JobSource
	backoff  time.Duration
	logger   *zap.Logger
}

// NewAuditProcessor creates a change-feed processor. A nil archiver disables archiving.
func NewAuditProcessor(store AuditStore, archiver storage.Archiver, prefix string, q JobSource, logger *zap.Logger) *AuditProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditProcessor{
		store:    store,
		archiver: archiver,
		prefix:   prefix,
		queue:    q,
		backoff:  queue.RetryBackoff,
		logger:   logger,
	}
}

// Process executes one change job.
func (p *AuditProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeChange {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ChangePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	id, err := uuid.Parse(job.ID)
	if err != nil {
		return fmt.Errorf("job id: %w", err)
	}

	entry := &models.AuditEntry{
		ID:         id,
		Entity:     payload.Entity,
		EntityID:   payload.EntityID,
		Action:     payload.Action,
		Snapshot:   payload.Snapshot,
		OccurredAt: payload.OccurredAt,
	}

	if payload.Action == models.ActionDelete && p.archiver != nil && len(payload.Snapshot) > 0 {
		key := storage.ArchiveKey(p.prefix, payload.Entity, payload.EntityID.String(), payload.OccurredAt)
		if _, err := p.archiver.Archive(ctx, key, payload.Snapshot); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		entry.ArchiveKey = key
	}

	if err := p.store.Insert(ctx, entry); err != nil {
		p.logger.Error("insert audit entry failed", zap.Error(err), zap.String("job_id", job.ID))
		return fmt.Errorf("insert audit entry: %w", err)
	}

	p.logger.Info("change recorded",
		zap.String("entity", payload.Entity),
		zap.String("entity_id", payload.EntityID.String()),
		zap.String("action", payload.Action),
		zap.String("archive_key", entry.ArchiveKey),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *AuditProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("audit worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *AuditProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
