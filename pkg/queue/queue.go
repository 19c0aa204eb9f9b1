package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueChanges is the Redis list key for committed catalog mutations.
	QueueChanges = "worker:changes"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 5 * time.Second
	// DequeueTimeout bounds each blocking pop so the worker notices shutdown.
	DequeueTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeChange JobType = "entity_change"
)

// ChangePayload describes one committed create, update or delete.
// For deletes, Snapshot holds every row removed by the cascade.
type ChangePayload struct {
	Entity     string          `json:"entity"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Action     string          `json:"action"`
	OccurredAt time.Time       `json:"occurred_at"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
}

// NewChange builds a ChangePayload, encoding snapshot as JSON.
func NewChange(entity string, id uuid.UUID, action string, snapshot any) (ChangePayload, error) {
	p := ChangePayload{Entity: entity, EntityID: id, Action: action, OccurredAt: time.Now().UTC()}
	if snapshot != nil {
		raw, err := json.Marshal(snapshot)
		if err != nil {
			return ChangePayload{}, fmt.Errorf("marshal snapshot: %w", err)
		}
		p.Snapshot = raw
	}
	return p, nil
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Publisher accepts change notifications.
type Publisher interface {
	EnqueueChange(ctx context.Context, payload ChangePayload) error
}

// Discard is a Publisher that drops everything. It is used when Redis is unavailable.
type Discard struct{}

// EnqueueChange implements Publisher.
func (Discard) EnqueueChange(context.Context, ChangePayload) error { return nil }

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueChange enqueues a change job.
func (q *Queue) EnqueueChange(ctx context.Context, payload ChangePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      JobTypeChange,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueChanges, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued change job",
		zap.String("job_id", job.ID),
		zap.String("entity", payload.Entity),
		zap.String("action", payload.Action),
	)
	return nil
}

// Dequeue blocks up to DequeueTimeout for a job. It returns a nil job on timeout
// and skips payloads that cannot be decoded.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, DequeueTimeout, QueueChanges).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, QueueChanges, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
