package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/config"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeNotifyAssignee = "automation:notify_assignee"
)

// In-process delivery gets the same retry budget as the asynq task.
const (
	syncDeliveryMaxRetries = 3
	syncDeliveryMaxElapsed = 30 * time.Second
)

// NotificationIntent asks the notification worker to tell an assignee that
// automation moved their work item.
type NotificationIntent struct {
	AssigneeID uint   `json:"assignee_id"`
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
	ProjectID  uint   `json:"project_id"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
	RuleID     uint   `json:"rule_id"`
}

// Notifier accepts notification intents. Delivery happens elsewhere.
type Notifier interface {
	Enqueue(ctx context.Context, intent *NotificationIntent) error
}

// TaskQueue is a Notifier backed by Redis or by an in-process goroutine.
type TaskQueue interface {
	Notifier
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue initializes the global task queue based on config
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := redisClientOpt(cfg)
	client := asynq.NewClient(redisOpt)

	// Queues() fails fast when Redis is unreachable.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewNotifyTask builds the asynq task for an intent.
func NewNotifyTask(intent *NotificationIntent) (*asynq.Task, error) {
	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyAssignee, payload), nil
}

func (q *AsyncQueue) Enqueue(ctx context.Context, intent *NotificationIntent) error {
	t, err := NewNotifyTask(intent)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, t,
		asynq.TaskID(uuid.NewString()),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).
		Str("entity_type", intent.EntityType).Uint("entity_id", intent.EntityID).
		Msg("notification intent enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue with in-process delivery (no Redis)
type SyncQueue struct {
	processor  func(context.Context, *NotificationIntent) error
	newBackOff func() backoff.BackOff
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{newBackOff: newDeliveryBackOff}
}

func newDeliveryBackOff() backoff.BackOff {
	// BackOff is stateful; every delivery gets its own.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = syncDeliveryMaxElapsed
	return backoff.WithMaxRetries(bo, syncDeliveryMaxRetries)
}

// SetProcessor sets the function that delivers intents
func (q *SyncQueue) SetProcessor(processor func(context.Context, *NotificationIntent) error) {
	q.processor = processor
}

// Enqueue hands the intent to the processor on its own goroutine so the
// caller never waits on delivery. Failed deliveries are retried with
// exponential backoff.
func (q *SyncQueue) Enqueue(_ context.Context, intent *NotificationIntent) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] no processor set, notification intent for %s %d dropped", intent.EntityType, intent.EntityID)
		return nil
	}

	go func() {
		if err := q.deliver(context.Background(), intent); err != nil {
			logger.Errorf("[SyncQueue] notification delivery failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) deliver(ctx context.Context, intent *NotificationIntent) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := q.processor(ctx, intent)
		if err != nil {
			logger.Debug().Int("attempt", attempt).Err(err).
				Str("entity_type", intent.EntityType).Uint("entity_id", intent.EntityID).
				Msg("notification delivery attempt failed")
		}
		return err
	}, backoff.WithContext(q.newBackOff(), ctx))
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

func (q *SyncQueue) Close() error {
	return nil
}
