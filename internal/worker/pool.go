package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReportEmail = "jobs:report_email"

	JobReportEmail = "report_email"

	// maxAttempts is how many times a job runs before it is dead-lettered.
	maxAttempts = 3
)

// errPermanent marks failures that retrying cannot fix (bad payload, bad
// date). Such jobs go straight to the DLQ.
var errPermanent = errors.New("permanent job failure")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Handlers maps job types to their processors.
type Handlers map[string]Handler

// JobRecorder receives job outcomes. *observability.Metrics implements it.
type JobRecorder interface {
	JobFinished(jobType, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) JobFinished(string, string) {}

type pool struct {
	rdb      *redis.Client
	handlers Handlers
	rec      JobRecorder
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReportEmail pushes a report mail job to Redis.
func (d *Dispatcher) EnqueueReportEmail(ctx context.Context, payload map[string]interface{}) error {
	return d.enqueue(ctx, QueueReportEmail, JobReportEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return errors.New("worker: redis not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP, zero CPU when idle. The returned WaitGroup
// is done once every worker has observed ctx cancellation. rec may be nil.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers Handlers, numWorkers int, rec JobRecorder) *sync.WaitGroup {
	p := newPool(rdb, handlers, rec)
	var wg sync.WaitGroup
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.run(ctx, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
	return &wg
}

func newPool(rdb *redis.Client, handlers Handlers, rec JobRecorder) *pool {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &pool{rdb: rdb, handlers: handlers, rec: rec}
}

func (p *pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueReportEmail).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

// process runs one job. Failed jobs are requeued with an incremented
// attempt count until maxAttempts, then dead-lettered.
func (p *pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.deadLetter(ctx, DeadLetter{Queue: queue, Type: "unknown", Raw: raw, Reason: "malformed envelope"})
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		p.deadLetter(ctx, DeadLetter{Queue: queue, Type: job.Type, Payload: job.Payload, Reason: "no handler for job type", Attempts: job.Attempts})
		return
	}

	err := h.Process(ctx, job.Payload)
	if err == nil {
		p.rec.JobFinished(job.Type, "success")
		return
	}
	job.Attempts++
	if errors.Is(err, errPermanent) || job.Attempts >= maxAttempts {
		p.deadLetter(ctx, DeadLetter{Queue: queue, Type: job.Type, Payload: job.Payload, Reason: err.Error(), Attempts: job.Attempts})
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeueing")
	p.rec.JobFinished(job.Type, "retry")
	if perr := push(ctx, p.rdb, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("failed to requeue job")
	}
}
