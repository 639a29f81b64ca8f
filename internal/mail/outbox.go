package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	outboxKey   = "mail:outbox"
	maxAttempts = 3
	popTimeout  = 5 * time.Second
)

// Outbox queues invitation emails in Redis. The invitation write and the
// enqueue are deliberately two steps (write-then-notify): the enqueue runs
// after the row is durable and outside any lock.
type Outbox struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewOutbox(rdb *redis.Client, logger *zap.Logger) *Outbox {
	return &Outbox{rdb: rdb, logger: logger}
}

func (o *Outbox) EnqueueInvitation(ctx context.Context, job InvitationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal mail job: %w", err)
	}
	if err := o.rdb.LPush(ctx, outboxKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue mail job: %w", err)
	}
	return nil
}

// Worker drains the outbox and hands jobs to the sender. Failed jobs go
// back on the queue until maxAttempts, then get dropped with an error log;
// the invitation record stays valid either way and a resend re-enqueues.
type Worker struct {
	rdb    *redis.Client
	sender *Sender
	logger *zap.Logger
}

func NewWorker(rdb *redis.Client, sender *Sender, logger *zap.Logger) *Worker {
	return &Worker{rdb: rdb, sender: sender, logger: logger}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("mail outbox worker started")
	for {
		res, err := w.rdb.BRPop(ctx, popTimeout, outboxKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.logger.Info("mail outbox worker stopped")
				return
			}
			w.logger.Warn("outbox pop failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		// BRPop returns [key, value].
		if len(res) != 2 {
			continue
		}
		w.handle(ctx, []byte(res[1]))
	}
}

func (w *Worker) handle(ctx context.Context, payload []byte) {
	var job InvitationJob
	if err := json.Unmarshal(payload, &job); err != nil {
		w.logger.Error("dropping malformed mail job", zap.Error(err))
		return
	}
	if err := w.sender.Send(ctx, job); err != nil {
		job.Attempts++
		if job.Attempts >= maxAttempts {
			w.logger.Error("dropping mail job after retries",
				zap.String("to", job.To),
				zap.String("survey", job.SurveyRef),
				zap.Int("attempts", job.Attempts),
				zap.Error(err),
			)
			return
		}
		w.logger.Warn("mail dispatch failed, requeueing",
			zap.String("to", job.To),
			zap.Int("attempts", job.Attempts),
			zap.Error(err),
		)
		if requeue, merr := json.Marshal(job); merr == nil {
			_ = w.rdb.LPush(ctx, outboxKey, requeue).Err()
		}
	}
}
