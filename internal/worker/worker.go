package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confera/backend/internal/email"
	"github.com/confera/backend/internal/emaillogs"
	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/pkg/queue"
)

// EmailProcessor drains the email queue: send via the provider, record
// the outcome in email_logs, retry transient failures.
type EmailProcessor struct {
	sender email.Sender
	logs   *emaillogs.Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(sender email.Sender, logs *emaillogs.Repository, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{sender: sender, logs: logs, queue: q, logger: logger}
}

// Process executes one email job. The audit row is written for both
// outcomes; only failed sends are logged as failed and retried.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sendErr := p.sender.Send(ctx, payload.RecipientEmail, payload.RecipientName, payload.Subject, payload.Body)

	log := &models.EmailLog{
		Recipient: payload.RecipientEmail,
		Subject:   payload.Subject,
		EmailType: payload.EmailType,
		Status:    models.EmailStatusSent,
	}
	if payload.RegistrationID != uuid.Nil {
		id := payload.RegistrationID
		log.RegistrationID = &id
	}
	if sendErr != nil {
		log.Status = models.EmailStatusFailed
		log.Error = sendErr.Error()
	}
	if err := p.logs.Record(ctx, log); err != nil {
		p.logger.Error("email log write failed", zap.Error(err), zap.String("job_id", job.ID))
	}

	if sendErr != nil {
		return fmt.Errorf("send: %w", sendErr)
	}
	p.logger.Info("email sent",
		zap.String("job_id", job.ID),
		zap.String("email_type", payload.EmailType),
		zap.String("recipient", payload.RecipientEmail))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
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
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
