package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/evolve-africa/backend/internal/emaillogs"
	"github.com/evolve-africa/backend/internal/models"
	"github.com/evolve-africa/backend/pkg/mailer"
	"github.com/evolve-africa/backend/pkg/queue"
)

// ConfirmationProcessor processes confirmation email jobs: render the
// message, send it, and record the delivery outcome.
type ConfirmationProcessor struct {
	logRepo *emaillogs.Repository
	mailer  mailer.Mailer
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewConfirmationProcessor creates a confirmation email processor.
func NewConfirmationProcessor(logRepo *emaillogs.Repository, m mailer.Mailer, q *queue.Queue, logger *zap.Logger) *ConfirmationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfirmationProcessor{logRepo: logRepo, mailer: m, queue: q, logger: logger}
}

// Process executes one confirmation email job.
func (p *ConfirmationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeConfirmationEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ConfirmationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject, html, text := RenderConfirmation(payload)
	sendErr := p.mailer.Send(ctx, payload.RecipientEmail, subject, html, text)

	el := &models.EmailLog{
		RegistrationID: &payload.RegistrationID,
		EmailType:      models.EmailTypeRegistrationConfirmation,
		RecipientEmail: payload.RecipientEmail,
		Subject:        subject,
	}
	if sendErr != nil {
		el.Status = models.EmailLogStatusFailed
		el.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now()
		el.Status = models.EmailLogStatusSent
		el.SentAt = &now
	}
	if err := p.logRepo.Create(ctx, el); err != nil {
		p.logger.Error("record email log failed", zap.Error(err), zap.String("recipient", payload.RecipientEmail))
	}

	if sendErr != nil {
		return fmt.Errorf("send confirmation: %w", sendErr)
	}
	p.logger.Info("confirmation sent", zap.String("recipient", payload.RecipientEmail), zap.String("registration_id", payload.RegistrationID.String()))
	return nil
}

// RenderConfirmation builds the confirmation email for a registration.
func RenderConfirmation(p queue.ConfirmationPayload) (subject, html, text string) {
	name := p.FirstName
	if name == "" {
		name = "there"
	}
	subject = "Registration confirmed"
	text = fmt.Sprintf("Hi %s,\n\nYour registration is confirmed for the %s session. We look forward to seeing you.\n", name, p.SelectedSession)
	html = fmt.Sprintf("<p>Hi %s,</p><p>Your registration is confirmed for the <b>%s</b> session. We look forward to seeing you.</p>", name, p.SelectedSession)
	return subject, html, text
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ConfirmationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("confirmation worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
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
