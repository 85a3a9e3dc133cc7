package contact

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jmehdipour/contact-site/internal/mailer"
	"github.com/jmehdipour/contact-site/internal/metrics"
	"github.com/jmehdipour/contact-site/internal/model"
	"github.com/jmehdipour/contact-site/internal/repository"
	"github.com/jmehdipour/contact-site/internal/util"
	"github.com/jmehdipour/contact-site/internal/validator"
	"go.uber.org/zap"
)

const defaultMessagePreview = 100

// Result describes an accepted submission.
type Result struct {
	ID        string
	MessageID string
}

// Service runs the contact pipeline: validate, compose, send once, log.
type Service struct {
	logs      repository.SubmissionLogRepository
	composer  *mailer.Composer
	transport mailer.Transport
	log       *zap.Logger

	// Now is the clock used for log timestamps and file names.
	Now func() time.Time
	// MessagePreview caps the message length written to the submission log.
	MessagePreview int

	ready atomic.Bool
}

// New constructs the contact service.
func New(
	logs repository.SubmissionLogRepository,
	composer *mailer.Composer,
	transport mailer.Transport,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		logs:           logs,
		composer:       composer,
		transport:      transport,
		log:            log,
		Now:            time.Now,
		MessagePreview: defaultMessagePreview,
	}
}

// Submit validates s and, if valid, emails it to the inbox.
// Returns *ValidationError or *DeliveryError on failure.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (Result, error) {
	now := s.Now()
	id := util.NewID(now)

	if errs := validator.Validate(sub); len(errs) > 0 {
		s.record(ctx, id, now, model.StatusValidationError, sub, strings.Join(errs, ", "), "")
		return Result{}, &ValidationError{Details: errs}
	}

	msg, err := s.composer.Compose(sub, now)
	if err != nil {
		s.record(ctx, id, now, model.StatusError, sub, err.Error(), "")
		return Result{}, &DeliveryError{Err: err}
	}

	start := time.Now()
	res, err := s.transport.Send(ctx, msg)
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	metrics.MailSendSeconds.WithLabelValues(s.transport.Name(), outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		s.log.Error("email sending failed",
			zap.String("id", id), zap.String("transport", s.transport.Name()), zap.Error(err))
		s.record(ctx, id, now, model.StatusError, sub, err.Error(), "")
		return Result{}, &DeliveryError{Err: err}
	}

	s.log.Info("email sent", zap.String("id", id), zap.String("message_id", res.MessageID))
	s.record(ctx, id, now, model.StatusSuccess, sub, "", res.MessageID)

	return Result{ID: id, MessageID: res.MessageID}, nil
}

// RejectInvalid logs a request that never reached validation (e.g. undecodable body).
func (s *Service) RejectInvalid(ctx context.Context, sub model.Submission, details []string) *ValidationError {
	now := s.Now()
	s.record(ctx, util.NewID(now), now, model.StatusValidationError, sub, strings.Join(details, ", "), "")
	return &ValidationError{Details: details}
}

func (s *Service) record(ctx context.Context, id string, at time.Time, status model.SubmissionStatus, sub model.Submission, errMsg, messageID string) {
	metrics.SubmissionsTotal.WithLabelValues(status.String()).Inc()

	sub.Message = model.TruncateMessage(sub.Message, s.MessagePreview)
	e := model.LogEntry{
		ID:        id,
		Timestamp: at.UTC(),
		Status:    status,
		Data:      sub,
		MessageID: messageID,
	}
	if errMsg != "" {
		e.Error = &errMsg
	}

	// the visitor's outcome does not depend on the log write
	if err := s.logs.Append(context.WithoutCancel(ctx), e); err != nil {
		s.log.Error("submission log append failed",
			zap.String("id", id), zap.String("status", status.String()), zap.Error(err))
	}
}

// Recent returns up to limit log entries for the current UTC day.
func (s *Service) Recent(ctx context.Context, limit int) ([]model.LogEntry, error) {
	return s.logs.Recent(ctx, s.Now(), limit)
}

// Verify checks the transport and remembers the outcome for Ready.
func (s *Service) Verify(ctx context.Context) error {
	err := s.transport.Verify(ctx)
	s.ready.Store(err == nil)
	if err == nil {
		metrics.MailReady.Set(1)
	} else {
		metrics.MailReady.Set(0)
	}
	return err
}

// Ready reports whether the last Verify succeeded.
func (s *Service) Ready() bool { return s.ready.Load() }

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
