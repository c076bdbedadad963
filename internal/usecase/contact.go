package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexulsly-backend/internal/domain"
	"nexulsly-backend/pkg/email"
	"nexulsly-backend/pkg/email/templates"
	"nexulsly-backend/pkg/logger"
	"nexulsly-backend/pkg/security"
	"nexulsly-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// Client-facing outcome messages
const (
	MsgSubmitted     = "Your message has been sent successfully! We'll get back to you within 1-2 business days."
	MsgEmailDegraded = "Contact saved successfully, but email notification failed. We'll still get back to you!"
	MsgEmailFailed   = "Failed to send your message. Please try again or contact us directly."
	MsgStorageFailed = "Failed to submit contact form"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500

	dispatchConfirmation = "confirmation"
	dispatchNotice       = "notice"
)

// ContactConfig holds the settings the submission pipeline needs.
type ContactConfig struct {
	TeamEmails     []string
	StorageTimeout time.Duration
	EmailTimeout   time.Duration
	Brand          templates.Brand
}

// ContactOption customizes a contact usecase.
type ContactOption func(*contactUsecase)

// WithAuditLogger records validation failures and degraded email delivery.
func WithAuditLogger(sl *security.SecurityLogger) ContactOption {
	return func(uc *contactUsecase) { uc.audit = sl }
}

// WithClock replaces time.Now for the received timestamp.
func WithClock(now func() time.Time) ContactOption {
	return func(uc *contactUsecase) { uc.now = now }
}

type contactUsecase struct {
	repo     domain.ContactRepository
	sender   email.Sender
	cfg      ContactConfig
	validate *validator.Validate
	audit    *security.SecurityLogger
	now      func() time.Time
}

// NewContactUsecase wires the submission pipeline. A nil repo runs in email-only mode.
func NewContactUsecase(repo domain.ContactRepository, sender email.Sender, cfg ContactConfig, validate *validator.Validate, opts ...ContactOption) domain.ContactUsecase {
	if validate == nil {
		validate = validation.New()
	}
	uc := &contactUsecase{
		repo:     repo,
		sender:   sender,
		cfg:      cfg,
		validate: validate,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *contactUsecase) Submit(ctx context.Context, req *domain.ContactRequest) (*domain.SubmissionResult, error) {
	if req == nil {
		req = &domain.ContactRequest{}
	}
	req.Normalize()

	if err := uc.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	requestID := domain.RequestIDFromContext(ctx)

	var stored *domain.StoredContact
	if uc.repo != nil {
		storeCtx, cancel := withTimeout(ctx, uc.cfg.StorageTimeout)
		var err error
		stored, err = uc.repo.Create(storeCtx, req)
		cancel()
		if err != nil {
			logger.Log.Error("Failed to store contact",
				"request_id", requestID,
				"email", security.MaskEmail(req.Email),
				"error", err,
			)
			return &domain.SubmissionResult{Message: MsgStorageFailed}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
		}
	}

	outcome, sendErr := uc.dispatch(ctx, req, requestID)

	result := &domain.SubmissionResult{
		Success:   true,
		EmailSent: outcome.Delivered(),
		Message:   MsgSubmitted,
		Contact:   stored,
		Emails:    outcome,
	}

	if sendErr == nil {
		return result, nil
	}

	if stored != nil {
		result.Message = MsgEmailDegraded
		uc.audit.LogEmailDegraded(ctx, req.Email, requestID, failedDispatches(outcome))
		return result, nil
	}

	result.Success = false
	result.Message = MsgEmailFailed
	return result, fmt.Errorf("%w: %w", domain.ErrEmail, sendErr)
}

func (uc *contactUsecase) ListContacts(ctx context.Context, filter domain.ContactFilter) ([]domain.StoredContact, error) {
	if uc.repo == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, domain.ErrStorageNotConfigured)
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	listCtx, cancel := withTimeout(ctx, uc.cfg.StorageTimeout)
	defer cancel()

	contacts, err := uc.repo.List(listCtx, filter)
	if err != nil {
		logger.Log.Error("Failed to list contacts", "request_id", domain.RequestIDFromContext(ctx), "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if contacts == nil {
		contacts = []domain.StoredContact{}
	}
	return contacts, nil
}

// validateRequest reports every field problem at once.
func (uc *contactUsecase) validateRequest(ctx context.Context, req *domain.ContactRequest) error {
	err := uc.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate contact request: %w", err)
	}

	messages := validation.FormatValidationErrors(verrs)
	vErr := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(messages))}
	fields := make([]string, 0, len(messages))
	for _, m := range messages {
		vErr.Fields = append(vErr.Fields, domain.FieldError{Field: m.Field, Message: m.Message})
		fields = append(fields, m.Field)
	}

	uc.audit.LogValidationFailed(ctx, req.Email, "", "", domain.RequestIDFromContext(ctx), fields)
	return vErr
}

// dispatch renders both messages and sends them concurrently. A failure of one
// send never cancels the other.
func (uc *contactUsecase) dispatch(ctx context.Context, req *domain.ContactRequest, requestID string) (domain.EmailOutcome, error) {
	var outcome domain.EmailOutcome
	receivedAt := uc.now()

	confirmation, err := templates.RenderConfirmation(templates.ConfirmationData{
		Brand:       uc.cfg.Brand,
		Name:        req.FullName(),
		ProjectType: req.ProjectType,
	})
	if err != nil {
		logger.Log.Error("Failed to render confirmation email", "request_id", requestID, "error", err)
		return outcome, err
	}

	notice, err := templates.RenderInternalNotice(templates.NoticeData{
		Brand:       uc.cfg.Brand,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		ProjectType: req.ProjectType,
		Message:     req.Message,
		ReceivedAt:  receivedAt,
	})
	if err != nil {
		logger.Log.Error("Failed to render team notice email", "request_id", requestID, "error", err)
		return outcome, err
	}

	// Sends outlive a disconnected client once the request has been accepted.
	sendCtx := context.WithoutCancel(ctx)

	var confirmationErr, noticeErr error
	var g errgroup.Group
	g.Go(func() error {
		confirmationErr = uc.send(sendCtx, dispatchConfirmation, requestID, email.Message{
			To:      []string{req.Email},
			Subject: confirmation.Subject,
			HTML:    confirmation.HTML,
			Text:    confirmation.Text,
			Tag:     "contact-confirmation",
		})
		return confirmationErr
	})
	g.Go(func() error {
		noticeErr = uc.send(sendCtx, dispatchNotice, requestID, email.Message{
			To:      uc.cfg.TeamEmails,
			ReplyTo: req.Email,
			Subject: notice.Subject,
			HTML:    notice.HTML,
			Text:    notice.Text,
			Tag:     "contact-notice",
		})
		return noticeErr
	})
	_ = g.Wait()

	outcome.ConfirmationSent = confirmationErr == nil
	outcome.NoticeSent = noticeErr == nil
	return outcome, errors.Join(confirmationErr, noticeErr)
}

func (uc *contactUsecase) send(ctx context.Context, dispatch, requestID string, msg email.Message) error {
	ctx, cancel := withTimeout(ctx, uc.cfg.EmailTimeout)
	defer cancel()

	if err := uc.sender.Send(ctx, msg); err != nil {
		logger.Log.Error("Failed to send contact email",
			"dispatch", dispatch,
			"request_id", requestID,
			"error", err,
		)
		return fmt.Errorf("%s email: %w", dispatch, err)
	}
	return nil
}

func failedDispatches(o domain.EmailOutcome) []string {
	var failed []string
	if !o.ConfirmationSent {
		failed = append(failed, dispatchConfirmation)
	}
	if !o.NoticeSent {
		failed = append(failed, dispatchNotice)
	}
	return failed
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
