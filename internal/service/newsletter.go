package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mehidi-hridoy/dokan/internal/domain"
	"github.com/Mehidi-hridoy/dokan/internal/event"
	"github.com/Mehidi-hridoy/dokan/internal/newsletter"
	"github.com/Mehidi-hridoy/dokan/internal/repository"
	"github.com/Mehidi-hridoy/dokan/internal/task"
	apperrors "github.com/Mehidi-hridoy/dokan/pkg/errors"
	"github.com/Mehidi-hridoy/dokan/pkg/pagination"
	pkgvalidator "github.com/Mehidi-hridoy/dokan/pkg/validator"
)

// subscribeInput exists to run tag validation on the email field.
type subscribeInput struct {
	Email string `validate:"required,email"`
}

// NewsletterService records newsletter signups and acknowledges them through
// the configured provider. The acknowledgement runs as a named task so
// callers can await or poll it instead of sleeping on a timer.
type NewsletterService struct {
	repo     repository.SubscriberRepository
	provider newsletter.Provider
	runner   *task.Runner
	producer *event.Producer
	logger   *slog.Logger
}

// NewNewsletterService creates a new newsletter service.
func NewNewsletterService(repo repository.SubscriberRepository, provider newsletter.Provider, runner *task.Runner, producer *event.Producer, logger *slog.Logger) *NewsletterService {
	return &NewsletterService{
		repo:     repo,
		provider: provider,
		runner:   runner,
		producer: producer,
		logger:   logger,
	}
}

// Subscribe records the email and schedules the provider acknowledgement.
// The bool reports whether the email was already subscribed; in that case no
// row is written, no task is scheduled and the returned task is nil.
func (s *NewsletterService) Subscribe(ctx context.Context, sessionID, email string) (*task.Task, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := pkgvalidator.Validate(subscribeInput{Email: email}); err != nil {
		return nil, false, apperrors.InvalidInput("a valid email address is required")
	}

	sub := &domain.Subscriber{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.InfoContext(ctx, "newsletter signup already subscribed",
				slog.String("session_id", sessionID),
				slog.String("email", email),
			)
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("create subscriber: %w", err)
	}

	ackTask := s.runner.Go("newsletter-ack", func(taskCtx context.Context) error {
		return s.provider.Subscribe(taskCtx, email)
	})

	if err := s.producer.PublishNewsletterSubscribed(ctx, sub); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish newsletter.subscribed event",
			slog.String("subscriber_id", sub.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "newsletter signup recorded",
		slog.String("session_id", sessionID),
		slog.String("email", email),
		slog.String("provider", s.provider.Name()),
		slog.String("task_id", ackTask.ID),
	)

	return ackTask, false, nil
}

// ListSubscribers returns a paginated list of signups, newest first.
func (s *NewsletterService) ListSubscribers(ctx context.Context, params pagination.Params) ([]domain.Subscriber, int, error) {
	params = normalizeParams(params)

	subs, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}

	return subs, total, nil
}
