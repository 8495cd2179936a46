package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicode/medicode-api/internal/email"
	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
	apperrors "github.com/medicode/medicode-api/pkg/errors"
	"github.com/medicode/medicode-api/pkg/messaging"
	"github.com/medicode/medicode-api/pkg/metrics"
)

const notificationChannel = "notifications"

// Service creates and manages user-facing alerts. Rejection
// notifications are created only when an authenticated user performed
// the submission; system-originated submissions are silent.
type Service struct {
	repo     repository.NotificationRepository
	emailSvc email.Service
	broker   messaging.Broker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(repo repository.NotificationRepository, emailSvc email.Service, broker messaging.Broker, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		emailSvc: emailSvc,
		broker:   broker,
		metrics:  m,
		logger:   logger.With().Str("component", "notifier").Logger(),
	}
}

// NotifyRejection creates one unread notification addressed to the
// acting user. The broker publish and email delivery are best-effort;
// only the stored notification row is authoritative.
func (s *Service) NotifyRejection(ctx context.Context, user *model.Actor, patient *model.Patient, diagnosisID, treatmentID *uuid.UUID, outcome *model.ValidationOutcome) (*model.Notification, error) {
	if user == nil {
		return nil, fmt.Errorf("rejection notification requires an acting user")
	}

	patientID := patient.ID
	n := &model.Notification{
		ID:          uuid.New(),
		UserID:      user.ID,
		Type:        classify(outcome),
		Title:       fmt.Sprintf("Code rejected for patient %s", patient.Name),
		Message:     outcome.RejectionReason,
		PatientID:   &patientID,
		DiagnosisID: diagnosisID,
		TreatmentID: treatmentID,
		IsRead:      false,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	if s.metrics != nil {
		s.metrics.NotificationsCreated.Inc()
	}

	if s.broker != nil {
		if err := s.broker.Publish(ctx, notificationChannel, n); err != nil {
			s.logger.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("failed to publish notification event")
		}
	}

	if s.emailSvc != nil && user.Email != "" {
		if err := s.emailSvc.SendCustom(ctx, user.Email, n.Title, n.Message); err != nil {
			if s.metrics != nil {
				s.metrics.NotificationEmailsFailed.Inc()
			}
			s.logger.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("failed to send notification email")
		}
	}

	return n, nil
}

// ListForUser returns the user's own notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly)
}

// MarkRead flips is_read for a notification owned by userID. Marking
// another user's notification is rejected without state change.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperrors.Forbidden("notification belongs to another user", nil)
	}
	return s.repo.MarkRead(ctx, id)
}

// classify picks the notification type from the rejection evidence:
// catalog failures, near-match suggestions, and plain not-found
// rejections read differently in the inbox.
func classify(outcome *model.ValidationOutcome) model.NotificationType {
	switch {
	case strings.HasPrefix(outcome.RejectionReason, "Validation error:"):
		return model.NotificationValidationFailed
	case len(outcome.Suggestions) > 0:
		return model.NotificationCodeSuggestion
	default:
		return model.NotificationCodeRejected
	}
}
