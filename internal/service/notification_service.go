package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
	"github.com/unitime-io/unitime-api/pkg/mail"
)

type notificationStore interface {
	ListForRole(ctx context.Context, role string, limit int) ([]models.Notification, error)
	Create(ctx context.Context, n *models.Notification) error
	Delete(ctx context.Context, id string) error
}

type notificationUserStore interface {
	ListByRole(ctx context.Context, role string) ([]models.User, error)
}

// NotificationService broadcasts announcements to a role, persisting them
// for in-app display and fanning them out by email.
type NotificationService struct {
	notifications notificationStore
	users         notificationUserStore
	mailer        mailDispatcher
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(notifications notificationStore, users notificationUserStore, mailer mailDispatcher, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{notifications: notifications, users: users, mailer: mailer, validator: validate, logger: logger}
}

// ListForRole returns the notifications visible to a role.
func (s *NotificationService) ListForRole(ctx context.Context, role string, limit int) ([]models.Notification, error) {
	items, err := s.notifications.ListForRole(ctx, role, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, nil
}

// Broadcast persists a notification and emails the targeted accounts.
func (s *NotificationService) Broadcast(ctx context.Context, req dto.CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	notification := &models.Notification{
		Title:      req.Title,
		Message:    req.Message,
		Type:       req.Type,
		TargetRole: req.TargetRole,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	s.fanOut(ctx, notification)
	return notification, nil
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if err := s.notifications.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

func (s *NotificationService) fanOut(ctx context.Context, n *models.Notification) {
	if s.mailer == nil || s.users == nil {
		return
	}

	var roles []string
	if n.TargetRole == models.NotifyAll {
		roles = []string{models.RoleStudent, models.RoleTeacher}
	} else {
		roles = []string{n.TargetRole}
	}

	for _, role := range roles {
		users, err := s.users.ListByRole(ctx, role)
		if err != nil {
			s.logger.Warn("failed to load notification recipients", zap.String("role", role), zap.Error(err))
			continue
		}
		for _, user := range users {
			s.mailer.Dispatch(mail.Message{
				ToName:   user.FullName,
				ToEmail:  user.Email,
				Subject:  n.Title,
				HTMLBody: "<p>" + n.Message + "</p>",
				TextBody: n.Message,
			})
		}
	}
}
