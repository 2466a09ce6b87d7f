package notification

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/internal/repository"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/logger"
	"github.com/rpmweb/rpm-api/pkg/messaging"
	"github.com/rpmweb/rpm-api/pkg/metrics"
)

// Notifier is what other services use from post-commit hooks.
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

type Service struct {
	repo    repository.NotificationRepository
	users   repository.UserRepository
	broker  messaging.Broker
	channel string
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	broker messaging.Broker,
	channel string,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		broker:  broker,
		channel: channel,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Notify persists n and hands it to the delivery worker. Only the persist
// step can fail; a lost publish is logged.
func (s *Service) Notify(ctx context.Context, n *model.Notification) error {
	s.prepare(n)
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	s.publish(ctx, n, nil)
	return nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateNotificationRequest) (*model.Notification, error) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("User with ID %s not found", req.UserID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	n := fromRequest(req)
	s.prepare(n)
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.publish(ctx, n, user)
	return n, nil
}

// CreateBulk writes all notifications or none. Every recipient must exist.
func (s *Service) CreateBulk(ctx context.Context, req *model.BulkNotificationRequest) ([]*model.Notification, error) {
	users := make(map[uuid.UUID]*model.User)
	var missing []string
	for _, r := range req.Notifications {
		if _, seen := users[r.UserID]; seen {
			continue
		}
		user, err := s.users.GetByID(ctx, r.UserID)
		if stderrors.Is(err, repository.ErrNotFound) {
			users[r.UserID] = nil
			missing = append(missing, r.UserID.String())
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		users[r.UserID] = user
	}
	if len(missing) > 0 {
		return nil, errors.NotFound(fmt.Sprintf("Users with IDs %s not found", strings.Join(missing, ", ")), nil)
	}

	out := make([]*model.Notification, 0, len(req.Notifications))
	for i := range req.Notifications {
		n := fromRequest(&req.Notifications[i])
		s.prepare(n)
		out = append(out, n)
	}
	if err := s.repo.CreateBulk(ctx, out); err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}
	for _, n := range out {
		s.publish(ctx, n, users[n.UserID])
	}
	return out, nil
}

func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Notification, error) {
	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(caller, n) {
		return nil, errors.Forbidden("You can only view your own notifications")
	}
	return n, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	return s.ListMine(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]*model.Notification, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (s *Service) MarkRead(ctx context.Context, caller *model.User, id uuid.UUID, isRead bool) (*model.Notification, error) {
	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(caller, n) {
		return nil, errors.Forbidden("You can only mark your own notifications as read")
	}
	if err := s.repo.SetRead(ctx, id, isRead); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	n.IsRead = isRead
	return n, nil
}

// MarkAllRead marks the caller's notifications read. An admin may pass
// another user id.
func (s *Service) MarkAllRead(ctx context.Context, caller *model.User, target *uuid.UUID) (int64, error) {
	userID, err := bulkTarget(caller, target, "You can only update your own notifications")
	if err != nil {
		return 0, err
	}
	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}

func (s *Service) Delete(ctx context.Context, caller *model.User, id uuid.UUID) error {
	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !canAccess(caller, n) {
		return errors.Forbidden("You can only delete your own notifications")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// DeleteAll clears the caller's notifications. An admin may pass another
// user id.
func (s *Service) DeleteAll(ctx context.Context, caller *model.User, target *uuid.UUID) (int64, error) {
	userID, err := bulkTarget(caller, target, "You can only delete your own notifications")
	if err != nil {
		return 0, err
	}
	count, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return count, nil
}

// bulkTarget resolves whose notifications a bulk operation touches.
func bulkTarget(caller *model.User, target *uuid.UUID, denied string) (uuid.UUID, error) {
	if target == nil || *target == caller.ID {
		return caller.ID, nil
	}
	if caller.Role != model.RoleAdmin {
		return uuid.Nil, errors.Forbidden(denied)
	}
	return *target, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Notification with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (s *Service) prepare(n *model.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = s.now()
}

// publish emits the event the worker turns into an email. user may be nil,
// in which case it is looked up.
func (s *Service) publish(ctx context.Context, n *model.Notification, user *model.User) {
	if user == nil {
		u, err := s.users.GetByID(ctx, n.UserID)
		if err != nil {
			s.logger.Warn(err, "failed to load notification recipient", "notification_id", n.ID.String())
		} else {
			user = u
		}
	}

	event := model.NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
	if n.ActionURL != nil {
		event.ActionURL = *n.ActionURL
	}
	if user != nil {
		event.Name = user.Name
		if user.Email != nil {
			event.Email = *user.Email
		}
	}

	err := s.broker.Publish(ctx, s.channel, event)
	s.metrics.ObservePublish(err)
	if err != nil {
		s.logger.Warn(err, "failed to publish notification", "notification_id", n.ID.String(), "channel", s.channel)
	}
}

func fromRequest(req *model.CreateNotificationRequest) *model.Notification {
	return &model.Notification{
		UserID:    req.UserID,
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		RelatedID: req.RelatedID,
		ActionURL: req.ActionURL,
	}
}

func canAccess(caller *model.User, n *model.Notification) bool {
	return caller.Role == model.RoleAdmin || caller.ID == n.UserID
}
