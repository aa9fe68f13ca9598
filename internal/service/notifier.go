package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"yard-service/internal/model"
	"yard-service/internal/repository"
)

const defaultNotifyConcurrency = 8

// Notifier persists notifications on a best-effort basis. It never reports failures
// to the caller; they are logged instead.
type Notifier struct {
	notifications repository.NotificationStore
	users         repository.UserStore
	log           zerolog.Logger
	concurrency   int
}

func NewNotifier(repo *repository.Repository, log zerolog.Logger, concurrency int) *Notifier {
	if concurrency < 1 {
		concurrency = defaultNotifyConcurrency
	}
	return &Notifier{
		notifications: repo.Notifications,
		users:         repo.Users,
		log:           log,
		concurrency:   concurrency,
	}
}

// Notify writes every notification independently and concurrently. It runs detached
// from the caller's cancellation so a closed client connection does not drop writes.
func (n *Notifier) Notify(ctx context.Context, notifications ...*model.Notification) {
	if len(notifications) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(n.concurrency)
	for _, notification := range notifications {
		g.Go(func() error {
			if err := n.notifications.Create(ctx, notification); err != nil {
				n.log.Warn().Err(err).
					Str("recipient_id", notification.RecipientID.String()).
					Str("type", string(notification.Type)).
					Msg("failed to create notification")
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		n.log.Warn().Err(err).Int("total", len(notifications)).Msg("notification fan-out incomplete")
	}
}

// NotifyRoles sends a copy of template to every active user holding one of roles.
func (n *Notifier) NotifyRoles(ctx context.Context, roles []model.Role, template model.Notification) {
	users, err := n.users.ListActiveByRoles(context.WithoutCancel(ctx), roles)
	if err != nil {
		n.log.Warn().Err(err).Msg("failed to resolve notification recipients")
		return
	}

	notifications := make([]*model.Notification, 0, len(users))
	for _, user := range users {
		notification := template
		notification.RecipientID = user.ID
		notifications = append(notifications, &notification)
	}
	n.Notify(ctx, notifications...)
}

func newNotification(recipientID, senderID uuid.UUID, kind model.NotificationType, title, message string, data model.NotificationData) *model.Notification {
	return &model.Notification{
		RecipientID: recipientID,
		SenderID:    &senderID,
		Type:        kind,
		Title:       title,
		Message:     message,
		Data:        datatypes.NewJSONType(data),
	}
}
